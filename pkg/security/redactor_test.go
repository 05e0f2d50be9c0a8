package security_test

import (
	"testing"

	"github.com/arnavsurve/scrapebot/pkg/security"
	"github.com/stretchr/testify/assert"
)

func TestRedactor_Redact(t *testing.T) {
	tests := []struct {
		name    string
		secrets []string
		input   string
		want    string
	}{
		{
			name:    "exact match",
			secrets: []string{"supersecret"},
			input:   "The password is supersecret",
			want:    "The password is ********",
		},
		{
			name:    "multiple occurrences",
			secrets: []string{"abcdef"},
			input:   "S3 key: abcdef is being used. Backup key: abcdef should be stored.",
			want:    "S3 key: ******** is being used. Backup key: ******** should be stored.",
		},
		{
			name:    "substring of another word",
			secrets: []string{"key"},
			input:   "The keyboard has keys for typing.",
			want:    "The ********board has ********s for typing.",
		},
		{
			name:    "multiple secrets",
			secrets: []string{"pass123", "key456"},
			input:   "Password: pass123, Access Key: key456",
			want:    "Password: ********, Access Key: ********",
		},
		{
			name:    "no secrets returns original string",
			secrets: nil,
			input:   "Original string",
			want:    "Original string",
		},
		{
			name:    "overlapping secrets",
			secrets: []string{"secret", "supersecret"},
			input:   "This contains supersecret and secret values",
			want:    "This contains ******** and ******** values",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := security.NewRedactor(tt.secrets...)
			assert.Equal(t, tt.want, r.Redact(tt.input))
		})
	}
}

func TestNewRedactorSkipsEmptyAndDuplicates(t *testing.T) {
	r := security.NewRedactor("a", "", "b", "a")
	assert.Equal(t, []string{"a", "b"}, r.Secrets)

	r.Add("")
	r.Add("c")
	assert.Equal(t, []string{"a", "b", "c"}, r.Secrets)
}

func TestNilRedactor(t *testing.T) {
	var r *security.Redactor
	assert.Equal(t, "unchanged", r.Redact("unchanged"))
}
