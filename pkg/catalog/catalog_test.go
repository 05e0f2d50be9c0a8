package catalog_test

import (
	"testing"

	"github.com/arnavsurve/scrapebot/pkg/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    catalog.Kind
		wantErr bool
	}{
		{name: "navigate", input: "navigate", want: catalog.Navigate},
		{name: "mixed case with space", input: "  Find_By_XPath ", want: catalog.FindByXPath},
		{name: "pagetitle spelling", input: "get_pagetitle", want: catalog.GetPageTitle},
		{name: "unknown", input: "teleport", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := catalog.ParseKind(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, catalog.ErrUnknownStepKind)
				assert.Equal(t, catalog.Invalid, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKindNamesRoundTrip(t *testing.T) {
	seen := map[string]bool{}
	for _, k := range catalog.All() {
		info := k.Info()
		require.NotEmpty(t, info.Name, "kind %d has no name", k)
		assert.False(t, seen[info.Name], "duplicate name %s", info.Name)
		seen[info.Name] = true

		parsed, err := catalog.ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	assert.Len(t, seen, 34)
}

func TestKindYAMLDecoding(t *testing.T) {
	var doc struct {
		Type catalog.Kind `yaml:"type"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("type: find_by_css\n"), &doc))
	assert.Equal(t, catalog.FindByCSS, doc.Type)

	err := yaml.Unmarshal([]byte("type: hover\n"), &doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown step kind")
}

func TestInvalidKind(t *testing.T) {
	assert.False(t, catalog.Invalid.Valid())
	assert.Equal(t, catalog.Info{}, catalog.Invalid.Info())
	_, err := catalog.Invalid.MarshalText()
	assert.ErrorIs(t, err, catalog.ErrUnknownStepKind)
}

func TestFindKinds(t *testing.T) {
	var finds []catalog.Kind
	for _, k := range catalog.All() {
		if k.IsFind() {
			finds = append(finds, k)
		}
	}
	assert.Len(t, finds, 8)
	for _, k := range finds {
		assert.True(t, k.Info().ProducesData, k.String())
	}
}
