// Package security masks configured secrets in operational log output.
package security

import (
	"sort"
	"strings"
)

const mask = "********"

type Redactor struct {
	Secrets []string
}

// NewRedactor collects the non-empty, distinct secrets.
func NewRedactor(secrets ...string) *Redactor {
	r := &Redactor{}
	for _, s := range secrets {
		r.Add(s)
	}
	return r
}

// Add registers another secret.
func (r *Redactor) Add(secret string) {
	if secret == "" {
		return
	}
	for _, s := range r.Secrets {
		if s == secret {
			return
		}
	}
	r.Secrets = append(r.Secrets, secret)
}

func (r *Redactor) Redact(s string) string {
	if r == nil || len(r.Secrets) == 0 {
		return s
	}

	// Longer secrets first so a secret containing another is masked whole.
	secrets := make([]string, len(r.Secrets))
	copy(secrets, r.Secrets)
	sort.Slice(secrets, func(i, j int) bool {
		return len(secrets[i]) > len(secrets[j])
	})

	for _, secret := range secrets {
		s = strings.ReplaceAll(s, secret, mask)
	}
	return s
}
