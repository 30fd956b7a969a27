package service

import (
	"fmt"
	"regexp"
	"strings"
)

// EmailPolicy holds the address patterns allowed to sign in. Account provisioning
// applies the same policy so every stored account can log in.
type EmailPolicy struct {
	patterns []*regexp.Regexp
}

// NewEmailPolicy compiles the patterns. An empty list admits any address.
func NewEmailPolicy(patterns []string) (*EmailPolicy, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, raw := range patterns {
		re, err := regexp.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("compile login email pattern %q: %w", raw, err)
		}
		compiled = append(compiled, re)
	}
	return &EmailPolicy{patterns: compiled}, nil
}

// Allows reports whether the normalized address matches any pattern.
func (p *EmailPolicy) Allows(email string) bool {
	if p == nil || len(p.patterns) == 0 {
		return true
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, re := range p.patterns {
		if re.MatchString(email) {
			return true
		}
	}
	return false
}
