// Package security keeps secrets out of pigram's log output.
package security

import (
	"regexp"
	"strings"
	"sync"
)

// RedactPlaceholder is the replacement string for redacted secrets.
const RedactPlaceholder = "***REDACTED***"

// Redactor replaces secret values in strings with a redaction placeholder.
// Known token formats are matched by pattern; credentials loaded at runtime
// (api hash, bot token, proxy password) are matched literally.
// All methods are safe for concurrent use.
type Redactor struct {
	mu       sync.RWMutex
	patterns []*regexp.Regexp
	literals []string
}

// NewRedactor creates a Redactor with DefaultPatterns and the given literals.
func NewRedactor(literals ...string) *Redactor {
	r := &Redactor{patterns: DefaultPatterns()}
	for _, l := range literals {
		r.AddLiteral(l)
	}
	return r
}

// AddPattern adds a compiled regex pattern to the redactor.
func (r *Redactor) AddPattern(pattern *regexp.Regexp) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns = append(r.patterns, pattern)
}

// AddLiteral adds a literal secret value that should be redacted on sight.
// Values shorter than four characters are ignored; they would mangle
// unrelated text.
func (r *Redactor) AddLiteral(secret string) {
	if len(secret) < 4 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.literals = append(r.literals, secret)
}

// Redact replaces all known secret patterns and literal values in s
// with RedactPlaceholder.
func (r *Redactor) Redact(s string) string {
	if s == "" {
		return s
	}

	r.mu.RLock()
	patterns := r.patterns
	literals := r.literals
	r.mu.RUnlock()

	for _, lit := range literals {
		if strings.Contains(s, lit) {
			s = strings.ReplaceAll(s, lit, RedactPlaceholder)
		}
	}
	for _, p := range patterns {
		if p.NumSubexp() > 0 {
			s = p.ReplaceAllString(s, "${1}"+RedactPlaceholder+"@")
			continue
		}
		s = p.ReplaceAllString(s, RedactPlaceholder)
	}
	return s
}

// DefaultPatterns returns compiled regex patterns for Telegram secrets that
// can show up in errors and URLs. A pattern with a capture group keeps the
// group and redacts the rest of the match.
func DefaultPatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		// Bot API token: <bot id>:<35 char secret>, also inside /bot<token>/ URLs.
		regexp.MustCompile(`\d{6,12}:[A-Za-z0-9_-]{30,}`),
		// Password part of a proxy URL.
		regexp.MustCompile(`(?i)(socks5h?://[^:/@\s]+:)[^@\s]+@`),
	}
}
