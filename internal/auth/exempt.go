package auth

import "strings"

// ExemptMatcher decides which request paths skip token inspection.
// Prefixes match on whole path segments: "/auth" matches "/auth" and
// "/auth/login" but not "/authors".
type ExemptMatcher struct {
	prefixes []string
}

// NewExemptMatcher normalizes the configured prefixes.
func NewExemptMatcher(prefixes ...string) ExemptMatcher {
	out := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		p = strings.TrimRight(p, "/")
		if p == "" {
			// "/" exempts everything
			p = "/"
		}
		out = append(out, p)
	}
	return ExemptMatcher{prefixes: out}
}

// Matches reports whether path is exempt.
func (m ExemptMatcher) Matches(path string) bool {
	for _, p := range m.prefixes {
		if p == "/" || path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
