package transport

import "strings"

// Filter decides which serial ports are candidates for adapter probing.
//
// Matching rules:
//  1. A port containing any include pattern is accepted immediately.
//     Exclude patterns are not consulted for included ports.
//  2. Otherwise a port containing any exclude pattern is rejected.
//  3. Ports matching neither list are rejected.
//
// Patterns are plain substrings, not globs. Empty patterns are ignored.
type Filter struct {
	Include []string
	Exclude []string
}

// NewFilter builds a Filter, dropping empty patterns.
func NewFilter(include, exclude []string) Filter {
	return Filter{
		Include: nonEmpty(include),
		Exclude: nonEmpty(exclude),
	}
}

// Match reports whether the given port path passes the filter.
func (f Filter) Match(port string) bool {
	for _, p := range f.Include {
		if strings.Contains(port, p) {
			return true
		}
	}
	for _, p := range f.Exclude {
		if strings.Contains(port, p) {
			return false
		}
	}
	return false
}

// Apply returns the subset of ports that pass the filter, preserving order.
func (f Filter) Apply(ports []string) []string {
	matched := make([]string, 0, len(ports))
	for _, port := range ports {
		if f.Match(port) {
			matched = append(matched, port)
		}
	}
	return matched
}

// nonEmpty drops blank patterns and strips a trailing "*" so glob-style
// entries like "/dev/ttyUSB*" behave as the substring they intend.
func nonEmpty(patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		trimmed := strings.TrimSuffix(strings.TrimSpace(p), "*")
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
