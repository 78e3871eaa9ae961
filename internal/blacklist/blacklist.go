package blacklist

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
)

// ErrBlacklistNotFound is returned by Load when the blacklist file does not exist.
// A missing blacklist is not fatal: callers continue with an empty Filter.
var ErrBlacklistNotFound = errors.New("blacklist file not found")

// Filter matches URLs against substring patterns.
// The zero value and a Filter built from no patterns never match.
type Filter struct {
	patterns []string
	folded   []string
}

// New creates a Filter from patterns. Patterns are trimmed and empty
// patterns are dropped, so a stray blank entry cannot match every URL.
func New(patterns ...string) *Filter {
	f := &Filter{
		patterns: make([]string, 0, len(patterns)),
		folded:   make([]string, 0, len(patterns)),
	}
	for _, p := range patterns {
		f.add(p)
	}
	return f
}

// Load reads a blacklist file with one pattern per line.
// Lines are trimmed and blank lines are ignored.
func Load(path string) (*Filter, error) {
	file, err := os.Open(path) //nolint:gosec // User-provided blacklist path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return New(), ErrBlacklistNotFound
		}
		return New(), fmt.Errorf("failed to open blacklist: %w", err)
	}
	defer file.Close()

	f := New()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		f.add(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return f, fmt.Errorf("failed to read blacklist: %w", err)
	}
	return f, nil
}

// Extend returns a new Filter holding the patterns of f followed by extra.
func (f *Filter) Extend(extra ...string) *Filter {
	out := New(f.Patterns()...)
	for _, p := range extra {
		out.add(p)
	}
	return out
}

// IsBlacklisted reports whether any pattern occurs in rawURL.
func (f *Filter) IsBlacklisted(rawURL string) bool {
	if f == nil || len(f.folded) == 0 {
		return false
	}
	target := fold(rawURL)
	for _, p := range f.folded {
		if strings.Contains(target, p) {
			return true
		}
	}
	return false
}

// Len returns the number of patterns.
func (f *Filter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.patterns)
}

// Patterns returns a copy of the patterns as they were given.
func (f *Filter) Patterns() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.patterns))
	copy(out, f.patterns)
	return out
}

func (f *Filter) add(pattern string) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return
	}
	f.patterns = append(f.patterns, pattern)
	f.folded = append(f.folded, fold(pattern))
}

// fold applies Unicode case folding. A Caser keeps state between calls,
// so a fresh one is used each time.
func fold(s string) string {
	return cases.Fold().String(s)
}
