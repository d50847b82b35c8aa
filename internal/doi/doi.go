// Package doi normalizes DOIs and reconciles DOI sets.
package doi

import (
	"iter"
	"slices"
	"strings"
)

// Normalize lowercases a DOI and trims surrounding whitespace.
// DOIs are case-insensitive, so every comparison goes through this form.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Set is a set of normalized DOIs.
type Set map[string]struct{}

// NewSet builds a Set from the given DOIs, normalizing each one.
// Empty values are ignored.
func NewSet(dois ...string) Set {
	s := make(Set, len(dois))
	for _, d := range dois {
		s.Add(d)
	}
	return s
}

// Add inserts the normalized form of d. Empty values are ignored.
func (s Set) Add(d string) {
	if n := Normalize(d); n != "" {
		s[n] = struct{}{}
	}
}

// Has reports whether d (in normalized form) is in the set.
func (s Set) Has(d string) bool {
	_, ok := s[Normalize(d)]
	return ok
}

// Len returns the number of DOIs in the set.
func (s Set) Len() int {
	return len(s)
}

// Sorted returns the DOIs in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}

// Difference returns the DOIs in s that are absent from other.
func (s Set) Difference(other Set) Set {
	out := make(Set)
	for d := range s {
		if _, ok := other[d]; !ok {
			out[d] = struct{}{}
		}
	}
	return out
}

// Collect drains seq into a Set. It stops at the first error.
func Collect(seq iter.Seq2[string, error]) (Set, error) {
	s := make(Set)
	for d, err := range seq {
		if err != nil {
			return s, err
		}
		s.Add(d)
	}
	return s, nil
}

// Reconciliation is the result of comparing library DOIs against content DOIs.
type Reconciliation struct {
	Library Set
	Content Set
	Missing Set
}

// Reconcile drains both sequences and returns the content DOIs absent from the library.
// Both sides are normalized before comparison.
func Reconcile(library, content iter.Seq2[string, error]) (*Reconciliation, error) {
	lib, err := Collect(library)
	if err != nil {
		return nil, err
	}
	cnt, err := Collect(content)
	if err != nil {
		return nil, err
	}
	return &Reconciliation{
		Library: lib,
		Content: cnt,
		Missing: cnt.Difference(lib),
	}, nil
}

// Values adapts a slice to a sequence with no errors.
func Values(dois []string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, d := range dois {
			if !yield(d, nil) {
				return
			}
		}
	}
}
