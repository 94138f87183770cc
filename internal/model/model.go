// Package model defines core data structures for gapaudit.
package model

import "sort"

// SymbolSet is a set of identifier names. Names are compared by exact string
// equality; the zero value is not usable, use NewSymbolSet.
type SymbolSet map[string]struct{}

// NewSymbolSet returns a set holding names.
func NewSymbolSet(names ...string) SymbolSet {
	s := make(SymbolSet, len(names))
	s.Add(names...)
	return s
}

// Add inserts names into the set.
func (s SymbolSet) Add(names ...string) {
	for _, n := range names {
		s[n] = struct{}{}
	}
}

// Has reports whether name is in the set.
func (s SymbolSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Len returns the number of names in the set.
func (s SymbolSet) Len() int {
	return len(s)
}

// Merge adds every name of other into s.
func (s SymbolSet) Merge(other SymbolSet) {
	for n := range other {
		s[n] = struct{}{}
	}
}

// Difference returns the names of s that are not in other.
func (s SymbolSet) Difference(other SymbolSet) SymbolSet {
	out := make(SymbolSet)
	for n := range s {
		if !other.Has(n) {
			out[n] = struct{}{}
		}
	}
	return out
}

// Intersect returns the names present in both s and other.
func (s SymbolSet) Intersect(other SymbolSet) SymbolSet {
	out := make(SymbolSet)
	for n := range s {
		if other.Has(n) {
			out[n] = struct{}{}
		}
	}
	return out
}

// Sorted returns the names in ascending byte order. The result is never nil.
func (s SymbolSet) Sorted() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Summary holds the scalar counts of a GapReport.
type Summary struct {
	TotalCodeEntities  int `json:"total_code_entities" yaml:"total_code_entities"`
	TotalSDDEntities   int `json:"total_sdd_entities" yaml:"total_sdd_entities"`
	UndocumentedCount  int `json:"undocumented_count" yaml:"undocumented_count"`
	UnimplementedCount int `json:"unimplemented_count" yaml:"unimplemented_count"`
}

// GapReport is the result of comparing code symbols with document mentions.
// Undocumented holds code symbols the document never mentions; Unimplemented
// holds document mentions with no code symbol. Both are sorted.
type GapReport struct {
	Summary       Summary  `json:"summary" yaml:"summary"`
	Undocumented  []string `json:"undocumented_items_in_code" yaml:"undocumented_items_in_code"`
	Unimplemented []string `json:"unimplemented_items_in_sdd" yaml:"unimplemented_items_in_sdd"`
}
