// Package langscan recovers a language hint from free-form descendant-line
// text (spec §4.8) by matching against every known language name with a
// single Aho-Corasick automaton, built once at startup.
//
// Grounded on the reference codebase's implicit-matcher
// (pkg/implicit-matcher/dictionary.go): the same
// ahocorasick.NewBuilder().AddStrings(...).SetMatchKind(LeftmostLongest).
// SetPrefilter(true).Build() construction, and the same
// FindAllOverlapping-then-pick-longest scan idiom, applied here to
// language names instead of registered story entities.
package langscan

import (
	"github.com/coregx/ahocorasick"

	"github.com/grimmgraph/grimm/internal/intern"
	"github.com/grimmgraph/grimm/internal/langref"
	"github.com/grimmgraph/grimm/internal/textnorm"
)

// Scanner matches canonicalized text against every known language name.
type Scanner struct {
	ac            *ahocorasick.Automaton
	patternToLang []intern.ID
}

// Build constructs a Scanner from every language the reference table
// knows about. langs must be the same interner langref.Load populated, so
// the ids this scanner returns line up with the rest of the pipeline.
func Build(table *langref.Table, langs *intern.Table) (*Scanner, error) {
	var patterns []string
	var ids []intern.ID

	n := langs.Len()
	for i := 0; i < n; i++ {
		id := intern.ID(i)
		lang, ok := table.Get(id)
		if !ok || lang.Name == "" {
			continue
		}
		pattern := textnorm.Canonicalize(lang.Name)
		if pattern == "" {
			continue
		}
		patterns = append(patterns, pattern)
		ids = append(ids, id)
	}

	automaton, err := ahocorasick.NewBuilder().
		AddStrings(patterns).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, err
	}

	return &Scanner{ac: automaton, patternToLang: ids}, nil
}

// Detect returns the longest language-name match found in text, canonicalized
// the same way the automaton's patterns were built.
func (s *Scanner) Detect(text string) (intern.ID, bool) {
	if s == nil || s.ac == nil {
		return 0, false
	}

	haystack := []byte(textnorm.Canonicalize(text))
	matches := s.ac.FindAllOverlapping(haystack)
	if len(matches) == 0 {
		return 0, false
	}

	best := matches[0]
	for _, m := range matches[1:] {
		if (m.End - m.Start) > (best.End - best.Start) {
			best = m
		}
	}
	return s.patternToLang[best.PatternID], true
}
