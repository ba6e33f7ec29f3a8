// Package entry parses one raw JSON dictionary record into a normalized
// Entry, or reports it should be skipped (spec §4.3). Pure function, no
// I/O, so it can be exercised directly against JSON fixtures.
package entry

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/grimmgraph/grimm/internal/diagnostics"
	"github.com/grimmgraph/grimm/pkg/wikitemplate"
)

type rawForm struct {
	Form string   `json:"form"`
	Tags []string `json:"tags"`
}

type rawSense struct {
	Glosses []string `json:"glosses"`
	Tags    []string `json:"tags"`
	ID      string   `json:"id"`
}

type rawTemplate struct {
	Name      string            `json:"name"`
	Args      map[string]string `json:"args"`
	Expansion string            `json:"expansion"`
}

type rawDescendant struct {
	Depth     int           `json:"depth"`
	Templates []rawTemplate `json:"templates"`
	Text      string        `json:"text"`
}

type rawRecord struct {
	LangCode           string          `json:"lang_code"`
	Word               string          `json:"word"`
	Forms              []rawForm       `json:"forms"`
	EtymologyNumber    *int            `json:"etymology_number"`
	POS                string          `json:"pos"`
	Senses             []rawSense      `json:"senses"`
	EtymologyTemplates []rawTemplate   `json:"etymology_templates"`
	Descendants        []rawDescendant `json:"descendants"`
	Redirect           string          `json:"redirect"`
}

// Sense is one normalized sense: a flattened, newline-joined gloss string
// plus its optional sense key (spec §4.3).
type Sense struct {
	Gloss string
	ID    string
}

// DescendantLine is one line of a descendants indent-tree (spec §4.8).
type DescendantLine struct {
	Depth     int
	Templates []wikitemplate.Template
	Text      string
}

// Entry is the normalized form of one lexical record.
type Entry struct {
	Lang          string
	Term          string // canonical, star prefix stripped (spec §4.3)
	Reconstructed bool
	EtyNumber     int
	POS           string
	Senses        []Sense
	EtyTemplates  []wikitemplate.Template
	Descendants   []DescendantLine
}

// Redirect is a normalized redirect record (spec §4.3).
type Redirect struct {
	From string
	To   string
}

// Parse parses one JSON line. It returns (entry, nil, nil) for a normal
// lexical record, (nil, redirect, nil) for a redirect record, and
// (nil, nil, err) — always a *diagnostics.Error with Kind InputMalformed —
// for a line that should be skipped (spec §4.3, §6, §7).
func Parse(line []byte) (*Entry, *Redirect, error) {
	var raw rawRecord
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, nil, diagnostics.Wrap(diagnostics.InputMalformed, fmt.Errorf("entry: invalid JSON: %w", err))
	}

	if raw.Redirect != "" {
		if raw.Word == "" {
			return nil, nil, diagnostics.New(diagnostics.InputMalformed, "entry: redirect record missing source word")
		}
		return nil, &Redirect{From: normalizeTerm(raw.Word, false), To: normalizeTerm(raw.Redirect, false)}, nil
	}

	if raw.LangCode == "" || raw.Word == "" {
		return nil, nil, diagnostics.New(diagnostics.InputMalformed, "entry: missing lang_code or word")
	}
	if len(raw.Senses) == 0 && len(raw.EtymologyTemplates) == 0 && len(raw.Descendants) == 0 {
		// Category pages, statistics pages, etc. carry no lexical content.
		return nil, nil, diagnostics.New(diagnostics.InputMalformed, "entry: no lexical content, skipping")
	}

	reconstructed, term := resolveHeadword(raw)

	etyNum := 0
	if raw.EtymologyNumber != nil {
		etyNum = *raw.EtymologyNumber
	}

	senses := make([]Sense, 0, len(raw.Senses))
	for _, rs := range raw.Senses {
		if containsTag(rs.Tags, "reconstruction") {
			reconstructed = true
		}
		senses = append(senses, Sense{
			Gloss: strings.Join(rs.Glosses, "\n"),
			ID:    rs.ID,
		})
	}

	templates := make([]wikitemplate.Template, 0, len(raw.EtymologyTemplates))
	for _, rt := range raw.EtymologyTemplates {
		templates = append(templates, wikitemplate.FromRaw(rt.Name, rt.Args, rt.Expansion))
	}

	descendants := make([]DescendantLine, 0, len(raw.Descendants))
	for _, rd := range raw.Descendants {
		dTemplates := make([]wikitemplate.Template, 0, len(rd.Templates))
		for _, rt := range rd.Templates {
			dTemplates = append(dTemplates, wikitemplate.FromRaw(rt.Name, rt.Args, rt.Expansion))
		}
		descendants = append(descendants, DescendantLine{
			Depth:     rd.Depth,
			Templates: dTemplates,
			Text:      rd.Text,
		})
	}

	return &Entry{
		Lang:          raw.LangCode,
		Term:          term,
		Reconstructed: reconstructed,
		EtyNumber:     etyNum,
		POS:           raw.POS,
		Senses:        senses,
		EtyTemplates:  templates,
		Descendants:   descendants,
	}, nil, nil
}

// resolveHeadword picks the canonical stored term: the canonical-tagged
// form when present, else the page word, with any reconstruction star
// stripped and tracked separately (spec §4.3, §9).
func resolveHeadword(raw rawRecord) (reconstructed bool, term string) {
	word := raw.Word
	reconstructed = strings.HasPrefix(strings.TrimSpace(word), "*")

	for _, f := range raw.Forms {
		if containsTag(f.Tags, "canonical") && f.Form != "" {
			return strings.HasPrefix(strings.TrimSpace(f.Form), "*") || reconstructed, normalizeTerm(f.Form, true)
		}
	}
	return reconstructed, normalizeTerm(word, true)
}

func normalizeTerm(s string, stripStar bool) string {
	s = strings.TrimSpace(s)
	if stripStar {
		s = strings.TrimPrefix(s, "*")
	}
	return s
}

func containsTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}
