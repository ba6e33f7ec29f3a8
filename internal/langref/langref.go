// Package langref loads the read-only language & family reference table
// (spec §4.2, §6) and answers ancestry/distance queries against it.
package langref

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/grimmgraph/grimm/internal/intern"
	"github.com/grimmgraph/grimm/internal/model"
)

// Table is the loaded, id-indexed reference table. Immutable after Load
// returns (spec §3 "Immutable after load").
type Table struct {
	terms     *intern.Table // shared language-code interner (spec §4.1)
	byID      []model.Language
	codeToID  map[string]intern.ID
}

// Load reads a tab-delimited reference file: one row per language, columns
//
//	code  name  family  ancestor_chain(comma-separated, immediate parent first)  kind  scripts(comma-separated)  wikidata
//
// matching the "key/value per row" flat file described in spec §6. The
// first N ids of langTable are reserved for these rows (spec §4.1), so
// callers must construct Table before interning anything else into
// langTable.
func Load(r io.Reader, langTable *intern.Table) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.Comment = '#'

	t := &Table{
		terms:    langTable,
		codeToID: make(map[string]intern.ID),
	}

	// Two-pass: first intern every code so ancestor-chain references
	// resolve regardless of row order, then fill in the per-row data.
	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("langref: reading reference table: %w", err)
		}
		if len(rec) < 6 {
			return nil, fmt.Errorf("langref: row %v has %d fields, want >= 6", rec, len(rec))
		}
		rows = append(rows, rec)
		code := strings.TrimSpace(rec[0])
		id := langTable.Intern(code)
		t.codeToID[code] = id
	}

	t.byID = make([]model.Language, langTable.Len())
	for _, rec := range rows {
		code := strings.TrimSpace(rec[0])
		id := t.codeToID[code]

		var ancestry []intern.ID
		if chain := strings.TrimSpace(rec[3]); chain != "" {
			for _, a := range strings.Split(chain, ",") {
				a = strings.TrimSpace(a)
				if a == "" {
					continue
				}
				ancestry = append(ancestry, langTable.Intern(a))
			}
		}

		var scripts []string
		if raw := strings.TrimSpace(rec[5]); raw != "" {
			scripts = strings.Split(raw, ",")
		}

		wikidata := ""
		if len(rec) > 6 {
			wikidata = strings.TrimSpace(rec[6])
		}

		t.byID[id] = model.Language{
			ID:       id,
			Code:     code,
			Name:     strings.TrimSpace(rec[1]),
			Family:   strings.TrimSpace(rec[2]),
			Ancestry: ancestry,
			Kind:     model.LanguageKind(strings.TrimSpace(rec[4])),
			Scripts:  scripts,
			Wikidata: wikidata,
		}
	}

	return t, nil
}

// Lookup resolves an external language code string to its interned id.
func (t *Table) Lookup(code string) (intern.ID, bool) {
	id, ok := t.codeToID[code]
	return id, ok
}

// Get returns the full Language record for id.
func (t *Table) Get(id intern.ID) (model.Language, bool) {
	if int(id) < 0 || int(id) >= len(t.byID) {
		return model.Language{}, false
	}
	lang := t.byID[id]
	if lang.Code == "" {
		return model.Language{}, false
	}
	return lang, true
}

// Ancestors returns lang's ordered proto-language ids, oldest first.
func (t *Table) Ancestors(lang intern.ID) []intern.ID {
	l, ok := t.Get(lang)
	if !ok {
		return nil
	}
	out := make([]intern.ID, len(l.Ancestry))
	for i, id := range l.Ancestry {
		out[len(out)-1-i] = id
	}
	return out
}

// Distance measures relatedness between two languages per spec §4.2:
// 0 for identical languages, 1 for immediate parent/child, larger for
// more distant shared ancestry, and DistanceUnrelated when no ancestor is
// shared. Display/tiebreak use only — the graph itself never depends on it.
func (t *Table) Distance(a, b intern.ID) int {
	if a == b {
		return 0
	}

	chainA := t.fullChain(a)
	chainB := t.fullChain(b)

	// chainX[i] is i steps up from x (chainX[0] == x itself).
	depthA := make(map[intern.ID]int, len(chainA))
	for i, id := range chainA {
		depthA[id] = i
	}

	best := model.DistanceUnrelated
	for i, id := range chainB {
		if stepsFromA, ok := depthA[id]; ok {
			d := stepsFromA + i
			if d < best {
				best = d
			}
		}
	}
	return best
}

// fullChain returns [a, ancestor_n, ..., oldest] i.e. lang itself followed
// by its ancestor chain, used as the walk for common-ancestor search.
func (t *Table) fullChain(lang intern.ID) []intern.ID {
	chain := []intern.ID{lang}
	if l, ok := t.Get(lang); ok {
		chain = append(chain, l.Ancestry...)
	}
	return chain
}
