// Package descendants builds descent edges from an item's descendants
// block (spec §4.8): an indent-structured tree where depth 0 is the
// current item and each deeper line names a term in a descendant
// language. Descent edges are the inverse of ancestry edges — the line's
// nearest shallower ancestor is the parent, the line itself is the child —
// so every edge this package emits has exactly the same child-is-`from`
// shape as internal/etymology, just discovered from the opposite
// direction.
package descendants

import (
	"strings"

	"github.com/grimmgraph/grimm/internal/diagnostics"
	"github.com/grimmgraph/grimm/internal/entry"
	"github.com/grimmgraph/grimm/internal/graph"
	"github.com/grimmgraph/grimm/internal/intern"
	"github.com/grimmgraph/grimm/internal/items"
	"github.com/grimmgraph/grimm/internal/langref"
	"github.com/grimmgraph/grimm/internal/langscan"
	"github.com/grimmgraph/grimm/internal/model"
	"github.com/grimmgraph/grimm/pkg/disambig"
)

// defaultMode is the mode assigned to a descendants-block line whose
// template names an unrecognized or non-ancestry mode: descent edges are
// always ancestry-class (spec §4.8), so an unrecognized template name
// falls back to the most common real-world case.
const defaultMode = "inherited"

// Builder turns an item's descendants block into graph edges (spec §4.8).
type Builder struct {
	terms     *intern.Table
	modes     *intern.Table
	langTable *langref.Table
	store     *items.Store
	disambig  *disambig.Disambiguator
	graph     *graph.Graph
	scanner   *langscan.Scanner
	counters  *diagnostics.Counters
}

// New builds a descendants Builder. scanner may be nil, in which case a
// line whose template omits its language argument is skipped. langTable
// gates line resolution the same way it gates etymology citations: an
// unrecognized language code is a ReferenceMissing diagnostic, not an
// edge (spec §7).
func New(terms, modes *intern.Table, langTable *langref.Table, store *items.Store, d *disambig.Disambiguator, g *graph.Graph, scanner *langscan.Scanner, counters *diagnostics.Counters) *Builder {
	return &Builder{terms: terms, modes: modes, langTable: langTable, store: store, disambig: d, graph: g, scanner: scanner, counters: counters}
}

// Process walks item's descendants lines in document order, resolving each
// one against the nearest shallower line already placed (spec §4.8's
// indentation rule) and emitting one ancestry-class edge per line.
func (b *Builder) Process(item *model.Item, lines []entry.DescendantLine) {
	stack := []model.ItemID{item.ID} // stack[d] is the item id placed at depth d

	for _, line := range lines {
		depth := line.Depth
		if depth < 1 {
			continue // depth 0 re-describes the block owner, nothing to link
		}
		if depth > len(stack) {
			depth = len(stack) // indentation skipped a level; attach to the deepest known ancestor
		}
		parentID := stack[depth-1]

		lang, term, mode, ok := b.resolveLine(line)
		if !ok {
			continue
		}

		childID, err := b.disambig.Resolve(b.store.Get(parentID), lang, term)
		if err != nil {
			if b.counters != nil {
				b.counters.Record(err)
			}
			continue
		}

		b.graph.AddEdge(model.Edge{From: childID, To: parentID, Mode: mode}, model.AncestryClass, b.counters)
		stack = append(stack[:depth], childID)
	}
}

// resolveLine extracts (lang, term, mode) from one descendants line: the
// term and mode always come from its structured template, the language
// falls back to scanning the line's free text when the template omits it.
func (b *Builder) resolveLine(line entry.DescendantLine) (lang, term, mode intern.ID, ok bool) {
	if len(line.Templates) == 0 {
		return 0, 0, 0, false
	}
	tmpl := line.Templates[0]

	modeName := tmpl.Name
	if class, known := model.ClassOf(modeName); !known || class != model.AncestryClass {
		modeName = defaultMode
	}

	// Standard citation is {{mode|lang|term}}; when the language argument
	// is omitted the lone positional argument is the term itself and the
	// language must come from the scanner instead.
	langStr, _ := tmpl.Arg(1)
	termStr, hasTerm := tmpl.Arg(2)
	if !hasTerm {
		termStr = langStr
		langStr = ""
	}
	termStr = strings.TrimPrefix(strings.TrimSpace(termStr), "*")
	if termStr == "" {
		return 0, 0, 0, false
	}

	if langStr = strings.TrimSpace(langStr); langStr != "" {
		langID, found := b.langTable.Lookup(langStr)
		if !found {
			b.record(diagnostics.New(diagnostics.ReferenceMissing, "descendants: unknown language code %q", langStr))
			return 0, 0, 0, false
		}
		return langID, b.terms.Intern(termStr), b.modes.Intern(modeName), true
	}

	if hint, found := b.scanner.Detect(line.Text); found {
		return hint, b.terms.Intern(termStr), b.modes.Intern(modeName), true
	}
	return 0, 0, 0, false
}

func (b *Builder) record(err error) {
	if b.counters == nil {
		return
	}
	b.counters.Record(err)
}
