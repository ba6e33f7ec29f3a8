// Package etymology builds ancestry and compositional edges from an item's
// ety templates (spec §4.7): pick the first applicable template, classify
// it by mode, resolve each cited (lang, term) through the disambiguator,
// and insert the resulting edges into the graph.
//
// Grounded on the reference codebase's pkg/scanner/discovery/engine.go
// "observe, classify, emit" loop shape: each template is observed, its
// mode classified via model.ClassOf, and edges emitted one citation at a
// time, same as that engine observes tokens, classifies relations, and
// emits them to a registry.
package etymology

import (
	"strings"

	"github.com/grimmgraph/grimm/internal/diagnostics"
	"github.com/grimmgraph/grimm/internal/graph"
	"github.com/grimmgraph/grimm/internal/intern"
	"github.com/grimmgraph/grimm/internal/items"
	"github.com/grimmgraph/grimm/internal/langref"
	"github.com/grimmgraph/grimm/internal/model"
	"github.com/grimmgraph/grimm/pkg/disambig"
	"github.com/grimmgraph/grimm/pkg/wikitemplate"
)

// Builder turns an item's ety templates into graph edges (spec §4.7).
type Builder struct {
	terms     *intern.Table
	modes     *intern.Table
	langTable *langref.Table
	store     *items.Store
	disambig  *disambig.Disambiguator
	graph     *graph.Graph
	counters  *diagnostics.Counters
}

// New builds an etymology Builder. terms is the shared interner used
// everywhere else (spec §4.1); modes is a dedicated interner for ety-mode
// tag strings. langTable gates citation resolution: a citation whose
// language code isn't in the reference table is a ReferenceMissing
// diagnostic, not a graph edge (spec §7).
func New(terms, modes *intern.Table, langTable *langref.Table, store *items.Store, d *disambig.Disambiguator, g *graph.Graph, counters *diagnostics.Counters) *Builder {
	return &Builder{terms: terms, modes: modes, langTable: langTable, store: store, disambig: d, graph: g, counters: counters}
}

// Process applies spec §4.7's first-applicable-template rule to item's ety
// templates and emits the resulting edges into the graph.
func (b *Builder) Process(item *model.Item, templates []wikitemplate.Template) {
	tmpl, class, ok := firstApplicable(templates)
	if !ok {
		return
	}

	switch class {
	case model.AncestryClass:
		b.processAncestry(item, tmpl)
	case model.CompositionalClass:
		b.processCompositional(item, tmpl)
	}
}

// firstApplicable returns the first template whose name is a recognized
// ety mode, ignoring the rest (spec §4.7 step 1, §9).
func firstApplicable(templates []wikitemplate.Template) (wikitemplate.Template, model.ModeClass, bool) {
	for _, t := range templates {
		if class, ok := model.ClassOf(t.Name); ok {
			return t, class, true
		}
	}
	return wikitemplate.Template{}, 0, false
}

// processAncestry walks the template's citation chain (spec §4.7 step 2):
// the first step is item's immediate parent, each following step is the
// previous step's own parent, every link resolved through the
// disambiguator and inserted as a single-parent ancestry edge.
func (b *Builder) processAncestry(item *model.Item, tmpl wikitemplate.Template) {
	chain := tmpl.Chain()
	if len(chain) == 0 {
		return
	}

	mode := b.modes.Intern(tmpl.Name)
	childID := item.ID
	ctx := item

	for _, lt := range chain {
		parentLang, parentTerm, ok := b.internCitation(lt)
		if !ok {
			continue
		}

		parentID, err := b.disambig.Resolve(ctx, parentLang, parentTerm)
		if err != nil {
			b.record(err)
			return
		}

		b.graph.AddEdge(model.Edge{From: childID, To: parentID, Mode: mode}, model.AncestryClass, b.counters)

		childID = parentID
		ctx = b.store.Get(parentID)
	}
}

// processCompositional resolves every ordered component (spec §4.7 step
// 2) and inserts one compositional edge per component, order-index
// matching its left-to-right position in the source template.
func (b *Builder) processCompositional(item *model.Item, tmpl wikitemplate.Template) {
	mode := b.modes.Intern(tmpl.Name)

	for order, lt := range tmpl.Components() {
		lang, term, ok := b.internCitation(lt)
		if !ok {
			continue
		}

		componentID, err := b.disambig.Resolve(item, lang, term)
		if err != nil {
			b.record(err)
			continue
		}

		b.graph.AddEdge(model.Edge{From: item.ID, To: componentID, Mode: mode, Order: order}, model.CompositionalClass, b.counters)
	}
}

// internCitation resolves a template citation's language code against the
// reference table and interns the term, stripping the reconstruction star
// the same way entry parsing does (spec §4.3) so the same surface term
// always maps to the same term id. A language code absent from langTable
// is recorded as ReferenceMissing and the citation is skipped (spec §7).
func (b *Builder) internCitation(lt wikitemplate.LangTerm) (lang, term intern.ID, ok bool) {
	langStr := strings.TrimSpace(lt.Lang)
	termStr := strings.TrimPrefix(strings.TrimSpace(lt.Term), "*")
	if langStr == "" || termStr == "" {
		return 0, 0, false
	}
	langID, found := b.langTable.Lookup(langStr)
	if !found {
		b.record(diagnostics.New(diagnostics.ReferenceMissing, "etymology: unknown language code %q", langStr))
		return 0, 0, false
	}
	return langID, b.terms.Intern(termStr), true
}

func (b *Builder) record(err error) {
	if b.counters == nil {
		return
	}
	b.counters.Record(err)
}
