package serialize

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph/formats/rdf"

	"github.com/grimmgraph/grimm/internal/diagnostics"
	"github.com/grimmgraph/grimm/internal/graph"
	"github.com/grimmgraph/grimm/internal/intern"
	"github.com/grimmgraph/grimm/internal/items"
	"github.com/grimmgraph/grimm/internal/model"
)

// itemNamespace and modeNamespace are the IRI prefixes items and ety-modes
// are minted under; the graph has no externally assigned URIs of its own,
// so these are synthesized from item/mode ids the same way the reference
// codebase mints blank-node labels for axioms with no external identity.
const (
	itemNamespace = "urn:grimm:item:"
	modeNamespace = "urn:grimm:mode:"
)

// WriteTurtle writes one RDF statement per edge, ety-mode as predicate
// (spec §4.10), gzip-compressed when path ends in ".gz". Built on
// gonum.org/v1/gonum/graph/formats/rdf's term constructors, grounded on
// kortschak-smeargol/internal/owl/model.go's
// rdf.NewIRITerm/rdf.Statement usage — that codebase only ever decodes
// OWL/RDF, this is the same term-construction half run in reverse to
// produce statements instead of consume them.
func WriteTurtle(path string, store *items.Store, g *graph.Graph, modes *intern.Table) error {
	w, closeFn, err := create(path)
	if err != nil {
		return err
	}

	for _, stmt := range turtleStatements(store, g, modes) {
		if _, err := fmt.Fprintln(w, stmt.String()); err != nil {
			abort(path)
			return diagnostics.Wrap(diagnostics.IoError, err)
		}
	}
	return closeFn()
}

func turtleStatements(store *items.Store, g *graph.Graph, modes *intern.Table) []*rdf.Statement {
	edges := g.Edges()
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		if edges[i].Mode != edges[j].Mode {
			return edges[i].Mode < edges[j].Mode
		}
		return edges[i].Order < edges[j].Order
	})

	stmts := make([]*rdf.Statement, 0, len(edges))
	for _, e := range edges {
		from := store.Resolve(e.From)
		to := store.Resolve(e.To)

		subj, err := rdf.NewIRITerm(itemIRI(from))
		if err != nil {
			continue
		}
		pred, err := rdf.NewIRITerm(modeNamespace + modes.Resolve(e.Mode))
		if err != nil {
			continue
		}
		obj, err := rdf.NewIRITerm(itemIRI(to))
		if err != nil {
			continue
		}
		stmts = append(stmts, &rdf.Statement{Subject: subj, Predicate: pred, Object: obj})
	}
	return stmts
}

func itemIRI(id model.ItemID) string {
	return fmt.Sprintf("%s%d", itemNamespace, id)
}
