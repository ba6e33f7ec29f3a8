// Package graph implements the typed directed multigraph core (spec
// §4.9): every ancestry and compositional edge lives in a
// gonum.org/v1/gonum/graph/multi.DirectedGraph so order-index and mode
// survive as edge attributes, while a parallel
// gonum.org/v1/gonum/graph/simple.DirectedGraph mirrors only the
// primary-parent ancestry projection (spec §3's acyclicity invariant) and
// is what graph/topo checks for cycles.
//
// Grounded on kortschak-smeargol's ontology-graph use of the gonum graph
// stack (cmd/smeargol/topology.go, internal/owl): BreadthFirst traversals
// over a directed graph wrapped to reverse edge direction on demand, the
// same technique this package's Descendants uses.
package graph

import (
	"sync"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/multi"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/grimmgraph/grimm/internal/diagnostics"
	"github.com/grimmgraph/grimm/internal/intern"
	"github.com/grimmgraph/grimm/internal/model"
)

// node adapts a model.ItemID to graph.Node.
type node int64

func (n node) ID() int64 { return int64(n) }

// line is one edge of the full multigraph: ancestry or compositional,
// carrying the mode and order-index the public graph API exposes.
type line struct {
	f, t  node
	uid   int64
	mode  intern.ID
	order int
}

func (l line) From() graph.Node         { return l.f }
func (l line) To() graph.Node           { return l.t }
func (l line) ID() int64                { return l.uid }
func (l line) ReversedLine() graph.Line { return line{f: l.t, t: l.f, uid: l.uid, mode: l.mode, order: l.order} }

// Graph is the item-id-keyed multigraph described in spec §4.9.
type Graph struct {
	mu sync.Mutex

	// full is the complete edge set (ancestry + compositional): every
	// edge is a distinct parallel line so order-index and mode survive
	// as attributes even between the same two items.
	full *multi.DirectedGraph

	// ancestry mirrors the acyclicity-checked projection: ancestry-mode
	// edges directly, compositional edges collapsed to their primary
	// (order 0) parent, per spec §3's invariant definition.
	ancestry *simple.DirectedGraph

	nextLineID int64
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		full:     multi.NewDirectedGraph(),
		ancestry: simple.NewDirectedGraph(),
	}
}

func (g *Graph) ensureFullNode(id model.ItemID) {
	n := node(id)
	if g.full.Node(n.ID()) == nil {
		g.full.AddNode(n)
	}
}

func (g *Graph) ensureAncestryNode(id model.ItemID) {
	n := node(id)
	if g.ancestry.Node(n.ID()) == nil {
		g.ancestry.AddNode(n)
	}
}

// AddEdge implements spec §4.9's add_edge plus the acyclicity check from
// §4.7 step 3 / §4.8: for an ancestry-mode edge, the edge is rejected
// (ok=false, a CycleViolation diagnostic recorded) if inserting it would
// create a cycle in the ancestry projection. Compositional edges are
// always accepted into the full edge set; when order is 0 (the primary
// parent) they are also projected into the ancestry graph for future
// cycle checks, matching spec §3's "collapsing compositional edges to
// their primary parent" invariant definition.
func (g *Graph) AddEdge(e model.Edge, class model.ModeClass, counters *diagnostics.Counters) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	from, to := node(e.From), node(e.To)

	if class == model.AncestryClass {
		g.ensureAncestryNode(e.From)
		g.ensureAncestryNode(e.To)

		if g.wouldCycle(from, to) {
			if counters != nil {
				counters.Record(diagnostics.New(diagnostics.CycleViolation,
					"ancestry edge %d->%d would create a cycle", e.From, e.To))
			}
			return false
		}
		g.ancestry.SetEdge(simple.Edge{F: from, T: to})
	} else if e.Order == 0 {
		g.ensureAncestryNode(e.From)
		g.ensureAncestryNode(e.To)
		// Best-effort projection only: spec's cycle-rejection rule (§4.7
		// step 3) names ancestry edges explicitly, so a would-be cycle
		// among primary-parent projections of compositional edges is
		// recorded but does not drop the real edge.
		if g.wouldCycle(from, to) {
			if counters != nil {
				counters.Record(diagnostics.New(diagnostics.CycleViolation,
					"primary-parent projection %d->%d would create a cycle", e.From, e.To))
			}
		} else {
			g.ancestry.SetEdge(simple.Edge{F: from, T: to})
		}
	}

	g.ensureFullNode(e.From)
	g.ensureFullNode(e.To)
	g.nextLineID++
	g.full.SetLine(line{f: from, t: to, uid: g.nextLineID, mode: e.Mode, order: e.Order})
	return true
}

// wouldCycle reports whether adding from->to to g.ancestry would create a
// cycle. Callers hold g.mu.
func (g *Graph) wouldCycle(from, to node) bool {
	if g.ancestry.HasEdgeFromTo(from.ID(), to.ID()) {
		return false // already present, no new cycle introduced
	}
	g.ancestry.SetEdge(simple.Edge{F: from, T: to})
	cycles := topo.DirectedCyclesIn(g.ancestry)
	g.ancestry.RemoveEdge(from.ID(), to.ID())
	return len(cycles) > 0
}

// HasAncestryCycleIfAdded implements spec §4.9's has_ancestry_cycle_if_added.
func (g *Graph) HasAncestryCycleIfAdded(from, to model.ItemID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ensureAncestryNode(from)
	g.ensureAncestryNode(to)
	return g.wouldCycle(node(from), node(to))
}

// Edges returns every edge in the full multigraph. Order across distinct
// (from, to) pairs is not significant; order-index is carried as an edge
// attribute for the serializer to sort by.
func (g *Graph) Edges() []model.Edge {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []model.Edge
	nodes := g.full.Nodes()
	for nodes.Next() {
		u := nodes.Node()
		succ := g.full.From(u.ID())
		for succ.Next() {
			v := succ.Node()
			lines := g.full.Lines(u.ID(), v.ID())
			for lines.Next() {
				l := lines.Line().(line)
				out = append(out, model.Edge{From: model.ItemID(l.f), To: model.ItemID(l.t), Mode: l.mode, Order: l.order})
			}
		}
	}
	return out
}

// reverseAncestry presents g.ancestry with edge direction flipped, so
// traverse.BreadthFirst walking "From" actually walks what AddEdge
// recorded as "To" — i.e. descendants instead of ancestors. Grounded on
// kortschak-smeargol/cmd/smeargol/topology.go's identical `reverse` type.
type reverseAncestry struct {
	g *simple.DirectedGraph
}

func (r reverseAncestry) Node(id int64) graph.Node       { return r.g.Node(id) }
func (r reverseAncestry) Nodes() graph.Nodes             { return r.g.Nodes() }
func (r reverseAncestry) From(id int64) graph.Nodes      { return r.g.To(id) }
func (r reverseAncestry) HasEdgeBetween(x, y int64) bool { return r.g.HasEdgeBetween(x, y) }
func (r reverseAncestry) Edge(uid, vid int64) graph.Edge { return r.g.Edge(vid, uid) }

// Filter restricts a traversal by maximum hop distance and/or language
// membership. MaxDistance <= 0 means unbounded. Langs == nil means no
// language restriction.
type Filter struct {
	MaxDistance int
	Langs       map[intern.ID]bool
}

func (f Filter) accepts(depth int, lang intern.ID) bool {
	if f.MaxDistance > 0 && depth > f.MaxDistance {
		return false
	}
	if f.Langs != nil && !f.Langs[lang] {
		return false
	}
	return true
}

// LangOf resolves an item to its language id, supplied by the caller so
// this package stays decoupled from internal/items.
type LangOf func(model.ItemID) intern.ID

// Ancestors walks the ancestry projection outward from item (spec §4.9
// ancestors(item, filter)).
func (g *Graph) Ancestors(item model.ItemID, filter Filter, langOf LangOf) []model.ItemID {
	return g.walk(g.ancestry, item, filter, langOf)
}

// Descendants walks the ancestry projection in reverse from item (spec
// §4.9 descendants(item, filter)).
func (g *Graph) Descendants(item model.ItemID, filter Filter, langOf LangOf) []model.ItemID {
	return g.walk(reverseAncestry{g.ancestry}, item, filter, langOf)
}

func (g *Graph) walk(gr traverse.Graph, item model.ItemID, filter Filter, langOf LangOf) []model.ItemID {
	g.mu.Lock()
	defer g.mu.Unlock()

	start := g.ancestry.Node(int64(item))
	if start == nil {
		return nil
	}

	var out []model.ItemID
	bf := traverse.BreadthFirst{}
	bf.Walk(gr, start, func(n graph.Node, depth int) bool {
		id := model.ItemID(n.ID())
		if id == item {
			return false
		}
		if !filter.accepts(depth, langOf(id)) {
			return false
		}
		out = append(out, id)
		return false
	})
	return out
}

// Cognates implements spec §4.9's cognates(item, distLang, descLangs):
// items reachable by walking up to distLang ancestry hops and back down
// into descLangs, excluding item itself. Grounded on the same
// BreadthFirst-from-roots pattern as kortschak-smeargol's leafiestFor.
func (g *Graph) Cognates(item model.ItemID, distLang int, descLangs map[intern.ID]bool, langOf LangOf) []model.ItemID {
	ancestors := g.Ancestors(item, Filter{MaxDistance: distLang}, langOf)

	seen := map[model.ItemID]bool{item: true}
	var out []model.ItemID
	for _, a := range ancestors {
		for _, d := range g.Descendants(a, Filter{Langs: descLangs}, langOf) {
			if !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	return out
}
