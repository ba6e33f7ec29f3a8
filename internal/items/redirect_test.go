package items

import (
	"testing"

	"github.com/grimmgraph/grimm/internal/diagnostics"
	"github.com/grimmgraph/grimm/internal/intern"
)

func TestRedirectTableFlattensChain(t *testing.T) {
	terms := intern.New()
	colour := terms.Intern("colour")
	colourUS := terms.Intern("color-us")
	color := terms.Intern("color")

	raw := map[intern.ID]intern.ID{
		colour:   colourUS,
		colourUS: color,
	}
	rt := NewRedirectTable(raw, nil)

	if got := rt.Resolve(colour); got != color {
		t.Fatalf("expected flattened target %d, got %d", color, got)
	}
	if got := rt.Resolve(colourUS); got != color {
		t.Fatalf("expected flattened target %d, got %d", color, got)
	}
	if got := rt.Resolve(color); got != color {
		t.Fatal("expected non-redirect term to resolve to itself")
	}
	if rt.Len() != 2 {
		t.Fatalf("expected 2 redirect sources, got %d", rt.Len())
	}
}

func TestRedirectTableBreaksLoop(t *testing.T) {
	terms := intern.New()
	a := terms.Intern("a")
	b := terms.Intern("b")

	raw := map[intern.ID]intern.ID{a: b, b: a}
	counters := diagnostics.NewCounters()
	rt := NewRedirectTable(raw, counters)

	// Must terminate and record a loop diagnostic rather than hang.
	_ = rt.Resolve(a)
	if counters.Count(diagnostics.RedirectLoop) == 0 {
		t.Fatal("expected redirect loop diagnostic recorded")
	}
}

func TestRedirectTableNilSafe(t *testing.T) {
	var rt *RedirectTable
	terms := intern.New()
	id := terms.Intern("x")
	if rt.Resolve(id) != id {
		t.Fatal("expected nil table to resolve to self")
	}
	if rt.Len() != 0 {
		t.Fatal("expected nil table length 0")
	}
}
