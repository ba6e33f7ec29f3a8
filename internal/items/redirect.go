package items

import (
	"github.com/grimmgraph/grimm/internal/diagnostics"
	"github.com/grimmgraph/grimm/internal/intern"
)

// RedirectTable maps a source term to its flattened target (spec §3, §4.3).
// Chains are flattened once in NewRedirectTable so Resolve is always O(1) and
// idempotent in at most one step (spec §3, testable property #3).
type RedirectTable struct {
	flat map[intern.ID]intern.ID
}

// NewRedirectTable flattens raw (from, to) pairs into single-step redirects.
// A cycle among redirects is broken at an arbitrary point and counted as a
// RedirectLoop diagnostic rather than looping forever.
func NewRedirectTable(raw map[intern.ID]intern.ID, counters *diagnostics.Counters) *RedirectTable {
	flat := make(map[intern.ID]intern.ID, len(raw))
	for from := range raw {
		target := from
		seen := map[intern.ID]bool{}
		for {
			next, ok := raw[target]
			if !ok {
				break
			}
			if seen[next] {
				if counters != nil {
					counters.Record(diagnostics.New(diagnostics.RedirectLoop, "redirect loop detected at id %d", next))
				}
				break
			}
			seen[target] = true
			target = next
		}
		flat[from] = target
	}
	return &RedirectTable{flat: flat}
}

// Resolve returns term's flattened redirect target, or term itself if it
// is not a redirect source.
func (rt *RedirectTable) Resolve(term intern.ID) intern.ID {
	if rt == nil {
		return term
	}
	if target, ok := rt.flat[term]; ok {
		return target
	}
	return term
}

// Len reports how many redirect sources are recorded.
func (rt *RedirectTable) Len() int {
	if rt == nil {
		return 0
	}
	return len(rt.flat)
}
