// Package disambig implements the sense disambiguator (spec §4.6): given a
// citing context item and a cited (lang, term), pick the most plausible
// candidate from the disambiguation group by cosine similarity of gloss
// embeddings, falling back to a stable tiebreak when no embedding is
// usable.
//
// Grounded on the reference codebase's resolver.Resolver (pkg/scanner/
// resolver/resolver.go): a registry of candidates, scored against a
// context, highest score wins with a documented fallback. Its BM25-style
// ResoRank scorer has no place here — candidates are compared by cosine
// similarity of cached embeddings instead, per spec §4.6 — but the
// "register candidates, resolve against context, explicit fallback" shape
// is preserved directly.
package disambig

import (
	"math"

	"github.com/grimmgraph/grimm/internal/intern"
	"github.com/grimmgraph/grimm/internal/items"
	"github.com/grimmgraph/grimm/internal/model"
)

// VectorSource supplies the gloss/POS embedding for an item, per the
// canonical-text rule of spec §4.6. ok is false when the item has no
// usable embedding (e.g. an imputed item with no senses).
type VectorSource interface {
	Vector(item *model.Item) (vec []float32, ok bool, err error)
}

// CosineDistancer is an optional capability of a VectorSource backed by a
// store that can compare two embedded items without pulling either vector
// into Go (spec §4.6's cosine-similarity step, computed by sqlite-vec).
// ok is false when either item has no usable embedding; Resolve then
// skips that candidate, the same as when Vector reports ok=false.
type CosineDistancer interface {
	CosineDistance(ctx, candidate *model.Item) (dist float64, ok bool, err error)
}

// Disambiguator resolves ety citations to item ids (spec §4.6).
type Disambiguator struct {
	store     *items.Store
	redirects *items.RedirectTable
	vectors   VectorSource
}

// New builds a Disambiguator over store, following redirects via
// redirects (may be nil) and resolving context/candidate embeddings via
// vectors.
func New(store *items.Store, redirects *items.RedirectTable, vectors VectorSource) *Disambiguator {
	return &Disambiguator{store: store, redirects: redirects, vectors: vectors}
}

// Resolve implements spec §4.6 steps 1-4: redirect, group lookup (imputing
// on demand), cosine-similarity pick, ety-number fallback.
func (d *Disambiguator) Resolve(ctx *model.Item, lang, term intern.ID) (model.ItemID, error) {
	term = d.redirects.Resolve(term)
	group := d.store.ResolveOrImpute(lang, term)

	if len(group) == 1 {
		return group[0], nil
	}

	ctxVec, ok, err := d.vectors.Vector(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return lowestEtyNumber(d.store, group), nil
	}

	cd, hasCosineDistancer := d.vectors.(CosineDistancer)

	best := model.ItemID(-1)
	bestSim := math.Inf(-1)
	bestEty := 0
	for _, id := range group {
		it := d.store.Get(id)

		var sim float64
		if hasCosineDistancer {
			dist, ok, err := cd.CosineDistance(ctx, it)
			if err != nil {
				return 0, err
			}
			if !ok {
				continue
			}
			sim = 1 - dist
		} else {
			vec, ok, err := d.vectors.Vector(it)
			if err != nil {
				return 0, err
			}
			if !ok {
				continue
			}
			sim = cosine(ctxVec, vec)
		}

		if best < 0 || sim > bestSim || (sim == bestSim && it.EtyNumber < bestEty) {
			best, bestSim, bestEty = id, sim, it.EtyNumber
		}
	}

	if best < 0 {
		return lowestEtyNumber(d.store, group), nil
	}
	return best, nil
}

func lowestEtyNumber(store *items.Store, group []model.ItemID) model.ItemID {
	best := group[0]
	bestEty := store.Get(best).EtyNumber
	for _, id := range group[1:] {
		if ety := store.Get(id).EtyNumber; ety < bestEty {
			best, bestEty = id, ety
		}
	}
	return best
}

func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
