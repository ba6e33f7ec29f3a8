package embedding

import (
	"strings"

	"github.com/grimmgraph/grimm/internal/model"
)

// CanonicalText builds the deterministic text fed to embed(), per spec
// §4.6: one "<POS>: <gloss>" line per sense in store order (already sense-
// index order, since items.Store.Upsert appends senses in parse order),
// joined by newlines; empty when the item carries no glosses.
func CanonicalText(it *model.Item) string {
	lines := make([]string, 0, len(it.Senses))
	for _, s := range it.Senses {
		if s.Gloss == "" {
			continue
		}
		lines = append(lines, s.POS+": "+s.Gloss)
	}
	return strings.Join(lines, "\n")
}

// VectorSource adapts Service to pkg/disambig.VectorSource: an item with
// no glosses (real items with none, and every imputed item) reports no
// usable embedding rather than asking the model to embed an empty string.
type VectorSource struct {
	svc *Service
}

// NewVectorSource wraps svc for use as a disambig.VectorSource.
func NewVectorSource(svc *Service) *VectorSource {
	return &VectorSource{svc: svc}
}

// Vector implements pkg/disambig.VectorSource.
func (v *VectorSource) Vector(it *model.Item) ([]float32, bool, error) {
	text := CanonicalText(it)
	if text == "" {
		return nil, false, nil
	}
	vec, err := v.svc.Embed(text)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

// CosineDistance implements pkg/disambig.CosineDistancer: when both items
// carry glosses, the comparison runs entirely inside sqlite-vec via
// vec_distance_cosine instead of a Go loop. ok is false only when one of
// the items has no usable canonical text, matching Vector's contract.
func (v *VectorSource) CosineDistance(ctx, candidate *model.Item) (float64, bool, error) {
	textA, textB := CanonicalText(ctx), CanonicalText(candidate)
	if textA == "" || textB == "" {
		return 0, false, nil
	}
	dist, err := v.svc.CosineDistance(textA, textB)
	if err != nil {
		return 0, false, err
	}
	return dist, true, nil
}
