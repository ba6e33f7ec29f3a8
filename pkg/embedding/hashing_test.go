package embedding

import (
	"math"
	"testing"
)

func TestHashingModelDeterministic(t *testing.T) {
	m1 := NewHashingModel(16, 42)
	m2 := NewHashingModel(16, 42)

	v1, err := m1.Embed([]string{"verb: to shine with heat"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v2, err := m2.Embed([]string{"verb: to shine with heat"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v1[0]) != 16 || len(v2[0]) != 16 {
		t.Fatalf("expected dim 16, got %d and %d", len(v1[0]), len(v2[0]))
	}
	for i := range v1[0] {
		if v1[0][i] != v2[0][i] {
			t.Fatalf("expected identical seeds to produce identical vectors at %d: %v != %v", i, v1[0][i], v2[0][i])
		}
	}
}

func TestHashingModelL2Normalized(t *testing.T) {
	m := NewHashingModel(8, 1)
	vecs, err := m.Embed([]string{"noun: a river bank", "noun: a financial institution"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, v := range vecs {
		var sumSq float64
		for _, x := range v {
			sumSq += float64(x) * float64(x)
		}
		norm := math.Sqrt(sumSq)
		if math.Abs(norm-1.0) > 1e-4 {
			t.Fatalf("expected unit norm, got %f", norm)
		}
	}
}

func TestHashingModelDistinctTextsDiffer(t *testing.T) {
	m := NewHashingModel(32, 7)
	vecs, err := m.Embed([]string{"verb: to shine brightly", "noun: a domesticated canine"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vecsEqual(vecs[0], vecs[1]) {
		t.Fatal("expected distinct texts to produce distinct vectors")
	}
}

func vecsEqual(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
