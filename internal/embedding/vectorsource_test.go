package embedding

import (
	"testing"

	"github.com/grimmgraph/grimm/internal/model"
	"github.com/grimmgraph/grimm/pkg/embedding"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	cache, err := Open(":memory:", "hashing-v1", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := embedding.NewHashingModel(4, 99)
	batcher := embedding.NewBatcher(m, 8, nil)
	return NewService(cache, batcher)
}

func TestCanonicalTextJoinsSensesInOrder(t *testing.T) {
	it := &model.Item{Senses: []model.Sense{
		{POS: "noun", Gloss: "a burning light"},
		{POS: "verb", Gloss: "to shine brightly"},
	}}
	want := "noun: a burning light\nverb: to shine brightly"
	if got := CanonicalText(it); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCanonicalTextSkipsEmptyGlosses(t *testing.T) {
	it := &model.Item{Senses: []model.Sense{
		{POS: "noun", Gloss: ""},
		{POS: "verb", Gloss: "to shine brightly"},
	}}
	want := "verb: to shine brightly"
	if got := CanonicalText(it); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCanonicalTextEmptyForNoSenses(t *testing.T) {
	it := &model.Item{}
	if got := CanonicalText(it); got != "" {
		t.Fatalf("expected empty canonical text, got %q", got)
	}
}

func TestVectorSourceReturnsVectorForItemWithGlosses(t *testing.T) {
	svc := newTestService(t)
	defer svc.Close()
	vs := NewVectorSource(svc)

	it := &model.Item{Senses: []model.Sense{{POS: "noun", Gloss: "a burning light"}}}
	vec, ok, err := vs.Vector(it)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true for item with a gloss")
	}
	if len(vec) == 0 {
		t.Fatal("expected non-empty vector")
	}
}

func TestVectorSourceCosineDistanceOfSameItemIsZero(t *testing.T) {
	svc := newTestService(t)
	defer svc.Close()
	vs := NewVectorSource(svc)

	it := &model.Item{Senses: []model.Sense{{POS: "noun", Gloss: "a burning light"}}}
	dist, ok, err := vs.CosineDistance(it, it)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true when both items have glosses")
	}
	if dist > 1e-6 {
		t.Fatalf("expected ~0 distance comparing an item against itself, got %v", dist)
	}
}

func TestVectorSourceCosineDistanceSkipsImputedItem(t *testing.T) {
	svc := newTestService(t)
	defer svc.Close()
	vs := NewVectorSource(svc)

	withGloss := &model.Item{Senses: []model.Sense{{POS: "noun", Gloss: "a burning light"}}}
	imputed := &model.Item{Imputed: true}

	if _, ok, err := vs.CosineDistance(withGloss, imputed); err != nil || ok {
		t.Fatalf("expected ok=false comparing against an imputed item, got ok=%v err=%v", ok, err)
	}
}

func TestVectorSourceSkipsImputedItem(t *testing.T) {
	svc := newTestService(t)
	defer svc.Close()
	vs := NewVectorSource(svc)

	it := &model.Item{Imputed: true}
	vec, ok, err := vs.Vector(it)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for an imputed item with no senses")
	}
	if vec != nil {
		t.Fatalf("expected nil vector, got %v", vec)
	}
}
