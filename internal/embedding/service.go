package embedding

import (
	"fmt"

	"github.com/grimmgraph/grimm/internal/diagnostics"
	"github.com/grimmgraph/grimm/pkg/embedding"
)

// Service implements the full embed(text) contract of spec §4.5: hash,
// check cache, else buffer into the batcher and cache the result once the
// batch flushes.
type Service struct {
	cache   *Cache
	batcher *embedding.Batcher
}

// NewService wires a Cache and a Batcher into the embed(text) contract.
func NewService(cache *Cache, batcher *embedding.Batcher) *Service {
	return &Service{cache: cache, batcher: batcher}
}

// Embed returns the vector for canonicalText, from cache if present,
// otherwise by buffering into the batch worker and caching the result.
func (s *Service) Embed(canonicalText string) ([]float32, error) {
	key := Key(canonicalText)

	if vec, ok, err := s.cache.Get(key); err != nil {
		return nil, err
	} else if ok {
		return vec, nil
	}

	vec, err := s.batcher.Embed(canonicalText)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Put(key, vec); err != nil {
		return nil, err
	}
	return vec, nil
}

// Close flushes any pending batch and closes the cache.
func (s *Service) Close() error {
	s.batcher.Close()
	return s.cache.Close()
}

// CosineDistance embeds (or reuses the cached vector for) textA and
// textB, then reports their sqlite-vec cosine distance without pulling
// either vector into Go for the comparison itself.
func (s *Service) CosineDistance(textA, textB string) (float64, error) {
	if _, err := s.Embed(textA); err != nil {
		return 0, err
	}
	if _, err := s.Embed(textB); err != nil {
		return 0, err
	}
	dist, ok, err := s.cache.CosineDistance(Key(textA), Key(textB))
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, diagnostics.Wrap(diagnostics.InvariantViolation, fmt.Errorf("embedding service: both texts were just embedded but cosine lookup found no cached row"))
	}
	return dist, nil
}
