package embedding

import (
	"math"
	"strings"

	"github.com/orsinium-labs/stopwords"
	"github.com/zeebo/xxh3"
	"gonum.org/v1/gonum/mat"

	"github.com/grimmgraph/grimm/internal/pool"
)

// buckets is the width of the bag-of-hashed-words input vector the
// projection matrix reduces from.
const buckets = 4096

// HashingModel is a deterministic, dependency-free stand-in for a
// pretrained sentence-embedding model (spec §4.5, §9 "Embedding model
// substitution"). Real transformer weights are an external resource the
// processor core treats the same way it treats the language reference
// table: a swappable input, not something built into the graph logic.
// This implementation hashes stopword-filtered single-word tokens into a
// fixed-width bag-of-words vector, projects it through a fixed seeded random linear
// map, and L2-normalizes the result, so the batching/caching machinery
// exercises a real (if small) linear-algebra forward pass.
type HashingModel struct {
	dim  int
	proj *mat.Dense // dim x buckets
	stop *stopwords.Stopwords
}

// NewHashingModel builds a model with output dimension dim, seeded so the
// same seed always produces the same projection matrix (spec §8.1
// determinism).
func NewHashingModel(dim int, seed uint64) *HashingModel {
	data := make([]float64, dim*buckets)
	rng := splitmix64(seed)
	for i := range data {
		data[i] = rng.nextUnit()
	}
	return &HashingModel{
		dim:  dim,
		proj: mat.NewDense(dim, buckets, data),
		stop: stopwords.MustGet("en"),
	}
}

func (m *HashingModel) Dim() int { return m.dim }

// Embed runs the batched forward pass: each text is tokenized, stopword
// filtered, hashed into the bag-of-words input vector, projected, and
// L2-normalized.
func (m *HashingModel) Embed(texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = m.embedOne(text)
	}
	return out, nil
}

func (m *HashingModel) embedOne(text string) []float32 {
	data := pool.GetBucket(buckets)
	defer pool.PutBucket(data)
	bag := mat.NewVecDense(buckets, data)

	for _, tok := range tokenize(text) {
		if m.stop.Contains(tok) {
			continue
		}
		h := xxh3.HashString(tok)
		bucket := int(h % buckets)
		bag.SetVec(bucket, bag.AtVec(bucket)+1)
	}

	var vec mat.VecDense
	vec.MulVec(m.proj, bag)

	return l2Normalize(vec.RawVector().Data)
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
}

func l2Normalize(v []float64) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += x * x
	}
	out := make([]float32, len(v))
	if sumSq == 0 {
		return out
	}
	norm := math.Sqrt(sumSq)
	for i, x := range v {
		out[i] = float32(x / norm)
	}
	return out
}

// splitmix64 is a tiny deterministic PRNG (not math/rand's global state,
// per spec §8.1's seeded-not-global requirement) used only to fill the
// fixed projection matrix.
type splitmix64Gen struct {
	state uint64
}

func splitmix64(seed uint64) *splitmix64Gen {
	return &splitmix64Gen{state: seed}
}

func (g *splitmix64Gen) next() uint64 {
	g.state += 0x9E3779B97F4A7C15
	z := g.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// nextUnit returns a value in [-1, 1), used to fill the random projection.
func (g *splitmix64Gen) nextUnit() float64 {
	const mask = 1<<53 - 1
	f := float64(g.next()&mask) / float64(1<<53)
	return f*2 - 1
}
