// Package pool provides object pooling to reduce GC pressure on two
// short-lived allocations: the bag-of-words scratch buffer built before
// every hashing-model embedding, and the map scratch used to assemble the
// serializer's run metadata.
//
// Adapted from the reference codebase's pkg/pool/pool.go (sync.Pool +
// Get/Put wrapper pairs that clear before reuse); narrowed from its
// generic map/slice/string-slice trio to the two buffer shapes this
// processor actually allocates repeatedly.
package pool

import "sync"

// bucketPool holds []float64 scratch buffers sized for the hashing
// model's bag-of-words vector (pkg/embedding/hashing.go).
var bucketPool = sync.Pool{
	New: func() any {
		return make([]float64, 0, 4096)
	},
}

// GetBucket returns a zeroed []float64 of length n, reusing pooled
// capacity when available.
func GetBucket(n int) []float64 {
	b := bucketPool.Get().([]float64)
	if cap(b) < n {
		b = make([]float64, n)
	} else {
		b = b[:n]
		for i := range b {
			b[i] = 0
		}
	}
	return b
}

// PutBucket returns b to the pool.
func PutBucket(b []float64) {
	bucketPool.Put(b[:0])
}

// metaPool holds map[string]string scratch buffers used to assemble
// serializer run metadata (internal/pipeline's runMetadata).
var metaPool = sync.Pool{
	New: func() any {
		return make(map[string]string, 8)
	},
}

// GetMeta returns an empty map[string]string from the pool.
func GetMeta() map[string]string {
	m := metaPool.Get().(map[string]string)
	for k := range m {
		delete(m, k)
	}
	return m
}

// PutMeta returns m to the pool.
func PutMeta(m map[string]string) {
	metaPool.Put(m)
}
