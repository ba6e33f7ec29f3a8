// Package embedding implements the embedding service contract (spec §4.5):
// a pluggable forward-pass model plus a batching worker that buffers
// pending requests until batch_size or stream end, then flushes them
// through the model in one call.
package embedding

// Model is a sentence-embedding forward pass. Dim reports the fixed
// output dimension; Embed runs a batched forward pass over texts and
// returns one vector per input, in order.
type Model interface {
	Dim() int
	Embed(texts []string) ([][]float32, error)
}
