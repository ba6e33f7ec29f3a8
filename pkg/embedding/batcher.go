package embedding

import (
	"fmt"
	"sync"

	"github.com/grimmgraph/grimm/internal/diagnostics"
)

// request is one pending text awaiting a batched forward pass. result is
// one-shot with capacity one: exactly the suspension point of spec §5(a) —
// the caller blocks on result until the batch it landed in flushes.
type request struct {
	text   string
	result chan<- vectorResult
}

type vectorResult struct {
	vec []float32
	err error
}

// Batcher is the dedicated batch worker described in spec §5: a single
// goroutine that accumulates pending embed requests and flushes them
// through a Model in groups of batchSize, or sooner when Close is called
// at stream end. Grounded on the reference codebase's channel-based
// worker shape (pkg/pool's buffered-channel pooling), generalized from
// object pooling to request batching.
type Batcher struct {
	model     Model
	batchSize int

	reqs chan request
	done chan struct{}
	wg   sync.WaitGroup

	counters *diagnostics.Counters
}

// NewBatcher starts the worker goroutine. counters may be nil.
func NewBatcher(model Model, batchSize int, counters *diagnostics.Counters) *Batcher {
	if batchSize < 1 {
		batchSize = 1
	}
	b := &Batcher{
		model:     model,
		batchSize: batchSize,
		reqs:      make(chan request),
		done:      make(chan struct{}),
		counters:  counters,
	}
	b.wg.Add(1)
	go b.run()
	return b
}

// Embed enqueues text and blocks until the batch containing it has been
// run through the model. Safe to call from multiple goroutines.
func (b *Batcher) Embed(text string) ([]float32, error) {
	result := make(chan vectorResult, 1)
	b.reqs <- request{text: text, result: result}
	r := <-result
	return r.vec, r.err
}

// Close flushes any partially-filled batch (stream end, spec §4.5 step 3)
// and stops the worker. Must be called exactly once after the last Embed.
func (b *Batcher) Close() {
	close(b.reqs)
	b.wg.Wait()
}

func (b *Batcher) run() {
	defer b.wg.Done()
	pending := make([]request, 0, b.batchSize)
	for req := range b.reqs {
		pending = append(pending, req)
		if len(pending) >= b.batchSize {
			b.flush(pending)
			pending = pending[:0]
		}
	}
	if len(pending) > 0 {
		b.flush(pending)
	}
}

func (b *Batcher) flush(pending []request) {
	texts := make([]string, len(pending))
	for i, r := range pending {
		texts[i] = r.text
	}

	vecs, err := b.model.Embed(texts)
	if err != nil {
		de := diagnostics.Wrap(diagnostics.EmbedFailed, fmt.Errorf("embedding: batch inference failed: %w", err))
		if b.counters != nil {
			b.counters.Record(de)
		}
		for _, r := range pending {
			r.result <- vectorResult{err: de}
		}
		return
	}

	for i, r := range pending {
		r.result <- vectorResult{vec: vecs[i]}
	}
}
