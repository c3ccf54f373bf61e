package events

import (
	"context"
	"time"

	microbatch "github.com/joeycumines/go-microbatch"
)

// BatchSink groups emitted events into small batches before handing them to
// a downstream function, amortizing dispatch cost for a fast-moving trace
// (e.g. the CLI's line-by-line printer). Emit never blocks on the
// downstream consumer: it is a synchronous handoff to the batcher's own
// run loop, which is always ready to accept.
type BatchSink struct {
	batcher *microbatch.Batcher[Event]
}

// NewBatchSink returns a BatchSink that flushes to downstream whenever
// maxSize events have accumulated, or flushInterval has elapsed since the
// first unflushed event, whichever comes first. downstream is called with
// events in emission order; a final partial batch is flushed on Close.
func NewBatchSink(maxSize int, flushInterval time.Duration, downstream func([]Event)) *BatchSink {
	return &BatchSink{
		batcher: microbatch.NewBatcher(&microbatch.BatcherConfig{
			MaxSize:       maxSize,
			FlushInterval: flushInterval,
		}, func(_ context.Context, batch []Event) error {
			downstream(batch)
			return nil
		}),
	}
}

func (b *BatchSink) Emit(e Event) {
	// fire-and-forget: we don't wait on JobResult, since the viewer's
	// consumption rate must never gate the coherence core.
	_, _ = b.batcher.Submit(context.Background(), e)
}

// Close flushes any pending partial batch and releases the batcher's
// goroutine. It must be called exactly once, after the producer side is
// done emitting.
func (b *BatchSink) Close() error {
	return b.batcher.Close()
}
