// SPDX-License-Identifier: MPL-2.0

package store

import (
	"context"
	"sync"
)

// DefaultQueueDepth bounds the writer queue so producers that outpace the
// single writer block instead of growing memory without limit.
const DefaultQueueDepth = 64

// Writer serializes concurrent batch producers onto a FileStore. It is the
// pipeline's single serialization point: extraction workers enqueue batches
// and only ever block on the writer, never on each other.
type Writer struct {
	store *FileStore

	ch   chan Batch
	done chan struct{}

	mu  sync.Mutex
	err error
}

// NewWriter starts the single writer goroutine consuming a bounded queue.
func NewWriter(store *FileStore, queueDepth int) *Writer {
	if queueDepth <= 0 {
		queueDepth = DefaultQueueDepth
	}

	w := &Writer{
		store: store,
		ch:    make(chan Batch, queueDepth),
		done:  make(chan struct{}),
	}

	go w.run()
	return w
}

func (w *Writer) run() {
	defer close(w.done)
	for batch := range w.ch {
		if w.Err() != nil {
			// A failed append poisons the run; drain remaining batches so
			// producers can finish and observe the error via Close.
			continue
		}
		if err := w.store.Append(batch); err != nil {
			w.setErr(err)
		}
	}
}

// Enqueue hands a batch to the writer, blocking while the queue is full.
// Returns the context error if ctx is done before the batch is accepted.
func (w *Writer) Enqueue(ctx context.Context, batch Batch) error {
	select {
	case w.ch <- batch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting batches, waits for the queue to drain, performs the
// final flush, and returns the first error observed by the writer.
func (w *Writer) Close() error {
	close(w.ch)
	<-w.done

	if err := w.Err(); err != nil {
		return err
	}
	if err := w.store.Flush(); err != nil {
		w.setErr(err)
		return err
	}
	return nil
}

// Err returns the first append or flush error observed, if any.
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *Writer) setErr(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err == nil {
		w.err = err
	}
}
