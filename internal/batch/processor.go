/*
Copyright (c) 2025 Mike Lane

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package batch

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultBatchSize is the number of items grouped into one batch when
	// no explicit size is configured.
	DefaultBatchSize = 100

	// DefaultMaxWorkers is the concurrency bound for a single batch when
	// no explicit worker count is configured.
	DefaultMaxWorkers = 4
)

// Result is the tagged outcome of applying a transform to one item. A
// transform either produces a value (Ok), asks for the item to be skipped
// (Skip), or reports a per-item failure (Failed). Failures are isolated by
// the processor: they are logged and the item contributes no result, but
// they never abort the batch or the run.
type Result[R any] struct {
	value   R
	err     error
	skipped bool
}

// Ok returns a Result carrying a produced value.
func Ok[R any](value R) Result[R] {
	return Result[R]{value: value}
}

// Skip returns a Result signaling that the item produced no output. This is
// not a failure; skipped items are silently dropped.
func Skip[R any]() Result[R] {
	return Result[R]{skipped: true}
}

// Failed returns a Result carrying a per-item failure.
func Failed[R any](err error) Result[R] {
	return Result[R]{err: err}
}

// Value returns the produced value and whether one is present.
func (r Result[R]) Value() (R, bool) {
	return r.value, r.err == nil && !r.skipped
}

// Skipped reports whether the transform asked for the item to be skipped.
func (r Result[R]) Skipped() bool {
	return r.skipped
}

// Err returns the per-item failure, if any.
func (r Result[R]) Err() error {
	return r.err
}

// Transform maps one item to a tagged Result. It is invoked from worker
// goroutines and must be safe to call concurrently for distinct items.
type Transform[T, R any] func(ctx context.Context, item T) Result[R]

// Filter decides whether an item enters batching at all. It is evaluated
// synchronously, before batching, so filtered-out items never occupy a
// worker slot.
type Filter[T any] func(item T) bool

// ProgressFunc receives (itemsConsumedSoFar, totalItems) after each batch
// completes. It is invoked synchronously from the processing goroutine and
// must not block for long, or it stalls the pipeline.
type ProgressFunc func(processed, total int)

// Config holds the tuning knobs for a Processor.
type Config struct {
	// BatchSize bounds how many items are grouped before a pool dispatch.
	BatchSize int

	// MaxWorkers bounds concurrent transform invocations within a batch.
	MaxWorkers int
}

// DefaultConfig returns the default processor configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize:  DefaultBatchSize,
		MaxWorkers: DefaultMaxWorkers,
	}
}

// Processor partitions an item sequence into bounded batches and runs each
// batch through a filter+transform pipeline under a bounded worker pool.
// Batches are processed strictly in input order; items within a batch are
// processed concurrently with no ordering guarantee among themselves.
//
// A Processor holds no state between Process calls and is safe for reuse.
type Processor[T, R any] struct {
	batchSize  int
	maxWorkers int
	progress   ProgressFunc
}

// NewProcessor creates a Processor with the given configuration. Zero or
// negative values in cfg fall back to the defaults. The progress callback
// is optional and may be nil.
func NewProcessor[T, R any](cfg Config, progress ProgressFunc) *Processor[T, R] {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = DefaultMaxWorkers
	}
	return &Processor[T, R]{
		batchSize:  cfg.BatchSize,
		maxWorkers: cfg.MaxWorkers,
		progress:   progress,
	}
}

// Process runs items through the filter and transform and returns the
// concatenation, in batch order, of all values the transform produced.
// Per-item failures are logged and dropped; they never propagate to the
// caller. An empty input yields an empty output without dispatching a batch.
//
// The filter may be nil, in which case every item enters batching.
func (p *Processor[T, R]) Process(ctx context.Context, items []T, transform Transform[T, R], filter Filter[T]) []R {
	logger := logr.FromContextOrDiscard(ctx).WithName("batch")
	total := len(items)

	logger.Info("starting batch processing",
		"totalItems", total,
		"batchSize", p.batchSize,
		"maxWorkers", p.maxWorkers,
	)

	results := []R{}
	current := make([]T, 0, p.batchSize)

	for i, item := range items {
		if filter != nil && !filter(item) {
			continue
		}

		current = append(current, item)

		if len(current) >= p.batchSize {
			results = append(results, p.processBatch(ctx, current, transform)...)
			current = current[:0]

			if p.progress != nil {
				p.progress(i+1, total)
			}
		}
	}

	// Final partial batch. This also covers the case where the trailing
	// items were all filtered out after the batch started filling.
	if len(current) > 0 {
		results = append(results, p.processBatch(ctx, current, transform)...)

		if p.progress != nil {
			p.progress(total, total)
		}
	}

	logger.Info("completed batch processing",
		"totalProcessed", len(results),
		"totalItems", total,
	)

	return results
}

// processBatch runs one batch under a pool of min(maxWorkers, len(batch))
// workers and collects the produced values after the pool has drained.
// Workers write to private per-index slots, so no result is touched while
// still in flight.
func (p *Processor[T, R]) processBatch(ctx context.Context, batch []T, transform Transform[T, R]) []R {
	logger := logr.FromContextOrDiscard(ctx).WithName("batch")

	outcomes := make([]Result[R], len(batch))

	g := new(errgroup.Group)
	g.SetLimit(min(p.maxWorkers, len(batch)))
	for i, item := range batch {
		i, item := i, item
		g.Go(func() error {
			outcomes[i] = transform(ctx, item)
			return nil
		})
	}
	// Workers never return errors; failures live in the outcome slots.
	_ = g.Wait()

	results := make([]R, 0, len(batch))
	for i, outcome := range outcomes {
		if err := outcome.Err(); err != nil {
			logger.Error(err, "error processing item", "item", fmt.Sprintf("%v", batch[i]))
			continue
		}
		if value, ok := outcome.Value(); ok {
			results = append(results, value)
		}
	}
	return results
}
