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

// Package batch provides a generic, bounded-concurrency batch processing
// engine.
//
// The engine takes an ordered collection of items, partitions it into
// fixed-size batches, and runs each batch through a caller-supplied
// filter+transform pipeline under a bounded worker pool.
//
// Key features:
//   - Fixed-size batching with a final partial batch
//   - Bounded parallelism within a batch, strict sequencing across batches
//   - Per-item failure isolation: a failing transform is logged and dropped,
//     never aborting the run
//   - Tagged transform outcomes (Ok, Skip, Failed) instead of sentinel values
//   - Optional progress callback after each batch
//
// Concurrency model:
//
// Peak concurrency is bounded by MaxWorkers regardless of input size, and
// peak in-flight memory by one batch's items plus their outcomes. Batch N+1
// never starts before batch N's pool has fully drained. Within a batch there
// is no completion-order guarantee; the result slice preserves batch order
// only.
//
// Example usage:
//
//	processor := batch.NewProcessor[helm.Release, string](batch.Config{
//		BatchSize:  100,
//		MaxWorkers: 4,
//	}, nil)
//
//	names := processor.Process(ctx, releases,
//		func(ctx context.Context, rel helm.Release) batch.Result[string] {
//			if rel.Name == "" {
//				return batch.Skip[string]()
//			}
//			return batch.Ok(rel.Name)
//		},
//		func(rel helm.Release) bool { return strings.HasPrefix(rel.Name, "pr-") },
//	)
//
// The engine does not support per-item timeouts: a transform that never
// returns stalls its batch. Callers that wrap external commands should bound
// them through the context they pass to Process.
package batch
