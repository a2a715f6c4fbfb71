/*
MIT License

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

// Package tracking records timing and outcome metadata for named operations.
//
// A Tracker owns an append-only, ordered log of finalized operation records
// and at most one open (started but not ended) record. Records capture the
// operation name, start and end timestamps, wall-clock duration, a success
// flag, an optional error description and free-form details.
//
// Lifecycle rules:
//   - Start opens a record; a second Start while one is open is logged and
//     ignored.
//   - End finalizes the open record exactly once and appends it to the log;
//     End with no open record is a logged no-op.
//   - Finalized records are never mutated.
//
// The one-open-operation invariant makes a shared tracker unsafe for
// concurrent logical operations. Construct one tracker per call site:
//
//	tracker := tracking.NewTracker(logger)
//	tracker.Start("delete_release", map[string]any{"release": name})
//	err := deleteRelease(ctx, name)
//	tracker.End(err == nil, errString(err), nil)
//
//	summary := tracker.Summary()
package tracking
