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

package tracking

import (
	"sync"
	"time"

	"github.com/go-logr/logr"
)

// Record describes one timed unit of work. A Record is immutable once it has
// been finalized and appended to the tracker's log.
type Record struct {
	// Operation is the caller-supplied name of the unit of work.
	Operation string

	// StartTime is when the operation began.
	StartTime time.Time

	// EndTime is when the operation finished.
	EndTime time.Time

	// Duration is the wall-clock delta between StartTime and EndTime.
	Duration time.Duration

	// Success reports whether the operation completed without error.
	Success bool

	// Error holds the failure description when Success is false.
	Error string

	// Details carries free-form key/value context about the operation.
	Details map[string]any
}

// Summary aggregates all finalized records of a tracker.
type Summary struct {
	TotalOperations      int
	SuccessfulOperations int
	FailedOperations     int
	TotalDuration        time.Duration
	AverageDuration      time.Duration

	// Records is the ordered list of finalized records.
	Records []Record
}

// Tracker records start/end/duration/success for named operations and
// exposes an aggregate summary. At most one operation may be open at a time;
// the tracker is therefore intended for one logical call site, not for
// sharing across concurrent pipelines. Construct one tracker per run.
type Tracker struct {
	mu      sync.Mutex
	logger  logr.Logger
	now     func() time.Time
	records []Record
	current *Record
}

// NewTracker creates an empty tracker that logs misuse and lifecycle events
// through the given logger.
func NewTracker(logger logr.Logger) *Tracker {
	return &Tracker{
		logger: logger.WithName("tracking"),
		now:    time.Now,
	}
}

// Start begins a new operation record. If an operation is already open the
// stray start is logged and ignored; the open record stays in place.
func (t *Tracker) Start(operation string, details map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current != nil {
		t.logger.Info("ignoring start while another operation is open",
			"operation", operation,
			"openOperation", t.current.Operation,
		)
		return
	}

	t.current = &Record{
		Operation: operation,
		StartTime: t.now(),
		Details:   cloneDetails(details),
	}

	t.logger.V(1).Info("starting operation", "operation", operation)
}

// End finalizes the open record: it computes the duration, merges any
// additional details, appends the record to the log and clears the open
// slot. Calling End with no open record is a no-op that logs a warning.
func (t *Tracker) End(success bool, errMsg string, details map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		t.logger.Info("no operation in progress")
		return
	}

	record := t.current
	record.EndTime = t.now()
	record.Duration = record.EndTime.Sub(record.StartTime)
	record.Success = success
	record.Error = errMsg

	if len(details) > 0 {
		if record.Details == nil {
			record.Details = make(map[string]any, len(details))
		}
		for k, v := range details {
			record.Details[k] = v
		}
	}

	t.logger.V(1).Info("completed operation",
		"operation", record.Operation,
		"duration", record.Duration,
		"success", success,
		"error", errMsg,
	)

	t.records = append(t.records, *record)
	t.current = nil
}

// Summary returns the aggregate view of all finalized records. An empty
// tracker yields a zero Summary.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	summary := Summary{
		TotalOperations: len(t.records),
		Records:         make([]Record, len(t.records)),
	}
	copy(summary.Records, t.records)

	for _, record := range t.records {
		summary.TotalDuration += record.Duration
		if record.Success {
			summary.SuccessfulOperations++
		} else {
			summary.FailedOperations++
		}
	}

	if summary.TotalOperations > 0 {
		summary.AverageDuration = summary.TotalDuration / time.Duration(summary.TotalOperations)
	}

	return summary
}

// Reset discards all finalized records and any open operation.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.records = nil
	t.current = nil
}

func cloneDetails(details map[string]any) map[string]any {
	if details == nil {
		return nil
	}
	clone := make(map[string]any, len(details))
	for k, v := range details {
		clone[k] = v
	}
	return clone
}
