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

package cleanup

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/mikelane/helmsweep/internal/batch"
	"github.com/mikelane/helmsweep/internal/github"
	"github.com/mikelane/helmsweep/internal/helm"
	"github.com/mikelane/helmsweep/internal/retry"
	"github.com/mikelane/helmsweep/internal/tracking"
)

// ReleaseClient is the helm surface the runner needs.
type ReleaseClient interface {
	ListReleases(ctx context.Context, namespace string) ([]helm.Release, error)
	UninstallRelease(ctx context.Context, name, namespace string) error
}

// Options configures a cleanup run.
type Options struct {
	// Namespace is the namespace whose releases are examined.
	Namespace string

	// Prefix selects candidate releases by name prefix.
	Prefix string

	// MaxAge is the staleness threshold: releases last updated earlier
	// than now-MaxAge are candidates.
	MaxAge time.Duration

	// BatchSize and MaxWorkers tune the batch engine.
	BatchSize  int
	MaxWorkers int

	// DryRun reports candidates without deleting anything.
	DryRun bool

	// SkipConfirmation deletes without prompting.
	SkipConfirmation bool

	// Repository enables the open-PR guard ("owner/name"); empty disables it.
	Repository string

	// Retry wraps the external helm operations.
	Retry retry.Config

	// Confirm is consulted before deletion unless SkipConfirmation is set.
	// A nil Confirm counts as declined.
	Confirm func(releases []string) bool
}

// Result summarizes one cleanup run.
type Result struct {
	// Candidates are the stale release names after the open-PR guard.
	Candidates []string

	// Deleted are the releases that were actually uninstalled.
	Deleted []string

	// Protected are candidates spared because their pull request is open.
	Protected []string

	// DryRun reports whether this was a dry run.
	DryRun bool
}

// Runner orchestrates one cleanup pass: list releases, reduce them to stale
// candidates through the batch engine, and delete the survivors with
// retry-wrapped, tracked helm calls.
type Runner struct {
	helm    ReleaseClient
	github  github.Client
	tracker *tracking.Tracker
	opts    Options
	now     func() time.Time
}

// NewRunner wires a cleanup runner. githubClient may be nil when the
// open-PR guard is disabled; tracker must not be nil.
func NewRunner(helmClient ReleaseClient, githubClient github.Client, tracker *tracking.Tracker, opts Options) *Runner {
	return &Runner{
		helm:    helmClient,
		github:  githubClient,
		tracker: tracker,
		opts:    opts,
		now:     time.Now,
	}
}

// Run performs one cleanup pass. Failures listing releases or deleting a
// release (after retries) abort the run and propagate; everything inside
// the batch engine is isolated per item and never surfaces here.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	logger := logr.FromContextOrDiscard(ctx).WithName("cleanup")
	cutoff := r.now().UTC().Add(-r.opts.MaxAge)

	releases, err := r.listReleases(ctx)
	if err != nil {
		return Result{}, err
	}

	candidates := r.findStale(ctx, releases, cutoff)
	if len(candidates) == 0 {
		logger.Info("no releases matched criteria",
			"namespace", r.opts.Namespace,
			"prefix", r.opts.Prefix,
			"cutoff", cutoff.Format(time.RFC3339),
		)
		return Result{DryRun: r.opts.DryRun}, nil
	}

	candidates, protected, err := r.applyOpenPRGuard(ctx, candidates)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Candidates: candidates,
		Protected:  protected,
		DryRun:     r.opts.DryRun,
	}

	if r.opts.DryRun {
		logger.Info("dry run - would delete releases", "releases", candidates)
		r.logSummary(ctx)
		return result, nil
	}

	if !r.opts.SkipConfirmation {
		if r.opts.Confirm == nil || !r.opts.Confirm(candidates) {
			logger.Info("deletion cancelled")
			r.logSummary(ctx)
			return result, nil
		}
	}

	for _, name := range candidates {
		if err := r.deleteRelease(ctx, name); err != nil {
			r.logSummary(ctx)
			return result, err
		}
		result.Deleted = append(result.Deleted, name)
	}

	logger.Info("deleted all matching releases", "count", len(result.Deleted))
	r.logSummary(ctx)
	return result, nil
}

// listReleases fetches the raw release collection, retry-wrapped and
// tracked.
func (r *Runner) listReleases(ctx context.Context) ([]helm.Release, error) {
	r.tracker.Start("list_releases", map[string]any{"namespace": r.opts.Namespace})

	releases, err := retry.DoValue(ctx, r.opts.Retry, func() ([]helm.Release, error) {
		return r.helm.ListReleases(ctx, r.opts.Namespace)
	})
	if err != nil {
		r.tracker.End(false, err.Error(), nil)
		return nil, fmt.Errorf("failed to list releases: %w", err)
	}

	r.tracker.End(true, "", map[string]any{"count": len(releases)})
	return releases, nil
}

// findStale reduces the release collection to stale candidate names through
// the batch engine. The age filter runs before batching; the transform
// extracts the identifying key.
func (r *Runner) findStale(ctx context.Context, releases []helm.Release, cutoff time.Time) []string {
	logger := logr.FromContextOrDiscard(ctx).WithName("cleanup")

	processor := batch.NewProcessor[helm.Release, string](
		batch.Config{
			BatchSize:  r.opts.BatchSize,
			MaxWorkers: r.opts.MaxWorkers,
		},
		func(processed, total int) {
			logger.Info("batch progress", "processed", processed, "total", total)
		},
	)

	return processor.Process(ctx, releases,
		func(_ context.Context, release helm.Release) batch.Result[string] {
			name, ok := helm.ExtractName(release)
			if !ok {
				return batch.Skip[string]()
			}
			return batch.Ok(name)
		},
		func(release helm.Release) bool {
			return helm.FilterByAge(release, r.opts.Prefix, cutoff)
		},
	)
}

// applyOpenPRGuard drops candidates whose backing pull request is still
// open. A guard that cannot reach GitHub aborts the run: deleting without
// being able to verify is worse than failing.
func (r *Runner) applyOpenPRGuard(ctx context.Context, candidates []string) (kept, protected []string, err error) {
	if r.github == nil || r.opts.Repository == "" {
		return candidates, nil, nil
	}

	logger := logr.FromContextOrDiscard(ctx).WithName("cleanup")

	owner, repo, ok := strings.Cut(r.opts.Repository, "/")
	if !ok {
		return nil, nil, fmt.Errorf("invalid repository %q, want owner/name", r.opts.Repository)
	}

	r.tracker.Start("list_open_pull_requests", map[string]any{"repository": r.opts.Repository})
	open, err := r.github.ListOpenPullRequests(ctx, owner, repo)
	if err != nil {
		r.tracker.End(false, err.Error(), nil)
		return nil, nil, fmt.Errorf("open-PR guard failed: %w", err)
	}
	r.tracker.End(true, "", map[string]any{"openPullRequests": len(open)})

	for _, name := range candidates {
		if number, found := PRNumberFromRelease(name, r.opts.Prefix); found && open[number] {
			logger.Info("release protected by open pull request", "release", name, "pr", number)
			protected = append(protected, name)
			continue
		}
		kept = append(kept, name)
	}
	return kept, protected, nil
}

// deleteRelease uninstalls one release, retry-wrapped and tracked. An error
// here means the retries are already exhausted.
func (r *Runner) deleteRelease(ctx context.Context, name string) error {
	r.tracker.Start("delete_release", map[string]any{"release": name, "namespace": r.opts.Namespace})

	err := retry.Do(ctx, r.opts.Retry, func() error {
		return r.helm.UninstallRelease(ctx, name, r.opts.Namespace)
	})
	if err != nil {
		r.tracker.End(false, err.Error(), nil)
		return fmt.Errorf("failed to delete release %q: %w", name, err)
	}

	r.tracker.End(true, "", nil)
	return nil
}

// logSummary emits the tracker aggregate at the end of a run.
func (r *Runner) logSummary(ctx context.Context) {
	summary := r.tracker.Summary()
	logr.FromContextOrDiscard(ctx).WithName("cleanup").Info("operation summary",
		"totalOperations", summary.TotalOperations,
		"successful", summary.SuccessfulOperations,
		"failed", summary.FailedOperations,
		"totalDuration", summary.TotalDuration.String(),
		"averageDuration", summary.AverageDuration.String(),
	)
}

// PRNumberFromRelease maps a release name like "pr-123" or "pr-123-frontend"
// to its pull request number. The second return value is false when the
// name does not carry a number right after the prefix.
func PRNumberFromRelease(name, prefix string) (int, bool) {
	rest, found := strings.CutPrefix(name, prefix)
	if !found || rest == "" {
		return 0, false
	}

	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}

	number, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 0, false
	}
	return number, true
}
