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
	"errors"
	"sync"
	"time"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mikelane/helmsweep/internal/helm"
	"github.com/mikelane/helmsweep/internal/retry"
	"github.com/mikelane/helmsweep/internal/tracking"
)

// fakeHelm records list and uninstall calls and can be primed with errors.
type fakeHelm struct {
	mu            sync.Mutex
	releases      []helm.Release
	listErrs      []error
	listCalls     int
	uninstallErrs map[string]error
	uninstalled   []string
}

func (f *fakeHelm) ListReleases(_ context.Context, _ string) ([]helm.Release, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if len(f.listErrs) > 0 {
		err := f.listErrs[0]
		f.listErrs = f.listErrs[1:]
		return nil, err
	}
	return f.releases, nil
}

func (f *fakeHelm) UninstallRelease(_ context.Context, name, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.uninstallErrs[name]; ok {
		return err
	}
	f.uninstalled = append(f.uninstalled, name)
	return nil
}

// fakeGitHub serves a fixed set of open pull request numbers.
type fakeGitHub struct {
	open map[int]bool
	err  error
}

func (f *fakeGitHub) ListOpenPullRequests(_ context.Context, _, _ string) (map[int]bool, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.open, nil
}

var _ = Describe("Runner", func() {
	var (
		ctx      context.Context
		now      time.Time
		helmFake *fakeHelm
		tracker  *tracking.Tracker
		opts     Options
	)

	// release builds a deployed release last updated age ago.
	release := func(name string, age time.Duration) helm.Release {
		return helm.Release{
			Name:      name,
			Namespace: "ci",
			Updated:   now.Add(-age).Format(time.RFC3339),
			Status:    "deployed",
		}
	}

	newRunner := func(gh *fakeGitHub) *Runner {
		runner := NewRunner(helmFake, nil, tracker, opts)
		if gh != nil {
			runner.github = gh
		}
		runner.now = func() time.Time { return now }
		return runner
	}

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		helmFake = &fakeHelm{}
		tracker = tracking.NewTracker(logr.Discard())
		opts = Options{
			Namespace:        "ci",
			Prefix:           "pr-",
			MaxAge:           7 * 24 * time.Hour,
			BatchSize:        100,
			MaxWorkers:       4,
			SkipConfirmation: true,
			Retry:            retry.Config{MaxAttempts: 3, Delay: time.Millisecond},
		}
	})

	Context("when stale releases exist", func() {
		BeforeEach(func() {
			helmFake.releases = []helm.Release{
				release("pr-101-frontend", 10*24*time.Hour),
				release("pr-102-backend", 9*24*time.Hour),
				release("pr-103-api", 2*24*time.Hour),
				release("monitoring", 30*24*time.Hour),
			}
		})

		It("deletes stale prefixed releases and spares the rest", func() {
			result, err := newRunner(nil).Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(result.Candidates).To(ConsistOf("pr-101-frontend", "pr-102-backend"))
			Expect(result.Deleted).To(ConsistOf("pr-101-frontend", "pr-102-backend"))
			Expect(helmFake.uninstalled).To(ConsistOf("pr-101-frontend", "pr-102-backend"))
		})

		It("reports candidates without deleting in dry-run mode", func() {
			opts.DryRun = true

			result, err := newRunner(nil).Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(result.DryRun).To(BeTrue())
			Expect(result.Candidates).To(ConsistOf("pr-101-frontend", "pr-102-backend"))
			Expect(result.Deleted).To(BeEmpty())
			Expect(helmFake.uninstalled).To(BeEmpty())
		})

		It("records the external operations in the tracker", func() {
			_, err := newRunner(nil).Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			summary := tracker.Summary()
			// One list plus two deletions.
			Expect(summary.TotalOperations).To(Equal(3))
			Expect(summary.SuccessfulOperations).To(Equal(3))
		})
	})

	Context("when confirmation is required", func() {
		BeforeEach(func() {
			opts.SkipConfirmation = false
			helmFake.releases = []helm.Release{release("pr-200", 30*24*time.Hour)}
		})

		It("deletes nothing when the prompt is declined", func() {
			opts.Confirm = func([]string) bool { return false }

			result, err := newRunner(nil).Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(result.Candidates).To(ConsistOf("pr-200"))
			Expect(result.Deleted).To(BeEmpty())
			Expect(helmFake.uninstalled).To(BeEmpty())
		})

		It("treats a missing confirmer as declined", func() {
			result, err := newRunner(nil).Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(result.Deleted).To(BeEmpty())
		})

		It("proceeds when the prompt is accepted", func() {
			var prompted []string
			opts.Confirm = func(names []string) bool {
				prompted = names
				return true
			}

			result, err := newRunner(nil).Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(prompted).To(ConsistOf("pr-200"))
			Expect(result.Deleted).To(ConsistOf("pr-200"))
		})
	})

	Context("when no releases match", func() {
		BeforeEach(func() {
			helmFake.releases = []helm.Release{
				release("pr-1", time.Hour),
				release("staging-db", 90*24*time.Hour),
			}
		})

		It("completes without deleting anything", func() {
			result, err := newRunner(nil).Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(result.Candidates).To(BeEmpty())
			Expect(helmFake.uninstalled).To(BeEmpty())
		})
	})

	Context("when listing releases fails transiently", func() {
		It("retries and then succeeds", func() {
			helmFake.listErrs = []error{errors.New("connection refused")}
			helmFake.releases = []helm.Release{release("pr-5", 30*24*time.Hour)}

			result, err := newRunner(nil).Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(helmFake.listCalls).To(Equal(2))
			Expect(result.Deleted).To(ConsistOf("pr-5"))
		})

		It("aborts once the retries are exhausted", func() {
			listErr := errors.New("cluster unreachable")
			helmFake.listErrs = []error{listErr, listErr, listErr}

			_, err := newRunner(nil).Run(ctx)
			Expect(err).To(MatchError(ContainSubstring("failed to list releases")))
			Expect(helmFake.listCalls).To(Equal(3))
		})
	})

	Context("when a deletion keeps failing", func() {
		BeforeEach(func() {
			helmFake.releases = []helm.Release{
				release("pr-301", 30*24*time.Hour),
				release("pr-302", 30*24*time.Hour),
			}
			helmFake.uninstallErrs = map[string]error{
				"pr-302": errors.New("release stuck"),
			}
		})

		It("propagates the error and keeps the completed deletions", func() {
			result, err := newRunner(nil).Run(ctx)
			Expect(err).To(MatchError(ContainSubstring(`failed to delete release "pr-302"`)))

			Expect(result.Deleted).To(ConsistOf("pr-301"))
			Expect(helmFake.uninstalled).To(ConsistOf("pr-301"))
		})
	})

	Context("when the open-PR guard is enabled", func() {
		BeforeEach(func() {
			opts.Repository = "mikelane/helmsweep"
			helmFake.releases = []helm.Release{
				release("pr-401-frontend", 30*24*time.Hour),
				release("pr-402-backend", 30*24*time.Hour),
			}
		})

		It("spares releases whose pull request is still open", func() {
			gh := &fakeGitHub{open: map[int]bool{401: true}}

			result, err := newRunner(gh).Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(result.Protected).To(ConsistOf("pr-401-frontend"))
			Expect(result.Deleted).To(ConsistOf("pr-402-backend"))
			Expect(helmFake.uninstalled).To(ConsistOf("pr-402-backend"))
		})

		It("aborts the run when GitHub cannot be reached", func() {
			gh := &fakeGitHub{err: errors.New("503 service unavailable")}

			_, err := newRunner(gh).Run(ctx)
			Expect(err).To(MatchError(ContainSubstring("open-PR guard failed")))
			Expect(helmFake.uninstalled).To(BeEmpty())
		})

		It("skips the guard when no repository is configured", func() {
			opts.Repository = ""
			gh := &fakeGitHub{err: errors.New("should not be called")}

			result, err := newRunner(gh).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Deleted).To(HaveLen(2))
		})
	})
})

var _ = Describe("PRNumberFromRelease", func() {
	DescribeTable("mapping release names to PR numbers",
		func(name, prefix string, wantNumber int, wantFound bool) {
			number, found := PRNumberFromRelease(name, prefix)
			Expect(found).To(Equal(wantFound))
			Expect(number).To(Equal(wantNumber))
		},
		Entry("bare PR release", "pr-123", "pr-", 123, true),
		Entry("release with suffix", "pr-123-frontend", "pr-", 123, true),
		Entry("prefix only", "pr-", "pr-", 0, false),
		Entry("no digits after prefix", "pr-frontend", "pr-", 0, false),
		Entry("different prefix", "preview-9", "pr-", 0, false),
		Entry("digits embedded later", "pr-app2", "pr-", 0, false),
	)
})
