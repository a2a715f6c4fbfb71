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

// Package cleanup orchestrates a single sweep of stale pull-request Helm
// releases.
//
// A Runner ties the other packages together: it lists releases through the
// helm client, reduces them to stale candidates with the batch engine
// (prefix and age filtering, name extraction), optionally spares candidates
// whose pull request is still open, and uninstalls the rest. External calls
// (list, uninstall, PR lookup) are retry-wrapped and recorded in an
// operation tracker whose summary is logged at the end of the run.
//
// The pipeline:
//
//	list releases
//	   -> filter by prefix and age (before batching)
//	   -> extract names in bounded concurrent batches
//	   -> drop names whose PR is open (when a repository is configured)
//	   -> dry-run report, or confirm and uninstall
//
// A failed listing or an uninstall that exhausts its retries aborts the run
// with an error; failures inside the batch engine are isolated per release
// and only logged.
//
// Example usage:
//
//	runner := cleanup.NewRunner(helmClient, nil, tracker, cleanup.Options{
//		Namespace:  "ci",
//		Prefix:     "pr-",
//		MaxAge:     7 * 24 * time.Hour,
//		BatchSize:  100,
//		MaxWorkers: 4,
//		DryRun:     true,
//	})
//	result, err := runner.Run(ctx)
package cleanup
