// MIT License
//
// Copyright (c) 2025 Mike Lane
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package github provides the GitHub lookup behind the open-PR guard.
//
// When a repository is configured, helmsweep refuses to delete releases
// whose backing pull request is still open: a release named pr-123 belongs
// to PR #123, and deleting its environment while the PR is under review
// would tear down a preview someone may be using. The guard fetches the set
// of open pull request numbers once per run and the cleanup pipeline drops
// matching candidates.
//
// Authentication:
//
// A GitHub personal access token with the repo scope is read from the
// GITHUB_TOKEN environment variable. Without a token the client is
// unauthenticated, which works for public repositories within the lower
// rate limit.
//
// Retry Logic:
//
// Failed requests are retried with exponential backoff and ±20% jitter:
//   - Initial backoff: 100ms, factor 2.0, capped at 30 seconds
//   - Maximum retries: 3
//
// Retries apply to transient failures (429, 5xx, rate limit 403s). Other
// client errors are returned immediately.
package github
