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

package helm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/go-logr/logr"
)

// listTimeFormat pins the timestamp layout helm emits for the Updated field
// so parsing does not depend on the helm default, which changed across
// releases.
const listTimeFormat = "2006-01-02T15:04:05Z07:00"

// execRunner runs commands through os/exec, capturing stdout and surfacing
// stderr in the returned error.
type execRunner struct{}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner() Runner {
	return execRunner{}
}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	logger := logr.FromContextOrDiscard(ctx).WithName("helm")
	logger.V(1).Info("running command", "command", name+" "+strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, msg)
		}
		return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}

	return stdout.Bytes(), nil
}

// Client drives the helm binary for listing and uninstalling releases.
type Client struct {
	runner Runner
}

// NewClient creates a helm client using the given runner. A nil runner
// falls back to the exec-backed one.
func NewClient(runner Runner) *Client {
	if runner == nil {
		runner = NewExecRunner()
	}
	return &Client{runner: runner}
}

// ListReleases lists the Helm releases in the given namespace. An empty
// namespace or a namespace without releases yields an empty slice, not an
// error; helm prints "null" in that case.
func (c *Client) ListReleases(ctx context.Context, namespace string) ([]Release, error) {
	logger := logr.FromContextOrDiscard(ctx).WithName("helm")
	logger.Info("listing releases", "namespace", namespace)

	output, err := c.runner.Run(ctx, "helm",
		"list",
		"--namespace", namespace,
		"--output", "json",
		"--time-format", listTimeFormat,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list releases in namespace %q: %w", namespace, err)
	}

	trimmed := strings.TrimSpace(string(output))
	if trimmed == "" || strings.EqualFold(trimmed, "null") {
		logger.Info("no releases found", "namespace", namespace)
		return []Release{}, nil
	}

	var releases []Release
	if err := json.Unmarshal([]byte(trimmed), &releases); err != nil {
		return nil, fmt.Errorf("failed to parse helm list output: %w", err)
	}

	logger.Info("found releases", "namespace", namespace, "count", len(releases))
	return releases, nil
}

// UninstallRelease removes one release from the given namespace.
func (c *Client) UninstallRelease(ctx context.Context, name, namespace string) error {
	logger := logr.FromContextOrDiscard(ctx).WithName("helm")
	logger.Info("uninstalling release", "release", name, "namespace", namespace)

	if _, err := c.runner.Run(ctx, "helm", "uninstall", name, "--namespace", namespace); err != nil {
		return fmt.Errorf("failed to uninstall release %q: %w", name, err)
	}

	logger.Info("release uninstalled", "release", name)
	return nil
}
