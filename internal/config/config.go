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

package config

import (
	"fmt"
	"os"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

const (
	// kubernetesNameMaxLength is the DNS subdomain length limit for
	// context and namespace names.
	kubernetesNameMaxLength = 253

	// releasePrefixMaxLength is the Helm release name length limit.
	releasePrefixMaxLength = 63

	// maxAgeDays caps the age threshold at ten years.
	maxAgeDays = 3650
)

var (
	kubernetesNamePattern = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?(\.[a-z0-9]([-a-z0-9]*[a-z0-9])?)*$`)

	// A prefix may end with a separator ("pr-"); a full release name may not.
	releasePrefixPattern = regexp.MustCompile(`^[a-z0-9][-a-z0-9]*$`)

	repositoryPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)
)

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Verbose lifts the log level to debug.
	Verbose bool `yaml:"verbose"`

	// JSON selects structured JSON output; false selects the console encoder.
	JSON bool `yaml:"json"`

	// File mirrors log output to the given path in addition to stderr.
	File string `yaml:"file"`
}

// Config holds the full helmsweep configuration. Values come from defaults,
// then an optional YAML file, then command-line flags.
type Config struct {
	// Context is the kubeconfig context to operate in.
	Context string `yaml:"context"`

	// Namespace is the namespace whose releases are examined.
	Namespace string `yaml:"namespace"`

	// Prefix selects candidate releases by name prefix.
	Prefix string `yaml:"prefix"`

	// Days is the age threshold: releases last updated more than Days days
	// ago are candidates.
	Days int `yaml:"days"`

	// BatchSize bounds how many releases are grouped per batch dispatch.
	BatchSize int `yaml:"batchSize"`

	// MaxWorkers bounds concurrency within a batch.
	MaxWorkers int `yaml:"maxWorkers"`

	// DryRun reports what would be deleted without deleting.
	DryRun bool `yaml:"dryRun"`

	// Yes skips the interactive confirmation prompt.
	Yes bool `yaml:"yes"`

	// Repository enables the open-PR guard ("owner/name"); empty disables it.
	Repository string `yaml:"repository"`

	// Kubeconfig pins kubeconfig loading to a file; empty uses the default
	// loading chain.
	Kubeconfig string `yaml:"kubeconfig"`

	Logging LoggingConfig `yaml:"logging"`
}

// Default returns the configuration baseline.
func Default() Config {
	return Config{
		BatchSize:  100,
		MaxWorkers: 4,
		Logging: LoggingConfig{
			JSON: true,
		},
	}
}

// Load returns the default configuration overlaid with the YAML file at
// path. An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration. Validation failures surface
// immediately to the caller and are never retried.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Context,
			validation.Required,
			validation.Length(1, kubernetesNameMaxLength),
		),
		validation.Field(&c.Namespace,
			validation.Required,
			validation.Length(1, kubernetesNameMaxLength),
			validation.Match(kubernetesNamePattern).Error("must be a lowercase RFC 1123 name"),
		),
		validation.Field(&c.Prefix,
			validation.Required,
			validation.Length(1, releasePrefixMaxLength),
			validation.Match(releasePrefixPattern).Error("must start with an alphanumeric and contain only lowercase alphanumerics and '-'"),
		),
		validation.Field(&c.Days,
			validation.Min(0),
			validation.Max(maxAgeDays).Error(fmt.Sprintf("cannot exceed %d days", maxAgeDays)),
		),
		validation.Field(&c.BatchSize, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxWorkers, validation.Required, validation.Min(1)),
		validation.Field(&c.Repository,
			validation.Match(repositoryPattern).Error("must be of the form owner/name"),
		),
	)
}
