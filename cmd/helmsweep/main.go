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

// helmsweep deletes stale pull-request Helm releases from a namespace.
package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mikelane/helmsweep/internal/cleanup"
	"github.com/mikelane/helmsweep/internal/config"
	"github.com/mikelane/helmsweep/internal/github"
	"github.com/mikelane/helmsweep/internal/helm"
	"github.com/mikelane/helmsweep/internal/kube"
	"github.com/mikelane/helmsweep/internal/retry"
	"github.com/mikelane/helmsweep/internal/tracking"
)

var (
	flagConfig     string
	flagContext    string
	flagNamespace  string
	flagPrefix     string
	flagDays       int
	flagBatchSize  int
	flagMaxWorkers int
	flagDryRun     bool
	flagYes        bool
	flagVerbose    bool
	flagNoJSONLogs bool
	flagLogFile    string
	flagRepository string
	flagKubeconfig string
)

var rootCmd = &cobra.Command{
	Use:   "helmsweep",
	Short: "Delete stale pull-request Helm releases",
	Long: `helmsweep lists Helm releases in a namespace, selects the ones whose
name carries the given prefix and whose last update is older than the age
threshold, and uninstalls them after confirmation.

When a GitHub repository is configured, releases whose pull request is
still open are spared.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSweep,
}

func init() {
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "path to a YAML config file")
	rootCmd.Flags().StringVar(&flagContext, "context", "", "kubeconfig context to operate in")
	rootCmd.Flags().StringVar(&flagNamespace, "namespace", "", "namespace whose releases are examined")
	rootCmd.Flags().StringVar(&flagPrefix, "prefix", "", "release name prefix to match (e.g. pr-)")
	rootCmd.Flags().IntVar(&flagDays, "days", 0, "delete releases last updated more than this many days ago")
	rootCmd.Flags().IntVar(&flagBatchSize, "batch-size", 0, "releases per batch dispatch")
	rootCmd.Flags().IntVar(&flagMaxWorkers, "max-workers", 0, "concurrent workers per batch")
	rootCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "report what would be deleted without deleting")
	rootCmd.Flags().BoolVar(&flagYes, "yes", false, "skip the confirmation prompt")
	rootCmd.Flags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")
	rootCmd.Flags().BoolVar(&flagNoJSONLogs, "no-json-logging", false, "log with the console encoder instead of JSON")
	rootCmd.Flags().StringVar(&flagLogFile, "log-file", "", "mirror log output to this file")
	rootCmd.Flags().StringVar(&flagRepository, "repository", "", "GitHub repository (owner/name) for the open-PR guard")
	rootCmd.Flags().StringVar(&flagKubeconfig, "kubeconfig", "", "path to the kubeconfig file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runSweep(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, flush, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer flush()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logr.NewContext(ctx, logger)

	manager := kube.NewManager(cfg.Kubeconfig)
	if err := manager.UseContext(ctx, cfg.Context); err != nil {
		return fmt.Errorf("failed to switch kubeconfig context: %w", err)
	}
	if err := manager.VerifyNamespace(ctx, cfg.Namespace); err != nil {
		return fmt.Errorf("namespace check failed: %w", err)
	}

	var ghClient github.Client
	if cfg.Repository != "" {
		ghClient = github.NewClient(os.Getenv("GITHUB_TOKEN"))
	}

	runner := cleanup.NewRunner(
		helm.NewClient(nil),
		ghClient,
		tracking.NewTracker(logger.WithName("tracker")),
		cleanup.Options{
			Namespace:        cfg.Namespace,
			Prefix:           cfg.Prefix,
			MaxAge:           time.Duration(cfg.Days) * 24 * time.Hour,
			BatchSize:        cfg.BatchSize,
			MaxWorkers:       cfg.MaxWorkers,
			DryRun:           cfg.DryRun,
			SkipConfirmation: cfg.Yes,
			Repository:       cfg.Repository,
			Retry:            retry.DefaultConfig(),
			Confirm:          confirmDeletion,
		},
	)

	result, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	reportResult(result)
	return nil
}

// loadConfig layers the optional YAML file under any flags the user set
// explicitly. Flags win over the file, the file wins over defaults.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("context") {
		cfg.Context = flagContext
	}
	if flags.Changed("namespace") {
		cfg.Namespace = flagNamespace
	}
	if flags.Changed("prefix") {
		cfg.Prefix = flagPrefix
	}
	if flags.Changed("days") {
		cfg.Days = flagDays
	}
	if flags.Changed("batch-size") {
		cfg.BatchSize = flagBatchSize
	}
	if flags.Changed("max-workers") {
		cfg.MaxWorkers = flagMaxWorkers
	}
	if flags.Changed("dry-run") {
		cfg.DryRun = flagDryRun
	}
	if flags.Changed("yes") {
		cfg.Yes = flagYes
	}
	if flags.Changed("repository") {
		cfg.Repository = flagRepository
	}
	if flags.Changed("kubeconfig") {
		cfg.Kubeconfig = flagKubeconfig
	}
	if flags.Changed("verbose") {
		cfg.Logging.Verbose = flagVerbose
	}
	if flags.Changed("no-json-logging") {
		cfg.Logging.JSON = !flagNoJSONLogs
	}
	if flags.Changed("log-file") {
		cfg.Logging.File = flagLogFile
	}
	return cfg, nil
}

// newLogger builds the zap-backed logr logger. The returned flush function
// drains buffered log entries and must be called before exit.
func newLogger(cfg config.LoggingConfig) (logr.Logger, func(), error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if !cfg.JSON {
		zapCfg.Encoding = "console"
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if cfg.Verbose {
		zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	zapCfg.OutputPaths = []string{"stderr"}
	if cfg.File != "" {
		zapCfg.OutputPaths = append(zapCfg.OutputPaths, cfg.File)
	}

	zapLog, err := zapCfg.Build()
	if err != nil {
		return logr.Logger{}, nil, err
	}
	return zapr.NewLogger(zapLog), func() { _ = zapLog.Sync() }, nil
}

// confirmDeletion lists the candidates and asks for an explicit yes on
// stdin. Anything other than y/yes declines.
func confirmDeletion(releases []string) bool {
	fmt.Printf("The following %d release(s) will be deleted:\n", len(releases))
	for _, name := range releases {
		fmt.Printf("  - %s\n", name)
	}
	fmt.Print("Proceed? [y/N]: ")

	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// reportResult prints the human-facing outcome on stdout; the structured
// log stream stays on stderr.
func reportResult(result cleanup.Result) {
	if len(result.Protected) > 0 {
		fmt.Printf("Protected by open pull requests: %s\n", strings.Join(result.Protected, ", "))
	}

	switch {
	case result.DryRun && len(result.Candidates) > 0:
		fmt.Printf("Dry run: would delete %d release(s): %s\n",
			len(result.Candidates), strings.Join(result.Candidates, ", "))
	case result.DryRun:
		fmt.Println("Dry run: no releases matched.")
	case len(result.Deleted) > 0:
		fmt.Printf("Deleted %d release(s): %s\n",
			len(result.Deleted), strings.Join(result.Deleted, ", "))
	case len(result.Candidates) > 0:
		fmt.Println("No releases deleted.")
	default:
		fmt.Println("No releases matched.")
	}
}
