// Package cmd implements the opengov-monitor command line.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Park-MinJe/monthly-audit-report/internal/config"
	"github.com/Park-MinJe/monthly-audit-report/internal/logger"
	"github.com/Park-MinJe/monthly-audit-report/internal/monitor"
	"github.com/Park-MinJe/monthly-audit-report/internal/opengov"
	"github.com/Park-MinJe/monthly-audit-report/internal/report"
	"github.com/Park-MinJe/monthly-audit-report/internal/summarize"
)

// Version is set at build time with -ldflags "-X ...cmd.Version=...".
var Version = "dev"

var (
	// Debug forces the debug log level.
	Debug bool

	rootCmd = &cobra.Command{
		Use:   "opengov-monitor",
		Short: "Monthly OpenGov expense disclosure upload check",
		Long: `Crawls the Seoul OpenGov expense disclosure listing for the previous month,
summarizes new spreadsheet attachments and writes a Markdown report with the
per-quarter upload status of every managed organization.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd.Context())
		},
	}
)

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Generate the report for the previous month once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd.Context())
		},
	})
	rootCmd.AddCommand(scheduleCommand())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "opengov-monitor version %s\n", Version)
		},
	})
}

// setup loads configuration and builds the logger.
func setup() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logCfg := logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}
	if Debug {
		logCfg.Level = "debug"
		logCfg.Development = true
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, log, nil
}

// newRunner wires the crawler and summarizer into a monitor.Runner.
func newRunner(cfg *config.Config, log logger.Logger) (*monitor.Runner, error) {
	crawler, err := opengov.New(opengov.Options{
		BaseURL:         cfg.BaseURL,
		ItemsPerPage:    cfg.ItemsPerPage,
		MaxPages:        cfg.MaxPages,
		StopAfterEmpty:  cfg.StopAfterEmpty,
		Timeout:         cfg.HTTPTimeout(),
		DownloadTimeout: cfg.DownloadTimeout(),
		UserAgent:       cfg.UserAgent,
		PoliteDelay:     cfg.PoliteDelay,
		RetryDelay:      cfg.RetryDelay,
	}, log)
	if err != nil {
		return nil, err
	}

	summarizer := summarize.New(summarize.Config{
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		OpenAIModel:     cfg.OpenAIModel,
		OpenAIBaseURL:   cfg.OpenAIBaseURL,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		AnthropicModel:  cfg.AnthropicModel,
		GeminiAPIKey:    cfg.GeminiAPIKey,
		GeminiModel:     cfg.GeminiModel,
		Timeout:         cfg.SummaryTimeout(),
	}, log)

	return monitor.NewRunner(cfg, crawler, summarizer, log), nil
}

func runOnce(ctx context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	runner, err := newRunner(cfg, log)
	if err != nil {
		log.Error("Failed to build runner", logger.Error(err))
		return err
	}
	res, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, report.CompletionMessage(res.ReportPath))
	if res.ReportLink != "" {
		fmt.Fprintln(os.Stdout, res.ReportLink)
	}
	return nil
}
