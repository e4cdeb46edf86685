package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/timmy/tabextract/internal/config"
	"github.com/timmy/tabextract/internal/logger"
	"github.com/timmy/tabextract/internal/repository"
	"github.com/timmy/tabextract/internal/service"
	"github.com/timmy/tabextract/internal/session"
	"github.com/timmy/tabextract/internal/source"
	"github.com/timmy/tabextract/internal/source/local"
	"github.com/timmy/tabextract/internal/source/staging"
	"github.com/timmy/tabextract/internal/tabular"
)

var (
	configPath string
	modelID    string
	params     string
	surveyID   string
	format     string
	outPath    string
)

var rootCmd = &cobra.Command{
	Use:   "ingest [flags] FILE...",
	Short: "Extract tabular data from documents",
	Long: `ingest sends PDFs and CSV files (or one stored survey) to the extraction
service in batches and writes the combined table as CSV, JSON or XLSX.

A directory containing manifest.jsonl is read as a staging directory;
any other directory is expanded one level deep in name order.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if surveyID == "" && len(args) == 0 {
			return errors.New("at least one FILE or --survey is required")
		}
		if surveyID != "" && len(args) > 0 {
			return errors.New("FILE arguments cannot be combined with --survey")
		}
		return nil
	},
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	rootCmd.Flags().StringVarP(&modelID, "model", "m", "", "Extraction model identifier (required)")
	rootCmd.Flags().StringVarP(&params, "params", "p", "", "Optional model parameters, usually JSON")
	rootCmd.Flags().StringVarP(&surveyID, "survey", "s", "", "Extract from a stored survey instead of files")
	rootCmd.Flags().StringVarP(&format, "format", "f", "csv", "Output format: csv, json or xlsx")
	rootCmd.Flags().StringVarP(&outPath, "out", "o", "", "Output path (default extracted_data.<format>)")
	_ = rootCmd.MarkFlagRequired("model")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "text",
		Output:      os.Stderr,
		ServiceName: "tabextract-ingest",
	})
	logger.SetDefaultLogger(appLogger)

	exportFormat, err := tabular.ParseFormat(format)
	if err != nil {
		return err
	}
	target := outputPath(outPath, exportFormat)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var jobStore service.JobStore
	if cfg.Database.Enabled {
		db, err := repository.InitDB(&cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		jobStore = repository.NewJobRepository(db)
	}

	surveys := service.NewSurveyResolver(cfg.Extraction.SurveyURL, cfg.Extraction.Timeout)
	client, err := service.NewExtractionClient(&service.ExtractionConfig{
		BaseURL: cfg.Extraction.BaseURL,
		APIKey:  cfg.Extraction.APIKey,
		Timeout: cfg.Extraction.Timeout,
	}, surveys)
	if err != nil {
		return err
	}

	jobs := service.NewJobService(
		service.NewValidator(cfg.Ingest.MaxFiles, cfg.Ingest.MaxFileSize),
		service.NewScheduler(client, &service.SchedulerConfig{
			BatchSize:      cfg.Ingest.BatchSize,
			SettleInterval: cfg.Ingest.SettleInterval,
		}),
		session.New(),
		jobStore,
		nil,
		appLogger,
	)

	var outcome *service.JobOutcome
	if surveyID != "" {
		appLogger.WithFields(logger.Fields{
			logger.FieldModel:  modelID,
			logger.FieldSource: "survey " + surveyID,
		}).Info("Starting extraction")
		outcome, err = jobs.RunExisting(ctx, surveyID, modelID, params)
	} else {
		src := sourceFor(args, cfg.Ingest.MaxFileSize)
		candidates, cerr := src.Collect(ctx)
		if cerr != nil {
			return cerr
		}
		for _, c := range candidates {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %s (%s)\n", c.Name, service.FormatBytes(c.Size))
		}
		appLogger.WithFields(logger.Fields{
			logger.FieldModel:  modelID,
			logger.FieldSource: src.ID(),
			logger.FieldCount:  len(candidates),
		}).Info("Starting extraction")
		outcome, err = jobs.RunFiles(ctx, candidates, modelID, params)
	}
	if outcome != nil {
		for _, f := range outcome.Failures {
			fmt.Fprintf(cmd.ErrOrStderr(), "failed: %s\n", f.String())
		}
	}
	if err != nil {
		return err
	}

	data, err := tabular.Export(outcome.Result, exportFormat)
	if err != nil {
		return err
	}
	if err := os.WriteFile(target, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}

	logger.With(logger.Fields{
		logger.FieldJobID: outcome.JobID,
		"output":          target,
		"rows":            len(outcome.Result.Rows),
		"total_units":     len(outcome.Units),
		"failed_units":    len(outcome.Failures),
	}).WithDuration(outcome.Duration.Milliseconds()).Info(ctx, "Extraction completed")
	return nil
}

// sourceFor picks the staging adapter for a single manifest directory and
// the local path adapter otherwise.
func sourceFor(args []string, maxBytes int64) source.Source {
	if len(args) == 1 && staging.IsStagingDir(args[0]) {
		return staging.NewAdapter(args[0], maxBytes)
	}
	return local.NewAdapter(args, maxBytes)
}

// outputPath defaults to extracted_data.<ext> and fixes a missing extension.
func outputPath(path string, f tabular.Format) string {
	if path == "" {
		return f.FileName()
	}
	if !strings.Contains(path[strings.LastIndex(path, "/")+1:], ".") {
		return path + "." + string(f)
	}
	return path
}
