package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tablemerge/internal/config"
	"tablemerge/internal/ingest"
	"tablemerge/internal/metrics"
	"tablemerge/internal/metrics/datadog"
	"tablemerge/internal/metrics/prompush"
	"tablemerge/internal/pipeline"
	"tablemerge/internal/storage"
	"tablemerge/internal/transformer"
)

func (a *app) runCommand() *cobra.Command {
	var (
		preview int
		dryRun  bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load, merge and write the table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, preview, dryRun)
		},
	}
	cmd.Flags().IntVar(&preview, "preview", 0, "print the first N rows of the result")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "skip writing the result")
	return cmd
}

func (a *app) run(cmd *cobra.Command, preview int, dryRun bool) (err error) {
	cfg := a.cfg
	if issues := config.ValidatePipeline(cfg); reportIssues(a.log, issues) {
		return errors.New("configuration is invalid")
	}

	runID := uuid.NewString()
	ctx := pipeline.WithRunID(cmd.Context(), runID)
	log := a.log.With().Str("run_id", runID).Logger()

	flush, err := setupMetrics(cfg, runID, log)
	if err != nil {
		return err
	}
	defer func() {
		if ferr := flush(); ferr != nil {
			log.Warn().Err(ferr).Msg("metrics flush failed")
		}
	}()

	diag := &transformer.Diagnostics{}
	loaded, err := ingest.LoadDir(ctx, cfg.Source.Dir, ingest.Options{
		Key:       cfg.KeyColumn,
		Pattern:   cfg.Source.Pattern,
		Comma:     cfg.Source.Comma(),
		TrimSpace: cfg.Source.TrimSpace,
		Workers:   cfg.Runtime.Workers,
		Log:       log,
		Diag:      diag,
	})
	if err != nil {
		return err
	}
	log.Info().
		Int("files", loaded.Files).
		Int("with_key", len(loaded.Sources)).
		Int("rows", loaded.Rows).
		Int("skipped", loaded.Skipped).
		Msg("inputs loaded")
	logDiagnostics(log, diag.All())

	merged, rep, err := pipeline.Run(ctx, cfg, loaded.Sources, log)
	if err != nil {
		return err
	}
	rep.Diagnostics = append(diag.All(), rep.Diagnostics...)
	for _, st := range rep.Stages {
		log.Debug().
			Str("stage", st.Name).
			Int("rows", st.Rows).
			Int("cols", st.Cols).
			Str("memory", humanize.Bytes(uint64(st.Memory))).
			Dur("took", st.Duration).
			Msg("stage report")
	}

	out := cmd.OutOrStdout()
	if preview > 0 {
		if err := printPreview(out, rep, merged.Preview, preview); err != nil {
			return err
		}
	}
	if dryRun {
		log.Info().Msg("dry run, nothing written")
		return nil
	}

	n, err := storage.Write(ctx, cfg.Storage, merged, storage.WriteOptions{
		Job:           cfg.Job,
		BatchSize:     cfg.Runtime.BatchSize,
		ChannelBuffer: cfg.Runtime.ChannelBuffer,
		Log:           log,
	})
	if err != nil {
		return err
	}
	log.Info().
		Str("storage", cfg.Storage.Kind).
		Str("rows", humanize.Comma(n)).
		Int("diagnostics", len(rep.Diagnostics)).
		Msg("run complete")
	return nil
}

func printPreview(w io.Writer, rep pipeline.Report, render func(io.Writer, int) error, n int) error {
	last := rep.Last()
	if _, err := fmt.Fprintf(w, "%d rows x %d columns, %s\n", last.Rows, last.Cols, humanize.Bytes(uint64(last.Memory))); err != nil {
		return err
	}
	return render(w, n)
}

// setupMetrics installs the configured backend and returns a func that
// flushes and uninstalls it.
func setupMetrics(cfg config.Pipeline, runID string, log zerolog.Logger) (func() error, error) {
	noop := func() error { return nil }
	var b metrics.Backend
	switch cfg.Metrics.Backend {
	case "", "none":
		return noop, nil
	case "pushgateway":
		pb, err := prompush.NewBackend(prompush.Config{GatewayURL: cfg.Metrics.PushgatewayURL, Job: cfg.Job, RunID: runID})
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		b = pb
	case "datadog":
		db, err := datadog.NewBackend(datadog.Config{Addr: cfg.Metrics.DatadogAddr, Tags: []string{"job:" + cfg.Job}})
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		b = db
	default:
		return nil, fmt.Errorf("metrics: unknown backend %q", cfg.Metrics.Backend)
	}
	metrics.SetBackend(b)
	log.Debug().Str("backend", cfg.Metrics.Backend).Msg("metrics enabled")
	return func() error {
		defer metrics.Reset()
		return metrics.Flush()
	}, nil
}

func logDiagnostics(log zerolog.Logger, diags []transformer.Diagnostic) {
	for _, d := range diags {
		log.Warn().Str("stage", d.Stage).Str("subject", d.Subject).Err(d.Err).Msg(d.Message)
	}
}

// reportIssues logs every issue and reports whether any is an error.
func reportIssues(log zerolog.Logger, issues []config.Issue) bool {
	for _, iss := range issues {
		ev := log.Warn()
		if iss.Severity == config.SeverityError {
			ev = log.Error()
		}
		ev.Str("path", iss.Path).Msg(iss.Message)
	}
	return config.HasErrors(issues)
}
