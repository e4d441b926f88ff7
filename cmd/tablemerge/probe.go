package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tablemerge/internal/ingest"
	"tablemerge/internal/pipeline"
	"tablemerge/internal/probe"
	"tablemerge/internal/storage"
	"tablemerge/internal/transformer"
)

func (a *app) probeCommand() *cobra.Command {
	var (
		merged  bool
		ddlKind string
	)
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Profile the input files without writing anything",
		Long: `Loads every input file and prints the inferred kind, missing count and
distinct count of each column. --merged also profiles the merged result and
--ddl prints the CREATE TABLE statement the given backend would run for it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.probe(cmd, merged || ddlKind != "", ddlKind)
		},
	}
	cmd.Flags().BoolVar(&merged, "merged", false, "also profile the merged table")
	cmd.Flags().StringVar(&ddlKind, "ddl", "", "print CREATE TABLE for the merged table in this backend's dialect")
	return cmd
}

func (a *app) probe(cmd *cobra.Command, merged bool, ddlKind string) error {
	cfg := a.cfg
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	loaded, err := ingest.LoadDir(ctx, cfg.Source.Dir, ingest.Options{
		Key:       cfg.KeyColumn,
		Pattern:   cfg.Source.Pattern,
		Comma:     cfg.Source.Comma(),
		TrimSpace: cfg.Source.TrimSpace,
		Workers:   cfg.Runtime.Workers,
		Log:       a.log,
		Diag:      &transformer.Diagnostics{},
	})
	if err != nil {
		return err
	}
	for _, src := range loaded.Sources {
		if err := probe.Render(out, probe.Table(src.Name, src.Table)); err != nil {
			return err
		}
	}
	if n := loaded.Files - len(loaded.Sources); n > 0 {
		fmt.Fprintf(out, "%d file(s) without key %q skipped\n", n, cfg.KeyColumn)
	}
	if loaded.Skipped > 0 {
		fmt.Fprintf(out, "%d malformed row(s) skipped\n", loaded.Skipped)
	}
	if !merged {
		return nil
	}

	result, _, err := pipeline.Run(ctx, cfg, loaded.Sources, a.log)
	if err != nil {
		return err
	}
	if err := probe.Render(out, probe.Table("merged", result)); err != nil {
		return err
	}
	if ddlKind == "" {
		return nil
	}
	d, ok := storage.DialectFor(ddlKind)
	if !ok {
		return fmt.Errorf("no CREATE TABLE dialect for storage kind %q", ddlKind)
	}
	name := cfg.Storage.DB.Table
	if name == "" {
		name = cfg.Job
	}
	sql, err := probe.CreateTable(name, result, d)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, sql)
	return err
}
