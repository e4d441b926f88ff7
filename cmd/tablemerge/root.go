package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tablemerge/internal/config"
	"tablemerge/internal/logging"
)

// app carries state shared by the subcommands. It is filled in by the root
// command's PersistentPreRunE.
type app struct {
	cfgFile  string
	envFiles []string

	v        *viper.Viper
	cfg      config.Pipeline
	log      zerolog.Logger
	closeLog func() error
}

func newApp() *app {
	return &app{log: zerolog.Nop(), closeLog: func() error { return nil }}
}

// flagKeys maps persistent flag names to configuration keys.
var flagKeys = map[string]string{
	"job":             "job",
	"key":             "key_column",
	"dir":             "source.dir",
	"pattern":         "source.pattern",
	"delimiter":       "source.delimiter",
	"storage":         "storage.kind",
	"output":          "storage.path",
	"dsn":             "storage.db.dsn",
	"table":           "storage.db.table",
	"create-table":    "storage.db.auto_create_table",
	"workers":         "runtime.workers",
	"batch-size":      "runtime.batch_size",
	"metrics-backend": "metrics.backend",
	"pushgateway-url": "metrics.pushgateway_url",
	"datadog-addr":    "metrics.datadog_addr",
	"log-level":       "log.level",
	"log-format":      "log.format",
	"log-output":      "log.output",
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "tablemerge",
		Short: "Merge keyed delimited files into one table",
		Long: `tablemerge reads every matching file in a directory, outer-joins them on a
key column, and optionally collapses duplicate keys, coalesces duplicated
columns and narrows numeric storage before writing the result.

Configuration comes from (lowest to highest precedence) built-in defaults, a
JSON or YAML file given with --config, TABLEMERGE_* environment variables
(also read from .env.local and .env), and flags.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.closeLog()
		},
	}

	d := config.Default()
	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "", "pipeline config file (json or yaml)")
	pf.StringSliceVar(&a.envFiles, "env-file", nil, "env files to load (default .env.local, .env)")
	pf.String("job", d.Job, "job name used in logs and metrics")
	pf.StringP("key", "k", d.KeyColumn, "key column every input must carry")
	pf.StringP("dir", "d", d.Source.Dir, "input directory")
	pf.String("pattern", d.Source.Pattern, "input file name glob")
	pf.String("delimiter", d.Source.Delimiter, "input field delimiter")
	pf.String("storage", d.Storage.Kind, "output kind: csv, parquet, sqlite, postgres, mysql, mssql")
	pf.StringP("output", "o", d.Storage.Path, "output path for file kinds")
	pf.String("dsn", "", "connection string for database kinds")
	pf.String("table", "", "destination table for database kinds")
	pf.Bool("create-table", false, "create the destination table when missing")
	pf.Int("workers", d.Runtime.Workers, "parallel workers (0 = GOMAXPROCS)")
	pf.Int("batch-size", d.Runtime.BatchSize, "rows per sink batch")
	pf.String("metrics-backend", d.Metrics.Backend, "metrics backend: none, pushgateway, datadog")
	pf.String("pushgateway-url", "", "Prometheus Pushgateway URL")
	pf.String("datadog-addr", "", "DogStatsD address")
	pf.String("log-level", d.Log.Level, "log level: trace, debug, info, warn, error")
	pf.String("log-format", d.Log.Format, "log format: auto, console, json")
	pf.String("log-output", d.Log.Output, "log output: stderr, stdout, discard or a file")

	root.AddCommand(a.runCommand(), a.validateCommand(), a.probeCommand(), a.backendsCommand())
	return root
}

// setup loads env files and configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	config.LoadEnvFiles(a.envFiles...)

	a.v = config.NewViper(a.cfgFile)
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			return fmt.Errorf("flag %q not defined", name)
		}
		if err := a.v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind --%s: %w", name, err)
		}
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	log, closeLog, err := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return err
	}
	a.log, a.closeLog = log, closeLog
	return nil
}
