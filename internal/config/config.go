// Package config defines the configuration model for a merge run.
//
// A Pipeline is decoded from a JSON or YAML file (or assembled from
// environment variables and flags, see Load) and handed to the pipeline and
// storage packages. Field names mirror the file layout:
//
//	{
//	  "job": "teams",
//	  "key_column": "TEAM NO",
//	  "stages":  { "collapse_rows": true, "coalesce_columns": true,
//	               "optimize_types": true, "exclude_non_numeric": false },
//	  "source":  { "dir": "./teamdata", "pattern": "*.csv" },
//	  "storage": { "kind": "csv", "path": "merged_team_data.csv" },
//	  "runtime": { "workers": 4, "batch_size": 5000, "channel_buffer": 1000 }
//	}
package config

import (
	"encoding/json"
	"unicode/utf8"
)

// Pipeline is the top-level configuration object.
type Pipeline struct {
	// Job labels metrics and logs for this run.
	Job string `json:"job" yaml:"job" mapstructure:"job"`

	// KeyColumn names the identity column every source must carry.
	KeyColumn string `json:"key_column" yaml:"key_column" mapstructure:"key_column"`

	Stages  Stages        `json:"stages" yaml:"stages" mapstructure:"stages"`
	Source  Source        `json:"source" yaml:"source" mapstructure:"source"`
	Storage Storage       `json:"storage" yaml:"storage" mapstructure:"storage"`
	Runtime RuntimeConfig `json:"runtime" yaml:"runtime" mapstructure:"runtime"`
	Metrics Metrics       `json:"metrics" yaml:"metrics" mapstructure:"metrics"`
	Log     Log           `json:"log" yaml:"log" mapstructure:"log"`
}

// Stages toggles the optional stages that run after the merge. The merge
// itself always runs.
type Stages struct {
	CollapseRows      bool `json:"collapse_rows" yaml:"collapse_rows" mapstructure:"collapse_rows"`
	CoalesceColumns   bool `json:"coalesce_columns" yaml:"coalesce_columns" mapstructure:"coalesce_columns"`
	OptimizeTypes     bool `json:"optimize_types" yaml:"optimize_types" mapstructure:"optimize_types"`
	ExcludeNonNumeric bool `json:"exclude_non_numeric" yaml:"exclude_non_numeric" mapstructure:"exclude_non_numeric"`
}

// Source locates the delimited input files.
type Source struct {
	// Dir is scanned (non-recursively) for files matching Pattern. Files are
	// merged in lexicographic name order.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// Pattern is a filepath.Match glob applied to file names.
	Pattern string `json:"pattern" yaml:"pattern" mapstructure:"pattern"`

	// Delimiter is the single-character field separator. Empty means ','.
	Delimiter string `json:"delimiter" yaml:"delimiter" mapstructure:"delimiter"`

	// TrimSpace strips leading and trailing blanks from every cell.
	TrimSpace bool `json:"trim_space" yaml:"trim_space" mapstructure:"trim_space"`
}

// Comma returns the field separator as a rune, or 0 (the parser default)
// when Delimiter is empty.
func (s Source) Comma() rune {
	if s.Delimiter == "" {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(s.Delimiter)
	return r
}

// Storage selects the sink the final table is written to.
type Storage struct {
	// Kind selects a registered backend: csv, parquet, sqlite, postgres,
	// mysql or mssql.
	Kind string `json:"kind" yaml:"kind" mapstructure:"kind"`

	// Path is the output file for file sinks (csv, parquet).
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	DB DBConfig `json:"db" yaml:"db" mapstructure:"db"`

	// Options carries backend specific knobs, e.g. "compression" for parquet
	// or "delimiter" for csv.
	Options Options `json:"options" yaml:"options" mapstructure:"options"`
}

// DBConfig configures the database sinks.
type DBConfig struct {
	// DSN is the driver connection string.
	DSN string `json:"dsn" yaml:"dsn" mapstructure:"dsn"`

	// Table is the destination table, optionally schema qualified.
	Table string `json:"table" yaml:"table" mapstructure:"table"`

	// AutoCreateTable creates the destination from the table's column kinds
	// when it does not exist.
	AutoCreateTable bool `json:"auto_create_table" yaml:"auto_create_table" mapstructure:"auto_create_table"`
}

// RuntimeConfig controls concurrency, batching and channel buffer sizes.
type RuntimeConfig struct {
	// Workers bounds per-file parsing and per-column stage work. Zero means
	// GOMAXPROCS.
	Workers       int `json:"workers" yaml:"workers" mapstructure:"workers"`
	BatchSize     int `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size"`
	ChannelBuffer int `json:"channel_buffer" yaml:"channel_buffer" mapstructure:"channel_buffer"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend is none, pushgateway or datadog.
	Backend        string `json:"backend" yaml:"backend" mapstructure:"backend"`
	PushgatewayURL string `json:"pushgateway_url" yaml:"pushgateway_url" mapstructure:"pushgateway_url"`
	DatadogAddr    string `json:"datadog_addr" yaml:"datadog_addr" mapstructure:"datadog_addr"`
}

// Log configures the process logger.
type Log struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
	Output string `json:"output" yaml:"output" mapstructure:"output"`
}

// Default returns the configuration used when nothing else is specified:
// every stage on, CSV files from ./teamdata merged into a CSV file.
func Default() Pipeline {
	return Pipeline{
		Job:       "tablemerge",
		KeyColumn: "TEAM NO",
		Stages: Stages{
			CollapseRows:    true,
			CoalesceColumns: true,
			OptimizeTypes:   true,
		},
		Source: Source{
			Dir:       "./teamdata",
			Pattern:   "*.csv",
			Delimiter: ",",
		},
		Storage: Storage{
			Kind:    "csv",
			Path:    "merged_team_data.csv",
			Options: Options{},
		},
		Runtime: RuntimeConfig{
			BatchSize:     5000,
			ChannelBuffer: 1000,
		},
		Metrics: Metrics{Backend: "none"},
		Log:     Log{Level: "info", Format: "auto", Output: "stderr"},
	}
}

// Options is a small helper to fetch typed values from a free-form map. It
// performs only minimal type coercion and returns the provided default when a
// key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64,
// so float64 is accepted and truncated.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		case int64:
			return int(n)
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// UnmarshalJSON decodes a missing or null options object to an empty,
// non-nil map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
