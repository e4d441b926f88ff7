package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "storage.db.dsn").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be returned as one.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

var (
	fileKinds = map[string]struct{}{"csv": {}, "parquet": {}}
	dbKinds   = map[string]struct{}{"sqlite": {}, "postgres": {}, "mysql": {}, "mssql": {}}
)

// ValidatePipeline performs static validation of a Pipeline. It does not
// mutate p; callers decide whether warnings are fatal.
//
//	issues := config.ValidatePipeline(p)
//	for _, iss := range issues {
//	    fmt.Printf("%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
//	}
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	if strings.TrimSpace(p.KeyColumn) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "key_column",
			Message:  "key_column must not be empty",
		})
	}
	issues = append(issues, validateStages(p.Stages)...)
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateStorage(p.Storage)...)
	issues = append(issues, validateRuntime(p.Runtime)...)
	issues = append(issues, validateMetrics(p.Metrics)...)

	return issues
}

func validateStages(s Stages) []Issue {
	var issues []Issue
	if s.CoalesceColumns && !s.CollapseRows {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "stages.coalesce_columns",
			Message:  "coalescing without collapse_rows may leave several rows per key",
		})
	}
	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Dir) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.dir",
			Message:  "source.dir must not be empty",
		})
	}
	if s.Pattern != "" {
		if _, err := filepath.Match(s.Pattern, ""); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.pattern",
				Message:  fmt.Sprintf("invalid glob %q: %v", s.Pattern, err),
			})
		}
	}
	if s.Delimiter != "" {
		r, size := utf8.DecodeRuneInString(s.Delimiter)
		switch {
		case size != len(s.Delimiter):
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.delimiter",
				Message:  fmt.Sprintf("delimiter must be a single character, got %q", s.Delimiter),
			})
		case r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.delimiter",
				Message:  fmt.Sprintf("delimiter %q is not allowed", s.Delimiter),
			})
		}
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  "storage.kind must not be empty",
		})
		return issues
	}

	_, isFile := fileKinds[s.Kind]
	_, isDB := dbKinds[s.Kind]
	switch {
	case isFile:
		if strings.TrimSpace(s.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "storage.path",
				Message:  fmt.Sprintf("%s storage requires a non-empty path", s.Kind),
			})
		}
	case isDB:
		if strings.TrimSpace(s.DB.DSN) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "storage.db.dsn",
				Message:  "storage.db.dsn must not be empty",
			})
		}
		if strings.TrimSpace(s.DB.Table) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "storage.db.table",
				Message:  "storage.db.table must not be empty",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind),
		})
	}

	if s.Kind == "parquet" {
		switch c := strings.ToLower(s.Options.String("compression", "snappy")); c {
		case "snappy", "gzip", "none", "uncompressed":
		default:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "storage.options.compression",
				Message:  fmt.Sprintf("unsupported parquet compression %q", c),
			})
		}
	}
	return issues
}

// validateRuntime flags negative values and zero-sized batches.
func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue

	if r.BatchSize <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.batch_size",
			Message:  fmt.Sprintf("batch_size=%d; non-positive batch sizes may hurt throughput", r.BatchSize),
		})
	}
	if r.Workers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.workers",
			Message:  "workers must not be negative",
		})
	}
	if r.ChannelBuffer < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.channel_buffer",
			Message:  "channel_buffer must not be negative",
		})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue
	switch m.Backend {
	case "", "none":
	case "pushgateway":
		if _, err := url.ParseRequestURI(m.PushgatewayURL); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  fmt.Sprintf("pushgateway backend needs a valid URL: %v", err),
			})
		}
	case "datadog":
		if strings.TrimSpace(m.DatadogAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "metrics.datadog_addr",
				Message:  "datadog_addr is empty; the client default (DD_AGENT_HOST or localhost:8125) is used",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q", m.Backend),
		})
	}
	return issues
}
