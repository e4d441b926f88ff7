// Package pipeline runs the merge and the optional clean-up stages over a set
// of loaded sources, in a fixed order:
//
//	merge → numeric_only → collapse → coalesce → optimize
//
// Only the merge is mandatory; the others are toggled by config.Stages.
// Every stage is timed and reported to the metrics backend.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tablemerge/internal/config"
	"tablemerge/internal/metrics"
	"tablemerge/internal/table"
	"tablemerge/internal/transformer"
	"tablemerge/internal/transformer/builtin"
)

// StageReport is the shape of the table after one stage.
type StageReport struct {
	Name     string
	Rows     int
	Cols     int
	Memory   int64
	Duration time.Duration
}

// Report describes a completed run.
type Report struct {
	RunID       string
	Sources     int
	Stages      []StageReport
	Diagnostics []transformer.Diagnostic
}

// Last returns the report of the final stage.
func (r Report) Last() StageReport {
	if len(r.Stages) == 0 {
		return StageReport{}
	}
	return r.Stages[len(r.Stages)-1]
}

// Run merges sources and applies the stages enabled in cfg. The sources are
// never modified. Diagnostics from every stage are collected in the report
// even when Run fails.
func Run(ctx context.Context, cfg config.Pipeline, sources []builtin.Source, log zerolog.Logger) (*table.Table, Report, error) {
	rep := Report{RunID: RunID(ctx), Sources: len(sources)}
	log = log.With().Str("run_id", rep.RunID).Str("job", cfg.Job).Logger()
	diag := &transformer.Diagnostics{}

	var loaded int64
	for _, s := range sources {
		if s.Table != nil {
			loaded += int64(s.Table.NumRows())
		}
	}
	metrics.RecordRow(cfg.Job, "loaded", loaded)
	log.Info().Int("sources", len(sources)).Int64("rows", loaded).Str("key", cfg.KeyColumn).Msg("pipeline started")

	merger := builtin.Merger{Key: cfg.KeyColumn, Log: log, Diag: diag}
	start := time.Now()
	t, err := merger.Merge(ctx, sources)
	metrics.RecordStep(cfg.Job, "merge", err, time.Since(start))
	if err != nil {
		rep.Diagnostics = diag.All()
		return nil, rep, err
	}
	rep.Stages = append(rep.Stages, shape("merge", t, time.Since(start)))
	metrics.RecordRow(cfg.Job, "merged", int64(t.NumRows()))

	for _, st := range stagesFor(cfg, log, diag) {
		if err := ctx.Err(); err != nil {
			rep.Diagnostics = diag.All()
			return nil, rep, err
		}
		before := t.NumRows()
		start := time.Now()
		next, err := st.Apply(ctx, t)
		d := time.Since(start)
		metrics.RecordStep(cfg.Job, st.Name(), err, d)
		if err != nil {
			rep.Diagnostics = diag.All()
			return nil, rep, fmt.Errorf("%s: %w", st.Name(), err)
		}
		t = next
		rep.Stages = append(rep.Stages, shape(st.Name(), t, d))
		if dropped := before - t.NumRows(); dropped > 0 {
			metrics.RecordRow(cfg.Job, "dropped", int64(dropped))
		}
		log.Info().
			Str("stage", st.Name()).
			Int("rows", t.NumRows()).
			Int("cols", t.NumCols()).
			Dur("took", d).
			Msg("stage done")
	}

	rep.Diagnostics = diag.All()
	for _, d := range rep.Diagnostics {
		log.Warn().Str("stage", d.Stage).Str("subject", d.Subject).Err(d.Err).Msg(d.Message)
	}
	return t, rep, nil
}

type runIDKey struct{}

// WithRunID returns a context carrying id as the run id Run reports and logs.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID returns the run id carried by ctx, or a fresh random one.
func RunID(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// stagesFor returns the enabled post-merge stages in their fixed order.
func stagesFor(cfg config.Pipeline, log zerolog.Logger, diag *transformer.Diagnostics) transformer.Chain {
	var c transformer.Chain
	if cfg.Stages.ExcludeNonNumeric {
		c = append(c, builtin.NumericOnly{Log: log, Diag: diag})
	}
	if cfg.Stages.CollapseRows {
		c = append(c, builtin.Collapse{Log: log, Diag: diag})
	}
	if cfg.Stages.CoalesceColumns {
		c = append(c, builtin.Coalesce{Workers: cfg.Runtime.Workers, Log: log, Diag: diag})
	}
	if cfg.Stages.OptimizeTypes {
		c = append(c, builtin.Optimize{Workers: cfg.Runtime.Workers, Log: log, Diag: diag})
	}
	return c
}

func shape(name string, t *table.Table, d time.Duration) StageReport {
	return StageReport{
		Name:     name,
		Rows:     t.NumRows(),
		Cols:     t.NumCols(),
		Memory:   t.MemoryUsage(),
		Duration: d,
	}
}
