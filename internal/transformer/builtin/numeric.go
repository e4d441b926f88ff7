package builtin

import (
	"context"

	"github.com/rs/zerolog"

	"tablemerge/internal/table"
	"tablemerge/internal/transformer"
)

// NumericOnly drops every non-numeric column except the key.
type NumericOnly struct {
	Log  zerolog.Logger
	Diag *transformer.Diagnostics
}

func (NumericOnly) Name() string { return "numeric_only" }

func (n NumericOnly) Apply(_ context.Context, in *table.Table) (*table.Table, error) {
	var drop []string
	for _, c := range in.Columns() {
		if c.Name() == in.Key() || c.Kind().IsNumeric() {
			continue
		}
		drop = append(drop, c.Name())
		n.Diag.Add(transformer.Diagnostic{Stage: n.Name(), Subject: c.Name(), Message: "non-numeric column dropped"})
	}
	if len(drop) == 0 {
		return in, nil
	}
	n.Log.Info().Strs("columns", drop).Msg("non-numeric columns dropped")
	return in.Drop(drop...), nil
}
