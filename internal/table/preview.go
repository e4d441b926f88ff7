package table

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Preview renders the first limit rows of t as a text table. Numeric
// columns are right aligned and headers carry the column kind. A limit <= 0
// renders every row.
func (t *Table) Preview(w io.Writer, limit int) error {
	if limit <= 0 || limit > t.rows {
		limit = t.rows
	}

	align := make([]tw.Align, len(t.columns))
	headers := make([]any, len(t.columns))
	for i, c := range t.columns {
		headers[i] = fmt.Sprintf("%s (%s)", c.Name(), c.Kind())
		if c.Kind().IsNumeric() {
			align[i] = tw.AlignRight
		} else {
			align[i] = tw.AlignLeft
		}
	}

	config := tablewriter.Config{}
	config.Row.Alignment = tw.CellAlignment{PerColumn: align}
	table := tablewriter.NewTable(w, tablewriter.WithConfig(config))
	table.Header(headers...)

	for r := 0; r < limit; r++ {
		row := make([]any, len(t.columns))
		for i, c := range t.columns {
			row[i] = c.Value(r).String()
		}
		if err := table.Append(row...); err != nil {
			return fmt.Errorf("table: preview row %d: %w", r, err)
		}
	}
	return table.Render()
}
