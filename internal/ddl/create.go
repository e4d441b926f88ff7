// Package ddl models the CREATE TABLE statement for a merged table and
// renders it for the SQL backends.
//
// A TableDef is usually derived from a table's column kinds with FromTable;
// each backend contributes a Dialect (quoting, type mapping, existence
// guard).
package ddl

import (
	"fmt"
	"strings"
)

// BuildCreateTableSQL renders t in dialect d:
//
//	CREATE TABLE <fqn> (
//	  <col> <type> [NOT NULL] [DEFAULT <expr>],
//	  ...,
//	  PRIMARY KEY (<pk>, ...)
//	);
//
// wrapped by d.Guard when set. Primary key columns are always NOT NULL.
func BuildCreateTableSQL(t TableDef, d Dialect) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s ddl: table FQN must not be empty", d.Name)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s ddl: at least one column is required", d.Name)
	}

	cols := make([]string, 0, len(t.Columns)+1)
	var pks []string
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("%s ddl: column with empty name in table %s", d.Name, fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("%s ddl: column %s missing SQLType", d.Name, name)
		}

		var sb strings.Builder
		sb.WriteString(d.quote(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable || c.PrimaryKey {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, d.quote(name))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	q := d.QuoteFQN(fqn)
	stmt := fmt.Sprintf("CREATE TABLE %s (\n  %s\n);", q, strings.Join(cols, ",\n  "))
	if d.Guard != nil {
		stmt = d.Guard(q, stmt)
	}
	return stmt, nil
}
