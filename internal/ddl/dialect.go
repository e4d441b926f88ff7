package ddl

import (
	"fmt"
	"strings"

	"tablemerge/internal/table"
)

// Dialect adapts rendering to one SQL backend.
type Dialect struct {
	Name string

	// QuoteIdent quotes a single identifier segment. Nil leaves names as-is.
	QuoteIdent func(string) string

	// MapKind returns the column type for a table kind. key is set for the
	// primary key column, for backends that cannot index unbounded text.
	MapKind func(k table.Kind, key bool) string

	// Guard wraps a CREATE TABLE body so it does nothing when the table
	// exists. It receives the quoted FQN. Nil emits a bare CREATE TABLE.
	Guard func(fqn, stmt string) string
}

// Generic renders unquoted ANSI-ish SQL and has no existence guard.
var Generic = Dialect{
	Name: "generic",
	MapKind: func(k table.Kind, _ bool) string {
		switch {
		case k == table.KindInt8 || k == table.KindInt16:
			return "SMALLINT"
		case k == table.KindInt32:
			return "INTEGER"
		case k == table.KindInt64:
			return "BIGINT"
		case k == table.KindFloat64:
			return "DOUBLE PRECISION"
		default:
			return "TEXT"
		}
	},
}

// QuoteWith returns a QuoteIdent that wraps names in left and right and
// doubles any embedded right delimiter.
func QuoteWith(left, right string) func(string) string {
	return func(id string) string {
		return left + strings.ReplaceAll(id, right, right+right) + right
	}
}

func (d Dialect) quote(id string) string {
	if d.QuoteIdent == nil {
		return id
	}
	return d.QuoteIdent(id)
}

// QuoteFQN quotes every non-empty dotted segment of fqn.
func (d Dialect) QuoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, d.quote(p))
		}
	}
	return strings.Join(out, ".")
}

// FromTable derives a definition from the column kinds of t. The key column
// becomes the primary key when every row has a distinct, present key, which
// holds after rows are collapsed. Other columns are nullable.
func FromTable(fqn string, t *table.Table, d Dialect) (TableDef, error) {
	if t.NumCols() == 0 {
		return TableDef{}, fmt.Errorf("ddl: table %s has no columns", fqn)
	}
	pk := uniqueKey(t)
	def := TableDef{FQN: fqn, Columns: make([]ColumnDef, 0, t.NumCols())}
	for _, c := range t.Columns() {
		isKey := pk && c.Name() == t.Key()
		def.Columns = append(def.Columns, ColumnDef{
			Name:       c.Name(),
			SQLType:    d.MapKind(c.Kind(), isKey),
			Nullable:   !isKey,
			PrimaryKey: isKey,
		})
	}
	return def, nil
}

func uniqueKey(t *table.Table) bool {
	kc := t.KeyColumn()
	if kc == nil || kc.MissingCount() > 0 {
		return false
	}
	seen := make(map[string]struct{}, kc.Len())
	for i := 0; i < kc.Len(); i++ {
		// Numeric kinds format canonically, so the text form is a safe key.
		s := kc.Value(i).String()
		if _, dup := seen[s]; dup {
			return false
		}
		seen[s] = struct{}{}
	}
	return true
}
