package ddl

// ColumnDef describes one column of a table definition. Name is unquoted;
// quoting happens at render time.
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	// Default is a raw SQL expression.
	Default string
}

// TableDef holds the table name in dotted form (e.g. "schema.table") and the
// ordered columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}
