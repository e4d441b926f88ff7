package sqlite

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "file:teams.db?cache=shared"
	//   "teams.db" (interpreted by the driver)
	DSN string

	// Table is the target table name. "main.teams" style names are accepted.
	Table string

	// Columns is the ordered list of destination columns.
	Columns []string
}
