package sqldb

import (
	"fmt"
	"strings"
)

// Dialect captures the differences between the supported SQL engines.
type Dialect struct {
	Name   string
	Driver string
	// Numbered placeholders ($1) instead of ?.
	Numbered bool
	// RowLocks enables SELECT ... FOR UPDATE inside Update, preceded by a
	// transaction-scoped advisory lock on the key so that first writes of a
	// missing row serialize too.
	RowLocks bool
	// SingleConn pins the pool to one connection so transactions serialize.
	SingleConn bool
	// Pragmas run once after connecting.
	Pragmas []string
}

var (
	// SQLite uses the pure Go modernc.org/sqlite driver.
	SQLite = Dialect{
		Name:       "sqlite",
		Driver:     "sqlite",
		SingleConn: true,
		Pragmas: []string{
			"PRAGMA busy_timeout = 5000",
			"PRAGMA journal_mode = WAL",
		},
	}

	// Postgres uses github.com/lib/pq.
	Postgres = Dialect{
		Name:     "postgres",
		Driver:   "postgres",
		Numbered: true,
		RowLocks: true,
	}
)

// DialectByName resolves "sqlite" or "postgres" (alias "pg").
func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	}
	return Dialect{}, fmt.Errorf("unknown sql dialect %q", name)
}

func (d Dialect) bind(n int) string {
	if d.Numbered {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// queries holds the statements for one table.
type queries struct {
	schema    string
	get       string
	getLocked string
	lock      string
	upsert    string
	remove    string
}

func (d Dialect) queries(table string) queries {
	q := queries{
		schema: fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`, table),
		get: fmt.Sprintf("SELECT value FROM %s WHERE key = %s", table, d.bind(1)),
		upsert: fmt.Sprintf("INSERT INTO %s (key, value) VALUES (%s, %s) ON CONFLICT (key) DO UPDATE SET value = excluded.value",
			table, d.bind(1), d.bind(2)),
		remove: fmt.Sprintf("DELETE FROM %s WHERE key = %s", table, d.bind(1)),
	}
	q.getLocked = q.get
	if d.RowLocks {
		q.getLocked += " FOR UPDATE"
		q.lock = fmt.Sprintf("SELECT pg_advisory_xact_lock(hashtext(%s))", d.bind(1))
	}
	return q
}
