package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects placeholder style and DDL.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// DB is a *sql.DB that knows its dialect. Queries are written with "?"
// placeholders and passed through Rebind.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Connect opens and pings a PostgreSQL database.
func Connect(connString string) (*DB, error) {
	sqlDB, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, err
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return &DB{DB: sqlDB, Dialect: Postgres}, nil
}

// OpenSQLite opens a pure-Go SQLite database at path and applies the schema.
// Writes are serialized through a single connection.
func OpenSQLite(path string) (*DB, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	d := &DB{DB: sqlDB, Dialect: SQLite}
	if err := Migrate(context.Background(), d); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return d, nil
}

// Rebind rewrites "?" placeholders to "$1, $2, ..." for PostgreSQL.
func (d *DB) Rebind(query string) string {
	if d.Dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
