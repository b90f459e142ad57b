// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// It backs the local sample API only. The directory itself never stores
// anything; this database stands in for the remote sample-data service
// during development and tests.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// modernc.org/sqlite is a pure Go translation of the SQLite C code, so no C
// compiler is needed and cross-compilation just works.
package sqlite

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"

	// Also registers the "sqlite" driver with database/sql.
	sqlitedriver "modernc.org/sqlite"
)

// SQLite's lower() folds ASCII only and this build has no ICU, so searches
// go through fold(), which lowercases with Go's Unicode tables. Registered
// functions apply to connections opened afterwards, hence init.
func init() {
	sqlitedriver.MustRegisterDeterministicScalarFunction("fold", 1, fold)
}

func fold(_ *sqlitedriver.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("fold: unsupported argument type %T", v)
	}
}

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/users.db" → file-based database (persistent)
//   - ":memory:"      → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every pooled connection to ":memory:" would get its own empty
	// database, so keep exactly one.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while the seeder writes.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE ... IF NOT EXISTS keeps it idempotent.
//
// The column names match the JSON field names of the sample-data API one to
// one, which keeps the scan code and the wire format easy to compare.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id              INTEGER PRIMARY KEY,
			first_name      TEXT NOT NULL,
			last_name       TEXT NOT NULL,
			email           TEXT NOT NULL DEFAULT '',
			phone           TEXT NOT NULL DEFAULT '',
			gender          TEXT NOT NULL DEFAULT '',
			date_of_birth   TEXT NOT NULL DEFAULT '',
			job             TEXT NOT NULL DEFAULT '',
			street          TEXT NOT NULL DEFAULT '',
			city            TEXT NOT NULL DEFAULT '',
			state           TEXT NOT NULL DEFAULT '',
			zipcode         TEXT NOT NULL DEFAULT '',
			country         TEXT NOT NULL DEFAULT '',
			latitude        REAL NOT NULL DEFAULT 0,
			longitude       REAL NOT NULL DEFAULT 0,
			profile_picture TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_users_last_name ON users(last_name);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}
	return nil
}
