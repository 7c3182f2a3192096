// Package testdb points the service at throwaway in-memory SQLite databases
// so every test package gets real SQL without a MySQL server. The store only
// emits portable SQL, so the production schema maps straight over.
package testdb

import (
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	_ "modernc.org/sqlite"

	"noteboard/db"
)

// counter keeps each test's in-memory database isolated from the others.
var counter atomic.Int64

const schema = `
CREATE TABLE users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT UNIQUE NOT NULL,
	password_hash TEXT NOT NULL,
	is_superuser BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TEXT NOT NULL
);
CREATE TABLE notes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	pinned BOOLEAN NOT NULL DEFAULT FALSE,
	archived BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);`

// Open creates a fresh database, installs the schema, and assigns it to
// db.DB for the duration of the test.
func Open(t *testing.T) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:noteboard_test_%d?mode=memory&cache=shared", counter.Add(1))
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	// One pinned connection, or the pool could drop the last handle and the
	// in-memory database with it.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	if _, err := conn.Exec(schema); err != nil {
		t.Fatalf("create test schema: %v", err)
	}
	db.DB = conn
	t.Cleanup(func() { conn.Close() })
	return conn
}
