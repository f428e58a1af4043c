// Package poststest opens a throwaway SQLite database with the posts schema
// for tests that need a real store.
package poststest

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Schema mirrors migrations/000001_create_posts.up.sql in SQLite dialect.
const Schema = `
CREATE TABLE posts (
    id                 INTEGER PRIMARY KEY AUTOINCREMENT,
    title              TEXT      NOT NULL,
    body_text          TEXT      NOT NULL,
    photo_reference    TEXT,
    photo_archive_key  TEXT,
    author_identifier  TEXT      NOT NULL,
    status             TEXT      NOT NULL DEFAULT 'pending'
        CHECK (status IN ('pending', 'approved', 'rejected', 'needs_edit')),
    review_note        TEXT,
    reviewed_by        TEXT,
    reviewed_at        TIMESTAMP,
    channel_message_id INTEGER,
    created_at         TIMESTAMP NOT NULL
);`

// Open creates a file database in t.TempDir and applies Schema.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "posts.db")
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(Schema); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}
