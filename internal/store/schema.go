package store

import "database/sql"

const ddl = `
PRAGMA journal_mode=WAL;
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS files (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    path        TEXT NOT NULL UNIQUE,
    size_bytes  INTEGER NOT NULL DEFAULT 0,
    mod_time    DATETIME NOT NULL,
    mime_type   TEXT NOT NULL DEFAULT '',
    hash        TEXT NOT NULL,
    scanned_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    tombstoned  INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_files_tombstoned ON files(tombstoned);

CREATE TABLE IF NOT EXISTS content (
    file_id   INTEGER PRIMARY KEY REFERENCES files(id) ON DELETE CASCADE,
    snippet   TEXT NOT NULL DEFAULT '',
    embedding BLOB
);

CREATE TABLE IF NOT EXISTS activity (
    file_id       INTEGER PRIMARY KEY REFERENCES files(id) ON DELETE CASCADE,
    first_seen    DATETIME NOT NULL,
    last_accessed DATETIME NOT NULL,
    access_count  INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_activity_last_accessed ON activity(last_accessed);

CREATE TABLE IF NOT EXISTS copairs (
    id1      INTEGER NOT NULL,
    id2      INTEGER NOT NULL,
    co_count INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (id1, id2),
    CHECK (id1 < id2)
);

CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS scan_epoch (
    id    INTEGER PRIMARY KEY CHECK (id = 1),
    epoch INTEGER NOT NULL DEFAULT 0
);

INSERT OR IGNORE INTO scan_epoch (id, epoch) VALUES (1, 0);
`

// Init creates the schema if it doesn't already exist.
func Init(db *sql.DB) error {
	_, err := db.Exec(ddl)
	return err
}
