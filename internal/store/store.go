// Package store is the sole authority for persisted state: the file
// registry, content+embedding blobs, activity records, and co-occurrence
// counts (spec.md §4.1). It never exposes raw query text to callers.
package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/BugBuster18/Agentic-File-Recommender/internal/apperr"
)

func init() {
	sqlite_vec.Auto()
}

// Store is the persistence contract every other core component depends on.
type Store interface {
	UpsertFile(ctx context.Context, path string, size int64, modTime time.Time, mime, hash string) (id int64, changed bool, err error)
	PutContent(ctx context.Context, id int64, snippet string, embedding []float32) error
	GetFileByPath(ctx context.Context, path string) (*File, error)
	GetFileByID(ctx context.Context, id int64) (*File, error)
	ListLiveFiles(ctx context.Context) ([]File, error)
	ListLiveEmbeddings(ctx context.Context) ([]int64, [][]float32, error)
	Tombstone(ctx context.Context, id int64) error
	TombstoneMissing(ctx context.Context, root string, seen map[string]bool) ([]int64, error)
	RecordAccess(ctx context.Context, id int64, now time.Time) (prevLastAccessed *time.Time, err error)
	GetActivity(ctx context.Context, id int64) (*ActivityRecord, error)
	BumpCoPair(ctx context.Context, a, b int64) error
	CoCount(ctx context.Context, a, b int64) (int64, error)
	CoPairPartners(ctx context.Context, id int64) ([]int64, error)
	RecentlyAccessed(ctx context.Context, since time.Time, exclude int64) ([]int64, error)
	ScanEpoch(ctx context.Context) (int64, error)
	BumpScanEpoch(ctx context.Context) (int64, error)
	NumFiles(ctx context.Context) (int, error)
	NumEmbedded(ctx context.Context) (int, error)
	ListLiveSnippets(ctx context.Context) (ids []int64, snippets []string, err error)
	GetMeta(ctx context.Context, key string) (string, error)
	SetMeta(ctx context.Context, key, value string) error
	Close() error
}

// SQLite implements Store backed by SQLite + the sqlite-vec blob codec.
type SQLite struct {
	db  *sql.DB
	log *zap.Logger
}

// Open creates or opens a SQLite database at dbPath and initializes the
// schema. poolSize bounds the number of concurrent connections (spec.md §5).
func Open(dbPath string, poolSize int, log *zap.Logger) (*SQLite, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreError, "open db", err)
	}
	if poolSize <= 0 {
		poolSize = 4
	}
	db.SetMaxOpenConns(poolSize)
	if err := Init(db); err != nil {
		db.Close()
		return nil, apperr.Wrap(apperr.StoreError, "init schema", err)
	}
	return &SQLite{db: db, log: log}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

// UpsertFile inserts or updates a file record. changed is true iff this
// call altered hash or size — the Scanner uses this to decide whether to
// re-extract and re-embed.
func (s *SQLite) UpsertFile(ctx context.Context, path string, size int64, modTime time.Time, mime, hash string) (int64, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, apperr.Wrap(apperr.StoreError, "begin tx", err)
	}
	defer tx.Rollback()

	var existingID, existingSize int64
	var existingHash string
	err = tx.QueryRowContext(ctx, "SELECT id, hash, size_bytes FROM files WHERE path = ?", path).
		Scan(&existingID, &existingHash, &existingSize)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.ExecContext(ctx,
			`INSERT INTO files (path, size_bytes, mod_time, mime_type, hash, scanned_at, tombstoned)
			 VALUES (?, ?, ?, ?, ?, ?, 0)`,
			path, size, modTime.UTC(), mime, hash, time.Now().UTC())
		if err != nil {
			return 0, false, apperr.Wrap(apperr.StoreError, "insert file", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, false, apperr.Wrap(apperr.StoreError, "last insert id", err)
		}
		if err := tx.Commit(); err != nil {
			return 0, false, apperr.Wrap(apperr.StoreError, "commit", err)
		}
		return id, true, nil
	case err != nil:
		return 0, false, apperr.Wrap(apperr.StoreError, "lookup file", err)
	}

	changed := existingHash != hash || existingSize != size
	_, err = tx.ExecContext(ctx,
		`UPDATE files SET size_bytes = ?, mod_time = ?, mime_type = ?, hash = ?, scanned_at = ?, tombstoned = 0 WHERE id = ?`,
		size, modTime.UTC(), mime, hash, time.Now().UTC(), existingID)
	if err != nil {
		return 0, false, apperr.Wrap(apperr.StoreError, "update file", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, false, apperr.Wrap(apperr.StoreError, "commit", err)
	}
	return existingID, changed, nil
}

// PutContent atomically replaces the content row for id.
func (s *SQLite) PutContent(ctx context.Context, id int64, snippet string, embedding []float32) error {
	var blob []byte
	if embedding != nil {
		b, err := sqlite_vec.SerializeFloat32(embedding)
		if err != nil {
			return apperr.Wrap(apperr.StoreError, "serialize embedding", err)
		}
		blob = b
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO content (file_id, snippet, embedding) VALUES (?, ?, ?)
		 ON CONFLICT(file_id) DO UPDATE SET snippet = excluded.snippet, embedding = excluded.embedding`,
		id, snippet, blob)
	if err != nil {
		return apperr.Wrap(apperr.StoreError, "put content", err)
	}
	return nil
}

const fileColumns = "id, path, size_bytes, mod_time, mime_type, hash, scanned_at, tombstoned"

func scanFile(row interface{ Scan(...any) error }) (*File, error) {
	var f File
	var tomb int
	if err := row.Scan(&f.ID, &f.Path, &f.SizeBytes, &f.ModTime, &f.MimeType, &f.Hash, &f.ScannedAt, &tomb); err != nil {
		return nil, err
	}
	f.Tombstoned = tomb != 0
	return &f, nil
}

func (s *SQLite) GetFileByPath(ctx context.Context, path string) (*File, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+fileColumns+" FROM files WHERE path = ?", path)
	f, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreError, "get file by path", err)
	}
	return f, nil
}

func (s *SQLite) GetFileByID(ctx context.Context, id int64) (*File, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+fileColumns+" FROM files WHERE id = ?", id)
	f, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreError, "get file by id", err)
	}
	return f, nil
}

func (s *SQLite) ListLiveFiles(ctx context.Context) ([]File, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+fileColumns+" FROM files WHERE tombstoned = 0 ORDER BY id")
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreError, "list live files", err)
	}
	defer rows.Close()

	var out []File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.StoreError, "scan live file", err)
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

// ListLiveEmbeddings returns every (id, embedding) pair for live files with
// a non-null embedding — the Index's rebuild source.
func (s *SQLite) ListLiveEmbeddings(ctx context.Context) ([]int64, [][]float32, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.id, c.embedding FROM files f
		JOIN content c ON c.file_id = f.id
		WHERE f.tombstoned = 0 AND c.embedding IS NOT NULL`)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.StoreError, "list live embeddings", err)
	}
	defer rows.Close()

	var ids []int64
	var vecs [][]float32
	for rows.Next() {
		var id int64
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, nil, apperr.Wrap(apperr.StoreError, "scan embedding", err)
		}
		// Blobs are little-endian float32, as written by sqlite_vec.SerializeFloat32.
		if len(blob)%4 != 0 {
			return nil, nil, apperr.New(apperr.StoreError, "embedding blob length is not a multiple of 4")
		}
		vec := make([]float32, len(blob)/4)
		for i := range vec {
			vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[4*i:]))
		}
		ids = append(ids, id)
		vecs = append(vecs, vec)
	}
	return ids, vecs, rows.Err()
}

// Tombstone marks a file dead, idempotently removing content/ANN-membership
// while keeping activity and co-occurrence history (spec.md §3 lifecycle).
func (s *SQLite) Tombstone(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.StoreError, "begin tx", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "UPDATE files SET tombstoned = 1 WHERE id = ?", id); err != nil {
		return apperr.Wrap(apperr.StoreError, "tombstone file", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM content WHERE file_id = ?", id); err != nil {
		return apperr.Wrap(apperr.StoreError, "delete content on tombstone", err)
	}
	return tx.Commit()
}

// TombstoneMissing tombstones every live file under root whose path is not
// in seen, returning the ids tombstoned. Used by the Scanner after a walk.
func (s *SQLite) TombstoneMissing(ctx context.Context, root string, seen map[string]bool) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, path FROM files WHERE tombstoned = 0 AND path LIKE ? || '%'", root)
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreError, "list files under root", err)
	}
	prefix := strings.TrimSuffix(root, string(filepath.Separator)) + string(filepath.Separator)
	var toTombstone []int64
	for rows.Next() {
		var id int64
		var path string
		if err := rows.Scan(&id, &path); err != nil {
			rows.Close()
			return nil, apperr.Wrap(apperr.StoreError, "scan file under root", err)
		}
		if path != root && !strings.HasPrefix(path, prefix) {
			continue // shares root's leading characters but lies outside it
		}
		if !seen[path] {
			toTombstone = append(toTombstone, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.StoreError, "iterate files under root", err)
	}

	for _, id := range toTombstone {
		if err := s.Tombstone(ctx, id); err != nil {
			return nil, err
		}
	}
	return toTombstone, nil
}

// RecordAccess creates-or-updates an ActivityRecord, returning the prior
// last_accessed (nil if the record was just created) so Activity can form
// co-occurrence windows without a second read (spec.md §4.1).
func (s *SQLite) RecordAccess(ctx context.Context, id int64, now time.Time) (*time.Time, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreError, "begin tx", err)
	}
	defer tx.Rollback()

	var prev time.Time
	err = tx.QueryRowContext(ctx, "SELECT last_accessed FROM activity WHERE file_id = ?", id).Scan(&prev)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			"INSERT INTO activity (file_id, first_seen, last_accessed, access_count) VALUES (?, ?, ?, 1)",
			id, now.UTC(), now.UTC())
		if err != nil {
			return nil, apperr.Wrap(apperr.StoreError, "insert activity", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, apperr.Wrap(apperr.StoreError, "commit", err)
		}
		return nil, nil
	case err != nil:
		return nil, apperr.Wrap(apperr.StoreError, "lookup activity", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE activity SET last_accessed = ?, access_count = access_count + 1 WHERE file_id = ?",
		now.UTC(), id)
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreError, "update activity", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Wrap(apperr.StoreError, "commit", err)
	}
	prevUTC := prev.UTC()
	return &prevUTC, nil
}

// GetActivity returns the activity record for id, or nil if the file has
// never been accessed.
func (s *SQLite) GetActivity(ctx context.Context, id int64) (*ActivityRecord, error) {
	var rec ActivityRecord
	rec.FileID = id
	err := s.db.QueryRowContext(ctx,
		"SELECT first_seen, last_accessed, access_count FROM activity WHERE file_id = ?", id).
		Scan(&rec.FirstSeen, &rec.LastAccessed, &rec.AccessCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreError, "get activity", err)
	}
	return &rec, nil
}

// RecentlyAccessed returns ids (excluding exclude) whose last_accessed >= since.
func (s *SQLite) RecentlyAccessed(ctx context.Context, since time.Time, exclude int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT file_id FROM activity WHERE file_id != ? AND last_accessed >= ?", exclude, since.UTC())
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreError, "recently accessed", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Wrap(apperr.StoreError, "scan recently accessed", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// BumpCoPair canonicalizes order and increments co_count by 1, inserting at
// 1 on first occurrence (P4).
func (s *SQLite) BumpCoPair(ctx context.Context, a, b int64) error {
	if a == b {
		return nil
	}
	id1, id2 := a, b
	if id1 > id2 {
		id1, id2 = id2, id1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO copairs (id1, id2, co_count) VALUES (?, ?, 1)
		 ON CONFLICT(id1, id2) DO UPDATE SET co_count = co_count + 1`,
		id1, id2)
	if err != nil {
		return apperr.Wrap(apperr.StoreError, "bump copair", err)
	}
	return nil
}

// CoCount returns 0 if the pair is absent.
func (s *SQLite) CoCount(ctx context.Context, a, b int64) (int64, error) {
	id1, id2 := a, b
	if id1 > id2 {
		id1, id2 = id2, id1
	}
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT co_count FROM copairs WHERE id1 = ? AND id2 = ?", id1, id2).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, apperr.Wrap(apperr.StoreError, "co count", err)
	}
	return count, nil
}

// CoPairPartners returns every id that has a CoPair row against id,
// regardless of when that co-access happened (spec.md §4.5 step 3(b)).
func (s *SQLite) CoPairPartners(ctx context.Context, id int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id2 FROM copairs WHERE id1 = ? UNION SELECT id1 FROM copairs WHERE id2 = ?", id, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreError, "co pair partners", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var pid int64
		if err := rows.Scan(&pid); err != nil {
			return nil, apperr.Wrap(apperr.StoreError, "scan co pair partner", err)
		}
		ids = append(ids, pid)
	}
	return ids, rows.Err()
}

// ScanEpoch returns the current epoch counter the Index compares itself against.
func (s *SQLite) ScanEpoch(ctx context.Context) (int64, error) {
	var epoch int64
	err := s.db.QueryRowContext(ctx, "SELECT epoch FROM scan_epoch WHERE id = 1").Scan(&epoch)
	if err != nil {
		return 0, apperr.Wrap(apperr.StoreError, "scan epoch", err)
	}
	return epoch, nil
}

// BumpScanEpoch bumps and returns the new epoch. Called on any write that
// could invalidate the ANN index (embedding write, tombstone).
func (s *SQLite) BumpScanEpoch(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, apperr.Wrap(apperr.StoreError, "begin tx", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "UPDATE scan_epoch SET epoch = epoch + 1 WHERE id = 1"); err != nil {
		return 0, apperr.Wrap(apperr.StoreError, "bump scan epoch", err)
	}
	var epoch int64
	if err := tx.QueryRowContext(ctx, "SELECT epoch FROM scan_epoch WHERE id = 1").Scan(&epoch); err != nil {
		return 0, apperr.Wrap(apperr.StoreError, "read bumped epoch", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, apperr.Wrap(apperr.StoreError, "commit", err)
	}
	return epoch, nil
}

func (s *SQLite) NumFiles(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files WHERE tombstoned = 0").Scan(&n)
	if err != nil {
		return 0, apperr.Wrap(apperr.StoreError, "num files", err)
	}
	return n, nil
}

func (s *SQLite) NumEmbedded(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM files f JOIN content c ON c.file_id = f.id
		WHERE f.tombstoned = 0 AND c.embedding IS NOT NULL`).Scan(&n)
	if err != nil {
		return 0, apperr.Wrap(apperr.StoreError, "num embedded", err)
	}
	return n, nil
}

// ListLiveSnippets returns every live file's stored text snippet, for
// callers that need to recompute embeddings without re-walking the
// filesystem or re-running text extraction (e.g. after an embedding model
// change).
func (s *SQLite) ListLiveSnippets(ctx context.Context) ([]int64, []string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.id, c.snippet FROM files f
		JOIN content c ON c.file_id = f.id
		WHERE f.tombstoned = 0 AND c.snippet != ''`)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.StoreError, "list live snippets", err)
	}
	defer rows.Close()

	var ids []int64
	var snippets []string
	for rows.Next() {
		var id int64
		var snippet string
		if err := rows.Scan(&id, &snippet); err != nil {
			return nil, nil, apperr.Wrap(apperr.StoreError, "scan live snippet", err)
		}
		ids = append(ids, id)
		snippets = append(snippets, snippet)
	}
	return ids, snippets, rows.Err()
}

// GetMeta returns a metadata value by key, or "" if not set.
func (s *SQLite) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", apperr.Wrap(apperr.StoreError, "get meta", err)
	}
	return value, nil
}

// SetMeta sets a metadata key-value pair.
func (s *SQLite) SetMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return apperr.Wrap(apperr.StoreError, "set meta", err)
	}
	return nil
}

var _ Store = (*SQLite)(nil)
