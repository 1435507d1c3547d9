package store

import "time"

// File is the registry row for one indexed path (spec.md §3). Identity is
// the absolute, normalized path; ID is assigned on first registration and
// is never reused even after the file is tombstoned.
type File struct {
	ID         int64
	Path       string
	SizeBytes  int64
	ModTime    time.Time
	MimeType   string // empty if unknown
	Hash       string // SHA-256, hex
	ScannedAt  time.Time
	Tombstoned bool
}

// Content is the 1:1 companion row holding a file's extracted snippet and
// embedding vector. Embedding is nil iff Snippet is empty.
type Content struct {
	FileID    int64
	Snippet   string
	Embedding []float32
}

// ActivityRecord tracks when and how often a file has been accessed.
// Created lazily on first access; AccessCount is monotonically
// non-decreasing and >= 1 whenever the record exists.
type ActivityRecord struct {
	FileID       int64
	FirstSeen    time.Time
	LastAccessed time.Time
	AccessCount  int64
}

// CoPair is an undirected co-access pair with ID1 < ID2 (P4).
type CoPair struct {
	ID1     int64
	ID2     int64
	CoCount int64
}
