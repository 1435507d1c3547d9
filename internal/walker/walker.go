// Package walker enumerates candidate files under a root for the Scanner
// (spec.md §4.2 step 1), kept close to the teacher's filepath.WalkDir-based
// walker: sorted lexicographic traversal (fs.WalkDir's built-in order)
// gives scan determinism for free (P2, §8 scenario 1) without an explicit
// sort pass.
package walker

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// FileInfo holds metadata about a discovered candidate file.
type FileInfo struct {
	Path    string // absolute path
	RelPath string // relative to root, slash-separated
	Size    int64
}

// Options configures admissibility for Walk.
type Options struct {
	AllowedExts    map[string]bool // extension without dot -> admissible
	IgnorePatterns []string        // directory-name / relative-path patterns
	MaxFileBytes   int64
}

// Walk traverses the directory tree rooted at root and sends admissible
// files on the returned channel, applying the extension allow-list, size
// ceiling, and ignore rules from opts (spec.md §4.2 step 1).
func Walk(root string, opts Options) (<-chan FileInfo, <-chan error) {
	files := make(chan FileInfo, 64)
	errs := make(chan error, 1)

	go func() {
		defer close(files)
		defer close(errs)

		absRoot, err := filepath.Abs(root)
		if err != nil {
			errs <- err
			return
		}

		err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // per-entry errors are skipped, never abort the walk
			}

			if d.IsDir() {
				if path == absRoot {
					return nil
				}
				rel, _ := filepath.Rel(absRoot, path)
				if matchesIgnore(d.Name(), filepath.ToSlash(rel), opts.IgnorePatterns) {
					return filepath.SkipDir
				}
				return nil
			}

			if d.Type()&fs.ModeSymlink != 0 {
				return nil
			}

			rel, _ := filepath.Rel(absRoot, path)
			relSlash := filepath.ToSlash(rel)
			if matchesIgnore(d.Name(), relSlash, opts.IgnorePatterns) {
				return nil
			}

			ext := strings.TrimPrefix(filepath.Ext(path), ".")
			if !opts.AllowedExts[ext] {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return nil
			}
			if info.Size() == 0 || (opts.MaxFileBytes > 0 && info.Size() > opts.MaxFileBytes) {
				return nil
			}

			files <- FileInfo{Path: path, RelPath: relSlash, Size: info.Size()}
			return nil
		})
		if err != nil {
			errs <- err
		}
	}()

	return files, errs
}

// matchesIgnore checks if a directory name or relative path matches any
// ignore pattern — exact name, path prefix, or glob.
func matchesIgnore(name, relPath string, patterns []string) bool {
	for _, p := range patterns {
		if name == p {
			return true
		}
		if strings.HasPrefix(relPath, p) {
			return true
		}
		if matched, _ := filepath.Match(p, relPath); matched {
			return true
		}
		if matched, _ := filepath.Match(p, name); matched {
			return true
		}
	}
	return false
}
