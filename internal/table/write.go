package table

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"prosody/internal/fileutil"
)

// ErrLocked is returned when another run holds the output lock.
var ErrLocked = errors.New("output is locked by another run")

// IsSQLitePath reports whether path names a SQLite database (.db, .sqlite,
// .sqlite3).
func IsSQLitePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	default:
		return false
	}
}

// LockPath returns the lock file guarding path.
func LockPath(path string) string {
	return path + ".lock"
}

// WriteFile writes t to path while holding LockPath(path). CSV output
// replaces path atomically; SQLite output is appended to the database.
func WriteFile(ctx context.Context, path string, t *Table, run RunInfo) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	lock := flock.New(LockPath(path))
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire output lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", path, ErrLocked)
	}
	defer func() { _ = lock.Unlock() }()

	if IsSQLitePath(path) {
		return WriteSQLite(ctx, path, t, run)
	}
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return WriteCSV(w, t)
	})
}
