package stores

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/colonyops/ans/internal/data/db"
)

var (
	corruptionCodes = []int{sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CANTOPEN}

	corruptionMessages = []string{
		"database disk image is malformed",
		"file is not a database",
		"database corruption",
	}
)

func sqliteCode(err error) (int, bool) {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code(), true
	}
	return 0, false
}

// IsBusyError reports whether err is SQLITE_BUSY.
func IsBusyError(err error) bool {
	code, ok := sqliteCode(err)
	return ok && code == sqlite3.SQLITE_BUSY
}

// IsCorruptionError reports whether err means the database file is unusable.
func IsCorruptionError(err error) bool {
	if code, ok := sqliteCode(err); ok {
		return slices.Contains(corruptionCodes, code)
	}
	msg := err.Error()
	return slices.ContainsFunc(corruptionMessages, func(s string) bool { return strings.Contains(msg, s) })
}

// IsNotFoundError reports whether err is sql.ErrNoRows.
func IsNotFoundError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// RecoverFromCorruption moves the database file and its WAL and SHM
// companions to "<file>.corrupt.<timestamp>" so the next db.Open starts
// from an empty schema. Missing files are skipped; a companion that cannot
// be moved is deleted.
func RecoverFromCorruption(dataDir string) error {
	dbPath := filepath.Join(dataDir, db.FileName)
	backupPath := fmt.Sprintf("%s.corrupt.%s", dbPath, time.Now().Format("20060102-150405"))

	for _, suffix := range []string{"", "-wal", "-shm"} {
		src := dbPath + suffix
		err := os.Rename(src, backupPath+suffix)
		if err == nil || os.IsNotExist(err) {
			continue
		}
		if suffix == "" {
			return fmt.Errorf("backup corrupted database: %w", err)
		}
		if rmErr := os.Remove(src); rmErr != nil && !os.IsNotExist(rmErr) {
			return fmt.Errorf("backup or remove %s file: %w", strings.TrimPrefix(suffix, "-"), err)
		}
	}

	return nil
}
