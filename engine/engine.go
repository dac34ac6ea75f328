package engine

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver
)

// DriverName is the database/sql driver name registered by modernc.org/sqlite.
const DriverName = "sqlite"

// Options controls the per-connection pragmas encoded into a DSN.
type Options struct {
	// BusyTimeout is how long a connection waits on a locked database
	// before failing with SQLITE_BUSY.
	BusyTimeout time.Duration
	// Synchronous is the synchronous pragma value (OFF, NORMAL, FULL).
	Synchronous string
	// ReadOnly opens the database with mode=ro.
	ReadOnly bool
}

// DefaultOptions returns the pragmas used for the vector store: a five
// second busy timeout and synchronous=NORMAL, which is durable under WAL.
func DefaultOptions() Options {
	return Options{BusyTimeout: 5 * time.Second, Synchronous: "NORMAL"}
}

// DSN builds a file: DSN for path carrying the pragmas as _pragma query
// parameters, so that every pooled connection is configured the same way.
// ":memory:" and DSNs that already start with "file:" are extended in place.
func DSN(path string, opts Options) string {
	params := url.Values{}
	if opts.BusyTimeout > 0 {
		params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", opts.BusyTimeout.Milliseconds()))
	}
	if opts.Synchronous != "" {
		params.Add("_pragma", fmt.Sprintf("synchronous(%s)", strings.ToUpper(opts.Synchronous)))
	}
	if opts.ReadOnly {
		params.Add("mode", "ro")
	}
	dsn := path
	if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
		dsn = "file:" + dsn
	}
	if len(params) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + params.Encode()
}

// Open opens a SQLite database using the modernc.org/sqlite driver.
//
// For file-based databases, pass a path like "./db.sqlite" or a DSN built
// with DSN. For in-memory databases, pass ":memory:".
func Open(dsn string) (*sql.DB, error) { return sql.Open(DriverName, dsn) }

// EnableWAL switches the database to write-ahead journaling and returns the
// journal mode reported by SQLite. In-memory databases report "memory".
func EnableWAL(ctx context.Context, db *sql.DB) (string, error) {
	var mode string
	if err := db.QueryRowContext(ctx, "PRAGMA journal_mode = WAL").Scan(&mode); err != nil {
		return "", fmt.Errorf("engine: enable WAL: %w", err)
	}
	return strings.ToLower(mode), nil
}

// IntegrityCheck runs PRAGMA integrity_check and returns the first verdict
// row ("ok" for a healthy database).
func IntegrityCheck(ctx context.Context, db *sql.DB) (string, error) {
	var verdict string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&verdict); err != nil {
		return "", fmt.Errorf("engine: integrity check: %w", err)
	}
	return verdict, nil
}
