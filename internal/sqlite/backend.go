// Package sqlite implements the SQLite storage backend for the movie catalog.
//
// The backend owns a single database file. Attach opens it, applies the
// embedded goose migrations, and seeds a fresh database. The users and
// movies tables are exposed through the types.UserStore and types.MovieStore
// interfaces.
package sqlite

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mesh-intelligence/marquee/internal/auth"
	"github.com/mesh-intelligence/marquee/internal/paths"
	"github.com/mesh-intelligence/marquee/pkg/types"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// driverName is the database/sql name registered by modernc.org/sqlite.
const driverName = "sqlite"

// timestampLayout matches SQLite's CURRENT_TIMESTAMP so that rows written by
// migrations and rows written here sort together.
const timestampLayout = "2006-01-02 15:04:05"

// busyTimeout is how long a connection waits on a locked database file.
const busyTimeout = 5 * time.Second

func init() {
	sqlx.BindDriver(driverName, sqlx.QUESTION)
}

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }

// goose keeps its dialect, filesystem and logger in package globals.
var gooseMu sync.Mutex

// Backend implements types.Backend on a single SQLite file.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sqlx.DB
	hasher   *auth.Hasher
	log      zerolog.Logger

	users  *usersTable
	movies *moviesTable
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(log zerolog.Logger) *Backend {
	return &Backend{log: log.With().Str("component", "sqlite").Logger()}
}

// Attach opens DataDir/Database, creating DataDir if needed, applies pending
// migrations and seeds a fresh database. An existing database file is kept.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	hasher, err := auth.NewHasher(config.PasswordScheme)
	if err != nil {
		return err
	}

	dbPath, err := paths.DatabasePath(config.DataDir, config.DatabaseFile())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w: %w", types.ErrStorageUnavailable, err)
	}

	db, err := sqlx.Open(driverName, dsn(dbPath))
	if err != nil {
		return storageErr("open database", err)
	}

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return storageErr("open database", err)
	}

	if err := b.migrate(ctx, db); err != nil {
		db.Close()
		return err
	}

	if config.Seed.Enabled {
		if err := seed(ctx, db, hasher, config.Seed, b.log); err != nil {
			db.Close()
			return err
		}
	}

	b.db = db
	b.config = config
	b.hasher = hasher
	b.attached = true
	b.users = &usersTable{backend: b}
	b.movies = &moviesTable{backend: b}

	b.log.Debug().Str("path", dbPath).Str("scheme", hasher.Scheme()).Msg("attached")
	return nil
}

// Detach closes the database. After Detach, store operations return
// ErrDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}

	b.attached = false
	b.users = nil
	b.movies = nil
	return nil
}

// Users returns the credential store.
func (b *Backend) Users() (types.UserStore, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}
	return b.users, nil
}

// Movies returns the catalog store.
func (b *Backend) Movies() (types.MovieStore, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}
	return b.movies, nil
}

// conn returns the open database or ErrDetached.
func (b *Backend) conn() (*sqlx.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached || b.db == nil {
		return nil, types.ErrDetached
	}
	return b.db, nil
}

// migrate applies the embedded migrations.
func (b *Backend) migrate(ctx context.Context, db *sqlx.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{log: b.log})
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db.DB, "migrations"); err != nil {
		return storageErr("migrate", err)
	}
	return nil
}

// dsn builds a modernc.org/sqlite data source name with per-connection
// pragmas.
func dsn(path string) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()))
	q.Add("_pragma", "foreign_keys(1)")
	return "file:" + path + "?" + q.Encode()
}

// storageErr wraps a database fault so that callers can match
// types.ErrStorageUnavailable while keeping the driver error.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, types.ErrStorageUnavailable, err)
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// formatTimestamp renders t in the stored layout.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// parseTimestamp reads a stored timestamp. Unparseable or empty values give
// the zero time.
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{timestampLayout, time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}

// gooseLogger routes goose output to zerolog at debug level.
type gooseLogger struct {
	log zerolog.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.log.Debug().Msgf(strings.TrimSpace(format), v...)
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.log.Error().Msgf(strings.TrimSpace(format), v...)
}
