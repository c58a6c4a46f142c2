package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/marquee/internal/auth"
	"github.com/mesh-intelligence/marquee/pkg/types"
)

// newTestBackend attaches a seeded backend in a temp directory.
func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	return attachTestBackend(t, types.Config{
		Backend: types.BackendSQLite,
		DataDir: t.TempDir(),
		Seed:    types.SeedConfig{Enabled: true},
	})
}

func attachTestBackend(t *testing.T, cfg types.Config) *Backend {
	t.Helper()
	b := NewBackend(zerolog.Nop())
	require.NoError(t, b.Attach(cfg))
	t.Cleanup(func() { b.Detach() })
	return b
}

func TestBackend_Attach(t *testing.T) {
	tmpDir := t.TempDir()

	b := NewBackend(zerolog.Nop())
	config := types.Config{
		Backend: types.BackendSQLite,
		DataDir: tmpDir,
	}

	err := b.Attach(config)
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	dbPath := filepath.Join(tmpDir, types.DefaultDatabaseFile)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("%s not created", types.DefaultDatabaseFile)
	}

	err = b.Attach(config)
	if err != types.ErrAlreadyAttached {
		t.Errorf("expected ErrAlreadyAttached, got %v", err)
	}

	b.Detach()
}

func TestBackend_AttachCreatesDataDir(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "nested", "db")
	attachTestBackend(t, types.Config{Backend: types.BackendSQLite, DataDir: dataDir, Database: "catalog.db"})

	_, err := os.Stat(filepath.Join(dataDir, "catalog.db"))
	assert.NoError(t, err)
}

func TestBackend_AttachRejectsDatabaseOutsideDataDir(t *testing.T) {
	dir := t.TempDir()
	b := NewBackend(zerolog.Nop())
	err := b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: filepath.Join(dir, "db"), Database: "../escape.db"})
	assert.ErrorIs(t, err, types.ErrInvalidConfig)
	assert.NoFileExists(t, filepath.Join(dir, "escape.db"))
}

func TestBackend_AttachRejectsInvalidConfig(t *testing.T) {
	b := NewBackend(zerolog.Nop())
	err := b.Attach(types.Config{Backend: "postgres", DataDir: t.TempDir()})
	assert.ErrorIs(t, err, types.ErrBackendUnknown)

	_, err = b.Movies()
	assert.ErrorIs(t, err, types.ErrDetached)
}

func TestBackend_Detach(t *testing.T) {
	b := NewBackend(zerolog.Nop())
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))

	movies, err := b.Movies()
	require.NoError(t, err)

	require.NoError(t, b.Detach())
	assert.NoError(t, b.Detach(), "second Detach should not error")

	_, err = b.Users()
	assert.ErrorIs(t, err, types.ErrDetached)
	_, err = b.Movies()
	assert.ErrorIs(t, err, types.ErrDetached)

	// A store handed out before Detach stops working too.
	_, err = movies.List(context.Background())
	assert.ErrorIs(t, err, types.ErrDetached)
}

func TestBackend_DataPersistsAcrossRestart(t *testing.T) {
	ctx := context.Background()
	cfg := types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir(), Seed: types.SeedConfig{Enabled: true}}

	b := NewBackend(zerolog.Nop())
	require.NoError(t, b.Attach(cfg))
	movies, err := b.Movies()
	require.NoError(t, err)
	id, err := movies.Add(ctx, types.MovieFields{Title: "Roma", Genre: "Drama"}, "admin")
	require.NoError(t, err)
	require.NoError(t, b.Detach())

	b2 := attachTestBackend(t, cfg)
	movies, err = b2.Movies()
	require.NoError(t, err)
	got, err := movies.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Roma", got.Title)

	all, err := movies.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(seedMovies)+1, "seed runs once")
}

// legacyDB writes a database in the shape of the first schema version, with
// no migration bookkeeping, the way older installs left it.
func legacyDB(t *testing.T, dataDir string) {
	t.Helper()
	db, err := sql.Open(driverName, filepath.Join(dataDir, types.DefaultDatabaseFile))
	require.NoError(t, err)
	defer db.Close()

	stmts := []string{
		`CREATE TABLE peliculas (id INTEGER PRIMARY KEY AUTOINCREMENT, nombre TEXT NOT NULL, genero TEXT NOT NULL,
			idioma TEXT, traduccion TEXT, fecha TEXT, pais TEXT)`,
		`CREATE TABLE usuarios (id INTEGER PRIMARY KEY AUTOINCREMENT, username TEXT UNIQUE NOT NULL,
			password TEXT NOT NULL, nombre TEXT)`,
	}
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err)
	}
	_, err = db.Exec("INSERT INTO usuarios (username, password, nombre) VALUES (?, ?, ?)",
		"admin", auth.Hash("admin123"), "Administrador")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO usuarios (username, password, nombre) VALUES (?, ?, ?)",
		"pepe", auth.Hash("pepe"), "Pepe")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO peliculas (nombre, genero, idioma, traduccion, fecha, pais) VALUES (?, ?, ?, ?, ?, ?)",
		"Inception", "Ciencia Ficción", "Inglés", "Sí", "2010-07-16", "USA")
	require.NoError(t, err)
}

func TestBackend_MigratesLegacyDatabase(t *testing.T) {
	ctx := context.Background()
	dataDir := t.TempDir()
	legacyDB(t, dataDir)

	b := attachTestBackend(t, types.Config{Backend: types.BackendSQLite, DataDir: dataDir, Seed: types.SeedConfig{Enabled: true}})
	users, err := b.Users()
	require.NoError(t, err)

	admin, ok, err := users.Authenticate(ctx, "admin", "admin123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, types.RoleAdmin, admin.Role)
	assert.True(t, admin.Active)
	assert.False(t, admin.CreatedAt.IsZero(), "creation time backfilled")

	pepe, err := users.GetByUsername(ctx, "pepe")
	require.NoError(t, err)
	assert.Equal(t, types.RoleViewer, pepe.Role, "legacy default role reads as viewer")

	_, err = users.GetByUsername(ctx, "viewer")
	assert.ErrorIs(t, err, types.ErrNotFound, "existing databases get no new accounts")

	movies, err := b.Movies()
	require.NoError(t, err)
	all, err := movies.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Inception", all[0].Title)
	assert.True(t, all[0].Translation)
	assert.Empty(t, all[0].CreatedBy)
}

func TestBackend_BcryptUpgradeOnLogin(t *testing.T) {
	ctx := context.Background()
	dataDir := t.TempDir()
	legacyDB(t, dataDir)

	b := attachTestBackend(t, types.Config{
		Backend:        types.BackendSQLite,
		DataDir:        dataDir,
		PasswordScheme: types.SchemeBcrypt,
	})
	users, err := b.Users()
	require.NoError(t, err)

	_, ok, err := users.Authenticate(ctx, "pepe", "pepe")
	require.NoError(t, err)
	require.True(t, ok)

	var stored string
	require.NoError(t, b.db.GetContext(ctx, &stored, "SELECT password FROM usuarios WHERE username = ?", "pepe"))
	assert.True(t, len(stored) > 2 && stored[:2] == "$2", "digest upgraded to bcrypt")

	_, ok, err = users.Authenticate(ctx, "pepe", "pepe")
	require.NoError(t, err)
	assert.True(t, ok, "login still works after upgrade")

	_, ok, err = users.Authenticate(ctx, "pepe", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseTimestamp(t *testing.T) {
	ts := parseTimestamp("2024-03-01 10:20:30")
	assert.Equal(t, 2024, ts.Year())
	assert.Equal(t, 30, ts.Second())
	assert.True(t, parseTimestamp("").IsZero())
	assert.True(t, parseTimestamp("yesterday").IsZero())
	assert.Equal(t, "2024-03-01 10:20:30", formatTimestamp(ts))
}
