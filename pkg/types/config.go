package types

import (
	"errors"
	"fmt"
)

// Config holds backend selection and parameters for Backend.Attach.
type Config struct {
	Backend        string     `json:"backend" yaml:"backend"`
	DataDir        string     `json:"data_dir" yaml:"data_dir"`
	Database       string     `json:"database" yaml:"database"`
	PasswordScheme string     `json:"password_scheme" yaml:"password_scheme"`
	Seed           SeedConfig `json:"seed" yaml:"seed"`
}

// SeedConfig controls the accounts and sample movies written on first run.
type SeedConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	AdminPassword  string `json:"admin_password" yaml:"admin_password"`
	ViewerPassword string `json:"viewer_password" yaml:"viewer_password"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// DefaultDatabaseFile is the database file name inside DataDir.
const DefaultDatabaseFile = "peliculas.db"

// Passwords for the seeded accounts when SeedConfig leaves them empty.
const (
	DefaultAdminPassword  = "admin123"
	DefaultViewerPassword = "viewer123"
)

// Password schemes. SchemeSHA256 is the unsalted legacy digest.
const (
	SchemeSHA256 = "sha256"
	SchemeBcrypt = "bcrypt"
)

// Config validation errors.
var (
	ErrInvalidConfig         = errors.New("invalid config")
	ErrBackendEmpty          = fmt.Errorf("%w: backend must not be empty", ErrInvalidConfig)
	ErrBackendUnknown        = fmt.Errorf("%w: unknown backend", ErrInvalidConfig)
	ErrPasswordSchemeUnknown = fmt.Errorf("%w: unknown password scheme", ErrInvalidConfig)
)

var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. An empty Database or
// PasswordScheme is allowed and falls back to the defaults.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	switch c.PasswordScheme {
	case "", SchemeSHA256, SchemeBcrypt:
	default:
		return ErrPasswordSchemeUnknown
	}
	return nil
}

// DatabaseFile returns the configured database file name or the default.
func (c Config) DatabaseFile() string {
	if c.Database == "" {
		return DefaultDatabaseFile
	}
	return c.Database
}

// Scheme returns the configured password scheme, defaulting to SchemeSHA256.
func (c Config) Scheme() string {
	if c.PasswordScheme == "" {
		return SchemeSHA256
	}
	return c.PasswordScheme
}
