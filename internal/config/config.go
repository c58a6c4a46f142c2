// Package config loads marquee settings from config.yaml, the environment
// and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/marquee/internal/logger"
	"github.com/mesh-intelligence/marquee/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	// FileName is the configuration file inside the config directory.
	FileName = "config.yaml"

	// EnvPrefix prefixes every environment override, with dots in keys
	// replaced by underscores: log.level is MARQUEE_LOG_LEVEL.
	EnvPrefix = "MARQUEE"
)

// Config keys.
const (
	KeyBackend        = "backend"
	KeyDataDir        = "data_dir"
	KeyDatabase       = "database"
	KeyLogLevel       = "log.level"
	KeyLogFormat      = "log.format"
	KeyPasswordScheme = "auth.password_scheme"
	KeySeedEnabled    = "seed.enabled"
	KeySeedAdmin      = "seed.admin_password"
	KeySeedViewer     = "seed.viewer_password"
)

// envKeys can be overridden from the environment. data_dir is not among
// them: MARQUEE_DATA_DIR is handled by internal/paths, below config.yaml.
var envKeys = []string{
	KeyDatabase, KeyLogLevel, KeyLogFormat, KeyPasswordScheme,
	KeySeedEnabled, KeySeedAdmin, KeySeedViewer,
}

// Settings is the loaded configuration.
type Settings struct {
	Backend string
	// DataDir is data_dir as written in config.yaml, unresolved. Pass it to
	// paths.ResolveDataDir.
	DataDir        string
	Database       string
	PasswordScheme string
	Seed           types.SeedConfig
	Log            logger.Options
}

// Storage returns the backend configuration for a resolved data directory.
func (s Settings) Storage(dataDir string) types.Config {
	return types.Config{
		Backend:        s.Backend,
		DataDir:        dataDir,
		Database:       s.Database,
		PasswordScheme: s.PasswordScheme,
		Seed:           s.Seed,
	}
}

// File is the on-disk shape of config.yaml.
type File struct {
	Backend  string   `yaml:"backend"`
	DataDir  string   `yaml:"data_dir,omitempty"`
	Database string   `yaml:"database"`
	Log      LogFile  `yaml:"log"`
	Auth     AuthFile `yaml:"auth"`
	Seed     SeedFile `yaml:"seed"`
}

type LogFile struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type AuthFile struct {
	PasswordScheme string `yaml:"password_scheme"`
}

type SeedFile struct {
	Enabled        bool   `yaml:"enabled"`
	AdminPassword  string `yaml:"admin_password,omitempty"`
	ViewerPassword string `yaml:"viewer_password,omitempty"`
}

// DefaultFile returns the configuration written on first run.
func DefaultFile(dataDir string) File {
	return File{
		Backend:  types.BackendSQLite,
		DataDir:  dataDir,
		Database: types.DefaultDatabaseFile,
		Log:      LogFile{Level: "info", Format: logger.FormatConsole},
		Auth:     AuthFile{PasswordScheme: types.SchemeSHA256},
		Seed:     SeedFile{Enabled: true},
	}
}

const fileHeader = `# marquee configuration
# Every key can be overridden with a MARQUEE_ environment variable,
# e.g. MARQUEE_LOG_LEVEL=debug.

`

// WriteIfMissing writes f to path unless a file is already there.
func WriteIfMissing(path string, f File) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, append([]byte(fileHeader), data...), 0o644)
}

// Load reads config.yaml from configDir, creating the directory and a
// default file on first run. A .env file in the working directory, then one
// in configDir, is loaded into the environment first; neither overrides a
// variable that is already set.
func Load(configDir string) (Settings, error) {
	for _, path := range []string{".env", filepath.Join(configDir, ".env")} {
		if err := loadDotEnv(path); err != nil {
			return Settings{}, err
		}
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return Settings{}, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := WriteIfMissing(filepath.Join(configDir, FileName), DefaultFile("")); err != nil {
		return Settings{}, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range envKeys {
		if err := v.BindEnv(k); err != nil {
			return Settings{}, fmt.Errorf("bind env %s: %w", k, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	s := Settings{
		Backend:        v.GetString(KeyBackend),
		DataDir:        v.GetString(KeyDataDir),
		Database:       v.GetString(KeyDatabase),
		PasswordScheme: v.GetString(KeyPasswordScheme),
		Seed: types.SeedConfig{
			Enabled:        v.GetBool(KeySeedEnabled),
			AdminPassword:  v.GetString(KeySeedAdmin),
			ViewerPassword: v.GetString(KeySeedViewer),
		},
		Log: logger.Options{
			Level:  v.GetString(KeyLogLevel),
			Format: v.GetString(KeyLogFormat),
		},
	}
	if err := s.Storage("").Validate(); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", filepath.Join(configDir, FileName), err)
	}
	return s, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultFile("")
	v.SetDefault(KeyBackend, d.Backend)
	v.SetDefault(KeyDatabase, d.Database)
	v.SetDefault(KeyLogLevel, d.Log.Level)
	v.SetDefault(KeyLogFormat, d.Log.Format)
	v.SetDefault(KeyPasswordScheme, d.Auth.PasswordScheme)
	v.SetDefault(KeySeedEnabled, d.Seed.Enabled)
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
