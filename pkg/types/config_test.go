package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty backend returns ErrBackendEmpty",
			config:  Config{Backend: "", DataDir: "/tmp/data"},
			wantErr: ErrBackendEmpty,
		},
		{
			name:    "unknown backend returns ErrBackendUnknown",
			config:  Config{Backend: "postgres", DataDir: "/tmp/data"},
			wantErr: ErrBackendUnknown,
		},
		{
			name:    "unknown password scheme",
			config:  Config{Backend: BackendSQLite, PasswordScheme: "md5"},
			wantErr: ErrPasswordSchemeUnknown,
		},
		{
			name:   "valid sqlite config",
			config: Config{Backend: BackendSQLite, DataDir: "/tmp/data", PasswordScheme: SchemeBcrypt},
		},
		{
			name:   "sqlite with empty DataDir is valid at config level",
			config: Config{Backend: BackendSQLite},
		},
		{
			name:   "empty Database is valid and falls back to the default file",
			config: Config{Backend: BackendSQLite, DataDir: "/tmp/data", Database: ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, errors.Is(err, ErrInvalidConfig), "config errors wrap ErrInvalidConfig")
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	assert.NoError(t, Config{Backend: BackendSQLite}.Validate())
	assert.Equal(t, DefaultDatabaseFile, c.DatabaseFile())
	assert.Equal(t, SchemeSHA256, c.Scheme())

	c = Config{Database: "catalog.db", PasswordScheme: SchemeBcrypt}
	assert.Equal(t, "catalog.db", c.DatabaseFile())
	assert.Equal(t, SchemeBcrypt, c.Scheme())
}
