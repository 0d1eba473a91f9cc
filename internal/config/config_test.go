package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/savemymoney")
	t.Setenv("AUTH0_DOMAIN", "example.auth0.com")
	t.Setenv("AUTH0_AUDIENCE", "https://api.savemymoney.test")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.True(t, cfg.MigrateOnStart)
	assert.False(t, cfg.PushOnSave)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.False(t, cfg.S3.Enabled())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CORS_ORIGINS", "https://a.test, https://b.test,")
	t.Setenv("PUSH_ON_SAVE", "true")
	t.Setenv("MIGRATE_ON_START", "false")
	t.Setenv("S3_BUCKET", "savemymoney-exports")
	t.Setenv("ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORSOrigins)
	assert.True(t, cfg.PushOnSave)
	assert.False(t, cfg.MigrateOnStart)
	assert.True(t, cfg.S3.Enabled())
	assert.True(t, cfg.IsProduction())
}

func TestLoad_MemoryDriverNeedsNoDatabase(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("STORE_DRIVER", "Memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"missing database url", "DATABASE_URL", "", "DATABASE_URL is required"},
		{"missing auth0 domain", "AUTH0_DOMAIN", "", "AUTH0_DOMAIN is required"},
		{"missing auth0 audience", "AUTH0_AUDIENCE", "", "AUTH0_AUDIENCE is required"},
		{"unknown driver", "STORE_DRIVER", "mongo", "STORE_DRIVER must be"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadStore_SkipsAuthSettings(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("AUTH0_DOMAIN", "")

	cfg, err := LoadStore()
	require.NoError(t, err)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
}
