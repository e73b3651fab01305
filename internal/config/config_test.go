package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"STOREFRONT_DB_DRIVER", "STOREFRONT_DB_DSN", "STOREFRONT_HTTP_ADDR", "STOREFRONT_GRPC_ADDR",
	"REDIS_ADDR", "AUTH_JWT_SECRET", "AUTH_USERINFO_URL", "STOREFRONT_SEED",
}

// clearEnv blanks every storefront variable for the test; t.Setenv restores them.
func clearEnv(t *testing.T) {
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "file:storefront.db?_foreign_keys=on", cfg.DBDSN)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, ":50051", cfg.GRPCAddr)
	assert.False(t, cfg.Seed)
	assert.False(t, cfg.AuthConfigured())
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	env := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(env, []byte(
		"STOREFRONT_DB_DRIVER=postgres\nAUTH_JWT_SECRET=s3cret\nSTOREFRONT_SEED=true\n"), 0o600))
	t.Setenv("STOREFRONT_HTTP_ADDR", ":9090")

	cfg, err := Load(env)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Contains(t, cfg.DBDSN, "postgres://")
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.True(t, cfg.Seed)
	assert.True(t, cfg.AuthConfigured())
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	t.Setenv("STOREFRONT_DB_DRIVER", "oracle")
	_, err := Load(filepath.Join(dir, "none"))
	assert.Error(t, err)

	t.Setenv("STOREFRONT_DB_DRIVER", "sqlite")
	t.Setenv("STOREFRONT_SEED", "maybe")
	_, err = Load(filepath.Join(dir, "none"))
	assert.Error(t, err)
}
