package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/adapter/auth"
	"github.com/rl1809/storefront/internal/config"
	"github.com/rl1809/storefront/internal/core/policy"
)

func run(t *testing.T, env map[string]string, args ...string) (string, error) {
	t.Helper()
	for _, k := range []string{"STOREFRONT_DB_DRIVER", "STOREFRONT_DB_DSN", "AUTH_JWT_SECRET", "AUTH_USERINFO_URL", "REDIS_ADDR", "STOREFRONT_SEED"} {
		t.Setenv(k, env[k])
		if env[k] == "" {
			os.Unsetenv(k)
		}
	}

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestPoliciesCommand(t *testing.T) {
	out, err := run(t, nil, "policies")
	require.NoError(t, err)
	assert.Equal(t, policy.Describe(), out)
}

func TestTokenCommand(t *testing.T) {
	out, err := run(t, map[string]string{"AUTH_JWT_SECRET": "dev"}, "token", "user-1", "--email", "u@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(strings.TrimSpace(out), "."), "a JWT has three segments")

	_, err = run(t, nil, "token", "user-1")
	assert.Error(t, err)
}

func TestMigrateAndSeed(t *testing.T) {
	env := map[string]string{
		"STOREFRONT_DB_DRIVER": "sqlite",
		"STOREFRONT_DB_DSN":    "file:" + filepath.Join(t.TempDir(), "cli.db") + "?_foreign_keys=on",
	}

	_, err := run(t, env, "migrate")
	require.NoError(t, err)
	_, err = run(t, env, "seed")
	require.NoError(t, err)
	_, err = run(t, env, "seed")
	require.NoError(t, err, "seeding twice keeps existing rows")

	_, err = run(t, env, "seed", "--file", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestUnknownDriver(t *testing.T) {
	_, err := run(t, map[string]string{"STOREFRONT_DB_DRIVER": "oracle"}, "migrate")
	assert.Error(t, err)
}

func TestNewVerifier(t *testing.T) {
	_, ok := newVerifier(config.Config{}).(rejectAll)
	assert.True(t, ok, "no provider rejects every token")

	_, ok = newVerifier(config.Config{JWTSecret: "dev"}).(*auth.JWTVerifier)
	assert.True(t, ok)

	_, ok = newVerifier(config.Config{JWTSecret: "dev", UserInfoURL: "http://idp.local/userinfo"}).(*auth.RemoteVerifier)
	assert.True(t, ok, "remote provider wins when both are set")

	_, err := rejectAll{}.Verify(context.Background(), "anything")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
