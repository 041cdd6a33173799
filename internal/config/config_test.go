package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	c, err := Load(writeYAML(t, "storage:\n  driver: memory\n"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, "dev", c.App.Env)
	assert.Equal(t, "GussmannLoyaltyProgram", c.JWT.Issuer)
	assert.Equal(t, "GussmannLoyaltyUsers", c.JWT.Audience)
	assert.Equal(t, 15*time.Minute, c.AccessTTL())
	assert.Equal(t, 720*time.Hour, c.RefreshTTL())
	assert.Equal(t, 5, c.Lockout.MaxAttempts)
	assert.Equal(t, 30*time.Minute, c.LockoutWindow())
	assert.Equal(t, "memory", c.Cache.Kind)
}

func TestLoad_EmptyPathUsesDefaultsAndEnv(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "memory", c.Storage.Driver)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	p := writeYAML(t, `
storage:
  driver: memory
jwt:
  access_ttl: 15m
lockout:
  max_attempts: 5
`)
	t.Setenv("JWT_ACCESS_TTL", "5m")
	t.Setenv("LOCKOUT_MAX_ATTEMPTS", "3")
	t.Setenv("SERVER_ADDR", ":9090")

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, c.AccessTTL())
	assert.Equal(t, 3, c.Lockout.MaxAttempts)
	assert.Equal(t, ":9090", c.Server.Addr)
}

func TestLoad_RejectsBadDuration(t *testing.T) {
	_, err := Load(writeYAML(t, "storage:\n  driver: memory\njwt:\n  access_ttl: soon\n"))
	assert.Error(t, err)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	_, err := Load(writeYAML(t, "storage:\n  driver: sqlite\n"))
	assert.Error(t, err)
}

func TestLoad_PostgresRequiresDSN(t *testing.T) {
	_, err := Load(writeYAML(t, "storage:\n  driver: postgres\n"))
	assert.Error(t, err)

	c, err := Load(writeYAML(t, "storage:\n  driver: postgres\n  dsn: postgres://localhost/loyalty\n"))
	require.NoError(t, err)
	assert.Equal(t, "postgres", c.Storage.Driver)
}

func TestLoad_RedisRequiresAddr(t *testing.T) {
	_, err := Load(writeYAML(t, "storage:\n  driver: memory\ncache:\n  kind: redis\n"))
	assert.Error(t, err)
}

func TestLoad_ProdRefusesDevSecret(t *testing.T) {
	body := "app:\n  env: prod\nstorage:\n  driver: memory\n"
	_, err := Load(writeYAML(t, body))
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "a-real-secret")
	c, err := Load(writeYAML(t, body))
	require.NoError(t, err)
	assert.True(t, c.IsProd())
}
