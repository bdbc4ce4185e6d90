package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
auth:
  jwt_secret: test-secret
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "data/fleetflow.db", cfg.Database.Path)
	assert.Equal(t, "migrations", cfg.Database.MigrationsDir)
	assert.Equal(t, "data/documents", cfg.Storage.BaseDir)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.False(t, cfg.Lark.Enabled)
}

func TestLoad_OverridesFromFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9090
database:
  path: /tmp/other.db
auth:
  jwt_secret: test-secret
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/tmp/other.db", cfg.Database.Path)
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	path := writeConfigFile(t, `
server:
  port: 8080
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "jwt_secret is required")
}

func TestLoad_LarkCredentialsRequiredWhenEnabled(t *testing.T) {
	t.Setenv("LARK_APP_ID", "")
	t.Setenv("LARK_APP_SECRET", "")
	path := writeConfigFile(t, `
auth:
  jwt_secret: test-secret
lark:
  enabled: true
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "lark.app_id is required")
}

func TestLoad_SecretFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")
	path := writeConfigFile(t, `
server:
  port: 8080
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
}
