package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
server:
  host: 127.0.0.1
  port: 9090
database:
  host: db.local
  port: 5432
  user: app
  password: filepass
  dbname: pixshare
  sslmode: disable
storage:
  backend: local
  local:
    dir: /tmp/uploads
jwt:
  secret: file-secret
log:
  level: debug
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, testConfig))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, "file-secret", cfg.JWT.Secret)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t,
		"host=db.local port=5432 user=app password=filepass dbname=pixshare sslmode=disable",
		cfg.Database.DSN(),
	)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("DATABASE_PASSWORD", "env-pass")

	cfg, err := Load(writeConfig(t, testConfig))
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, "env-pass", cfg.Database.Password)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	body := `
server:
  port: 8080
`
	_, err := Load(writeConfig(t, body))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
