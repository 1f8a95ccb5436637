package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_Defaults(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "")
	t.Setenv("NEXT_PUBLIC_API_BASE", "")
	t.Setenv("STORAGE_DRIVER", "")

	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.Backend.BaseURL)
	assert.Equal(t, 18, cfg.Backend.TopN)
	assert.Equal(t, 20*time.Second, cfg.Backend.RecommendTimeoutDuration())
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "vroom_sid", cfg.Session.CookieName)
	assert.Equal(t, 75.0, cfg.Results.FloorPct)
	assert.Equal(t, 99.0, cfg.Results.CeilPct)
}

func TestLoadFile_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vroom.yaml")
	yamlBody := `
backend:
  base_url: http://backend.internal:9000/
  topn: 12
storage:
  driver: sqlite
  dsn: file:vroom.db
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o600))

	t.Setenv("BACKEND_BASE_URL", "")
	t.Setenv("NEXT_PUBLIC_API_BASE", "")
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("RECOMMEND_TOPN", "24")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://backend.internal:9000", cfg.Backend.BaseURL, "trailing slash trimmed")
	assert.Equal(t, 24, cfg.Backend.TopN, "env wins over file")
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "file:vroom.db", cfg.Storage.DSN)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 20, cfg.Backend.RecommendTimeout, "unset keys keep defaults")
}

func TestLoadFile_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "")
	t.Setenv("NEXT_PUBLIC_API_BASE", "")
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("SERVER_PORT", "not-a-number")

	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "sqlite without dsn", mutate: func(c *Config) { c.Storage.Driver = "sqlite" }, wantErr: true},
		{name: "redis without url", mutate: func(c *Config) { c.Storage.Driver = "redis" }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "mongo" }, wantErr: true},
		{name: "floor above ceil", mutate: func(c *Config) { c.Results.FloorPct = 99; c.Results.CeilPct = 75 }, wantErr: true},
		{name: "empty backend", mutate: func(c *Config) { c.Backend.BaseURL = "" }, wantErr: true},
		{name: "postgres with dsn", mutate: func(c *Config) {
			c.Storage.Driver = "postgres"
			c.Storage.DSN = "postgres://localhost/vroom"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
