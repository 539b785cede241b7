package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/koopa0/system-design/14-mao-card-game/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConfig_DefaultValues 測試配置的預設值
func TestConfig_DefaultValues(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, ":3001", cfg.Addr())
	assert.Equal(t, 24*time.Hour, cfg.Rooms.MaxAge)
	assert.Equal(t, time.Hour, cfg.Rooms.SweepInterval)
	assert.Contains(t, cfg.Server.AllowedOrigins, "http://localhost:3000")
	assert.Empty(t, cfg.Events.NATSURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

// TestConfig_LoadYAML 測試讀取 YAML
func TestConfig_LoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8080
  allowed_origins:
    - https://example.com
rooms:
  max_age: 2h
  sweep_interval: 5m
events:
  nats_url: nats://localhost:4222
log:
  level: debug
  format: json
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"https://example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 2*time.Hour, cfg.Rooms.MaxAge)
	assert.Equal(t, 5*time.Minute, cfg.Rooms.SweepInterval)
	assert.Equal(t, "nats://localhost:4222", cfg.Events.NATSURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	// 檔案沒寫的欄位保留預設值
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
}

// TestConfig_EnvOverride 環境變數優先於 YAML
func TestConfig_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 8080\n"), 0o600))

	t.Setenv("PORT", "9090")
	t.Setenv("MAO_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("MAO_ROOM_MAX_AGE", "30m")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 30*time.Minute, cfg.Rooms.MaxAge)
}

// TestConfig_Errors 測試錯誤配置
func TestConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{name: "invalid yaml", yaml: "server: [", wantErr: "parse config"},
		{name: "port out of range", yaml: "server:\n  port: 70000\n", wantErr: "server.port"},
		{name: "zero max age", yaml: "rooms:\n  max_age: 0s\n", wantErr: "rooms.max_age"},
		{name: "unknown log format", yaml: "log:\n  format: xml\n", wantErr: "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o600))

			_, err := config.Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read config")
	})
}
