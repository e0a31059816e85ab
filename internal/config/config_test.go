package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/business.csv", cfg.Data.Business)
	assert.Equal(t, "data/Facebook.csv", cfg.Data.Platforms["facebook"])
	assert.Equal(t, "data/Google.csv", cfg.Data.Platforms["google"])
	assert.Equal(t, "data/TikTok.csv", cfg.Data.Platforms["tiktok"])
	assert.True(t, cfg.Data.Watch)
	assert.Equal(t, 10, cfg.Dashboard.TopCampaigns)
	assert.Equal(t, 7, cfg.Dashboard.RollingWindowDays)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "adpulse.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.InDelta(t, 50.0, cfg.Server.RateLimit, 0.001)
	assert.Equal(t, 100, cfg.Server.RateBurst)
	assert.Equal(t, 30, cfg.Server.RequestTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	doc := map[string]any{
		"data": map[string]any{
			"business": "/srv/data/biz.csv",
			"platforms": map[string]string{
				"facebook": "/srv/data/fb.csv",
				"google":   "/srv/data/gg.csv",
			},
			"watch": false,
		},
		"dashboard": map[string]any{"top_campaigns": 25},
		"store":     map[string]any{"driver": "postgres", "database_url": "postgres://localhost/adpulse"},
		"server":    map[string]any{"port": 9090},
		"log":       map[string]any{"level": "debug", "format": "console"},
	}
	raw, err := yaml.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), raw, 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/data/biz.csv", cfg.Data.Business)
	assert.Len(t, cfg.Data.Platforms, 2)
	assert.Equal(t, "/srv/data/fb.csv", cfg.Data.Platforms["facebook"])
	assert.False(t, cfg.Data.Watch)
	assert.Equal(t, 25, cfg.Dashboard.TopCampaigns)
	assert.Equal(t, 7, cfg.Dashboard.RollingWindowDays) // default survives partial config
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadEnvOverride(t *testing.T) {
	chdirTemp(t)

	t.Setenv("ADPULSE_SERVER_PORT", "7777")
	t.Setenv("ADPULSE_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadBadYAML(t *testing.T) {
	dir := chdirTemp(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(":\n\t- not yaml"), 0o644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		err := InitLogger(LogConfig{Level: "debug", Format: "console"})
		require.NoError(t, err)
		assert.NotNil(t, zap.L())
	})

	t.Run("bad level", func(t *testing.T) {
		err := InitLogger(LogConfig{Level: "shouty", Format: "json"})
		assert.Error(t, err)
	})
}
