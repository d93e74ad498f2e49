package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestParseKeepsDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, Parse([]byte("addr: \":9000\"\nstorage:\n  driver: redis\n"), &cfg))
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, DriverRedis, cfg.Storage.Driver)
	assert.Equal(t, "localhost:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, "wysiwym:page:", cfg.Storage.Redis.Prefix)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)

	assert.Error(t, Parse([]byte("addr: [oops"), &cfg))
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORT":               "3000",
		"WYSIWYM_DATA_DIR":   "/srv/wiki",
		"WYSIWYM_LOG_LEVEL":  "debug",
		"WYSIWYM_REDIS_ADDR": "redis:6379",
	}
	cfg := Default()
	cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, "/srv/wiki", cfg.DataDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "redis:6379", cfg.Storage.Redis.Addr)

	// WYSIWYM_ADDR wins over PORT
	env["WYSIWYM_ADDR"] = "127.0.0.1:4000"
	cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	assert.Equal(t, "127.0.0.1:4000", cfg.Addr)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Storage.Driver = "s3"
	assert.ErrorContains(t, cfg.Validate(), "s3")

	cfg = Default()
	cfg.LogLevel = "chatty"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.LogFormat = "xml"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Metrics.Path = "metrics"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Metrics = Metrics{}
	assert.NoError(t, cfg.Validate())

	cfg = Default()
	cfg.Storage.Driver = DriverRedis
	cfg.Storage.Redis.Addr = ""
	assert.Error(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wysiwym.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dataDir: ./pages\nlogFormat: json\n"), 0o644))
	assert.True(t, Exists(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "./pages", cfg.DataDir)
	assert.Equal(t, "json", cfg.LogFormat)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
