package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "https://api.agrotest.online", cfg.Backend.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "file", cfg.Store.Driver)
	// viper lower-cases map keys
	assert.Equal(t, "0.00009", cfg.Fees.Static["bsc-testnet"])
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	content := []byte(`
backend:
  base_url: http://localhost:8089/
  timeout: 3s
store:
  driver: memory
`)
	require.NoError(t, os.WriteFile(file, content, 0600))
	t.Setenv("WALLET_REDIS_ADDR", "redis:6380")

	cfg, err := Load(viper.New(), file)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8089", cfg.Backend.BaseURL, "trailing slash trimmed")
	assert.Equal(t, 3*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
