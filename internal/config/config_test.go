package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mapboard.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.ListenAddr)
		assert.Equal(t, "default", cfg.Instance)
		assert.Equal(t, 100, cfg.RateLimit.MaxRequests)
		assert.Equal(t, 60*time.Second, cfg.RateLimitWindow())
		assert.Equal(t, 30*time.Second, cfg.PingInterval())
	})

	t.Run("loads values from file", func(t *testing.T) {
		path := writeConfig(t, `
listen_addr: ":9090"
instance: staging
rate_limit:
  window: 30s
  max_requests: 10
stream:
  ping_interval: 15s
`)
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.ListenAddr)
		assert.Equal(t, "staging", cfg.Instance)
		assert.Equal(t, 10, cfg.RateLimit.MaxRequests)
		assert.Equal(t, 30*time.Second, cfg.RateLimitWindow())
		assert.Equal(t, 15*time.Second, cfg.PingInterval())
	})

	t.Run("partial file keeps defaults for the rest", func(t *testing.T) {
		path := writeConfig(t, `instance: prod`)
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "prod", cfg.Instance)
		assert.Equal(t, ":8080", cfg.ListenAddr)
		assert.Equal(t, 100, cfg.RateLimit.MaxRequests)
	})

	t.Run("missing named file is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
		assert.Error(t, err)
	})

	t.Run("rejects malformed yaml", func(t *testing.T) {
		path := writeConfig(t, "listen_addr: [oops")
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("rejects bad durations", func(t *testing.T) {
		path := writeConfig(t, `
rate_limit:
  window: sixty seconds
`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rate_limit.window")
	})

	t.Run("rejects non-positive request cap", func(t *testing.T) {
		path := writeConfig(t, `
rate_limit:
  max_requests: -5
`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_requests")
	})
}
