/*
config_test.go - Configuration loading tests
*/
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  addr: ":9090"
store:
  driver: sqlite
  dsn: /tmp/runs.db
logging:
  level: debug
  format: console
policy:
  policy_band_low: 40
  policy_band_high: 70
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "/tmp/runs.db", cfg.Store.DSN)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 40.0, cfg.Policy.PolicyBandLow)
	assert.Equal(t, 70.0, cfg.Policy.PolicyBandHigh)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: oracle\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store driver")
}

func TestLoadRequiresDSNForSQL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: postgres\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a dsn")
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestGlobalsPassPolicyThrough(t *testing.T) {
	cfg := &Config{Policy: PolicyConfig{
		PolicyBandLow:    40,
		PolicyBandHigh:   70,
		LowFTEThreshold:  0.6,
		LowWRVUThreshold: 1200,
	}}

	g := cfg.Globals()
	assert.Equal(t, 40.0, g.PolicyBandLow)
	assert.Equal(t, 70.0, g.PolicyBandHigh)
	assert.Equal(t, 0.6, g.LowFTEThreshold)
	assert.Equal(t, 1200.0, g.LowWRVUThreshold)
	// Unset policy fields stay zero here; the engine substitutes its
	// defaults at calculation time.
	assert.Zero(t, g.TCCGrowthFactor)
}

func TestInitLoggerRejectsBadLevel(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "loud", Format: "json"}}
	_, err := cfg.InitLogger()
	require.Error(t, err)
}

func TestInitLoggerBuilds(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "warn", Format: "console"}}
	logger, err := cfg.InitLogger()
	require.NoError(t, err)
	require.NotNil(t, logger)
	logger.Sync()
}
