package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skysurety/skysurety-node/constant"
)

func TestLoad(t *testing.T) {
	t.Run("defaults without a config file", func(t *testing.T) {
		cfg, err := Load(t.TempDir())
		require.NoError(t, err)

		assert.Equal(t, 1, cfg.LogLevel)
		assert.Equal(t, "console", cfg.LogFormat)
		assert.Equal(t, "owner", cfg.Owner)
		assert.Equal(t, "airline-1", cfg.FirstAirline)
		assert.Equal(t, "oracle-service", cfg.OracleServiceIdentity)
		assert.Equal(t, constant.MinAirlineStake, cfg.MinAirlineStake)
		assert.Equal(t, constant.OracleStake, cfg.OracleStake)
		assert.Equal(t, 20, cfg.OracleWorkerCount)
		assert.Equal(t, 8080, cfg.QueryServerPort)
	})

	t.Run("config file overrides defaults", func(t *testing.T) {
		home := t.TempDir()
		configDir := filepath.Join(home, constant.ConfigSubdir)
		require.NoError(t, os.MkdirAll(configDir, 0o750))

		content := "owner: alice\nquery_server_port: 9999\nlog_format: json\n"
		require.NoError(t, os.WriteFile(filepath.Join(configDir, constant.ConfigFileName), []byte(content), 0o600))

		cfg, err := Load(home)
		require.NoError(t, err)
		assert.Equal(t, "alice", cfg.Owner)
		assert.Equal(t, 9999, cfg.QueryServerPort)
		assert.Equal(t, "json", cfg.LogFormat)
		// Untouched keys keep their defaults.
		assert.Equal(t, "airline-1", cfg.FirstAirline)
	})

	t.Run("environment overrides file and defaults", func(t *testing.T) {
		t.Setenv("SKYSURETY_OWNER", "env-owner")
		cfg, err := Load(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, "env-owner", cfg.Owner)
	})

	t.Run("invalid values rejected", func(t *testing.T) {
		home := t.TempDir()
		configDir := filepath.Join(home, constant.ConfigSubdir)
		require.NoError(t, os.MkdirAll(configDir, 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(configDir, constant.ConfigFileName), []byte("log_format: xml\n"), 0o600))

		_, err := Load(home)
		require.ErrorContains(t, err, "log format")
	})
}

func TestWriteDefault(t *testing.T) {
	home := t.TempDir()

	path, err := WriteDefault(home)
	require.NoError(t, err)
	assert.FileExists(t, path)

	// The written file round-trips through Load.
	cfg, err := Load(home)
	require.NoError(t, err)
	assert.Equal(t, "owner", cfg.Owner)

	// A second init must not clobber it.
	_, err = WriteDefault(home)
	require.ErrorContains(t, err, "already exists")
}
