package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_ENV", "nosuch")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "./web", cfg.StaticPath)
	assert.Equal(t, int64(32768), cfg.ReadLimit)
	assert.Equal(t, 54*time.Second, cfg.PingPeriod)
	assert.Equal(t, 5*time.Second, cfg.WriteTimeout)
	assert.Equal(t, 32, cfg.SendBuffer)
	assert.Equal(t, 0, cfg.RoomCapacity)
	assert.False(t, cfg.MultiRoom)
	assert.Equal(t, 8, cfg.JoinRate)
	assert.Equal(t, 10*time.Second, cfg.JoinInterval)
}

func TestLoadReadsEnvSpecificFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "config"), 0o755))
	yaml := []byte("mode: debug\nport: 9000\nroom_capacity: 2\nmulti_room: true\nping_period: 10s\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "config.test.yaml"), yaml, 0o644))
	t.Setenv("CONFIG_ENV", "test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Mode)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 2, cfg.RoomCapacity)
	assert.True(t, cfg.MultiRoom)
	assert.Equal(t, 10*time.Second, cfg.PingPeriod)
	// Untouched keys keep their defaults.
	assert.Equal(t, 32, cfg.SendBuffer)
}
