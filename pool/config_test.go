package pool

// pool/config_test.go

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDefaults(t *testing.T) {
	cfg := (&PoolConfig{}).withDefaults()

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 4444, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 2, cfg.MinSize)
	assert.Equal(t, 10, cfg.MaxSize)
	assert.Equal(t, 30*time.Second, cfg.AcquireTimeout)
	assert.Equal(t, 60*time.Second, cfg.HealthCheckInterval)
	assert.NotNil(t, cfg.Logger)
}

func TestWithDefaultsKeepsExplicitZeroMin(t *testing.T) {
	cfg := (&PoolConfig{MaxSize: 5}).withDefaults()

	assert.Equal(t, 0, cfg.MinSize, "explicit max with min 0 stays lazy")
	assert.Equal(t, 5, cfg.MaxSize)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	assert.NoError(t, (&PoolConfig{MinSize: 2, MaxSize: 10}).Validate())
	assert.Error(t, (&PoolConfig{MinSize: -1, MaxSize: 10}).Validate())
	assert.Error(t, (&PoolConfig{MinSize: 0, MaxSize: 0}).Validate())
	assert.Error(t, (&PoolConfig{MinSize: 11, MaxSize: 10}).Validate())
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shibudb.yaml")
	content := `
host: db.internal
port: 5555
timeout: 10
username: admin
password: secret
min_size: 3
max_size: 12
acquire_timeout: 5
health_check_interval: 30
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 5555, cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, "admin", cfg.Username)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, 3, cfg.MinSize)
	assert.Equal(t, 12, cfg.MaxSize)
	assert.Equal(t, 5*time.Second, cfg.AcquireTimeout)
	assert.Equal(t, 30*time.Second, cfg.HealthCheckInterval)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("host: [broken"), 0o600))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}
