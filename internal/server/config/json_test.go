package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_LoadsValues(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"http_addr":          ":9090",
		"trusted_proxies":    []string{"172.16.0.0/12"},
		"database_dsn":       "postgres://x",
		"ticket_store":       "memory",
		"blob_store":         "file",
		"blob_dir":           "/var/lib/tickets",
		"s3_use_path_style":  false,
		"crypto_algorithm":   "chacha20-poly1305",
		"kdf_memory_kib":     2048,
		"webhook_url":        "http://hook",
		"webhook_timeout":    "2s",
		"task_timeout":       int64(3 * time.Second),
		"sweep_interval":     "5m",
		"sweep_batch_size":   10,
		"otel_enabled":       true,
		"otel_sampling_rate": 0.25,
	})

	cfg := &Config{}
	cfg.LoadDefaults()
	require.NoError(t, parseJson(cfg, []string{"-config", path}))

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	require.Len(t, cfg.TrustedProxies, 1)
	assert.Equal(t, "172.16.0.0/12", cfg.TrustedProxies[0].String())
	assert.Equal(t, "postgres://x", cfg.DatabaseDSN)
	assert.Equal(t, StoreMemory, cfg.TicketStore)
	assert.Equal(t, BlobFile, cfg.BlobStore)
	assert.Equal(t, "/var/lib/tickets", cfg.BlobDir)
	assert.False(t, cfg.S3UsePathStyle)
	assert.Equal(t, "chacha20-poly1305", cfg.CryptoAlgorithm)
	assert.Equal(t, uint32(2048), cfg.KDFMemoryKiB)
	assert.Equal(t, "http://hook", cfg.WebhookURL)
	assert.Equal(t, 2*time.Second, cfg.WebhookTimeout)
	assert.Equal(t, 3*time.Second, cfg.TaskTimeout)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
	assert.Equal(t, 10, cfg.SweepBatchSize)
	assert.True(t, cfg.OtelEnabled)
	assert.Equal(t, 0.25, cfg.OtelSamplingRate)
}

func Test_parseJson_MissingKeysKeepCurrentValues(t *testing.T) {
	path := writeTempJSON(t, map[string]any{"grpc_addr": ":7000"})

	cfg := &Config{}
	cfg.LoadDefaults()
	require.NoError(t, parseJson(cfg, []string{"-c", path}))

	assert.Equal(t, ":7000", cfg.GRPCAddr)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, uint8(4), cfg.KDFThreads)
}

func Test_parseJson_NoConfigFlag(t *testing.T) {
	cfg := &Config{HTTPAddr: ":1"}
	require.NoError(t, parseJson(cfg, []string{"-a", ":2"}))
	assert.Equal(t, ":1", cfg.HTTPAddr)
}

func Test_parseJson_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		err := parseJson(&Config{}, []string{"-c", filepath.Join(t.TempDir(), "nope.json")})
		require.Error(t, err)
	})

	t.Run("bad duration", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{"sweep_interval": "soon"})
		err := parseJson(&Config{}, []string{"-c", path})
		require.Error(t, err)
	})

	t.Run("bad trusted proxy", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{"trusted_proxies": []string{"10.0.0.0/40"}})
		err := parseJson(&Config{}, []string{"-c", path})
		require.Error(t, err)
	})
}
