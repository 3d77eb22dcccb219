package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/ticketvault/internal/flagx"
	"github.com/dmitrijs2005/ticketvault/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "30s" and integer nanoseconds are accepted. Keys
// missing from the file leave the current values untouched.
type JsonConfig struct {
	HTTPAddr       string   `json:"http_addr"`
	GRPCAddr       string   `json:"grpc_addr"`
	TrustedProxies []string `json:"trusted_proxies"`

	DatabaseDSN string `json:"database_dsn"`
	TicketStore string `json:"ticket_store"`

	BlobStore      string `json:"blob_store"`
	BlobDir        string `json:"blob_dir"`
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`
	S3AccessKey    string `json:"s3_access_key"`
	S3SecretKey    string `json:"s3_secret_key"`
	S3UsePathStyle bool   `json:"s3_use_path_style"`

	CryptoAlgorithm string `json:"crypto_algorithm"`
	KDFTime         uint32 `json:"kdf_time"`
	KDFMemoryKiB    uint32 `json:"kdf_memory_kib"`
	KDFThreads      uint8  `json:"kdf_threads"`
	AgeWorkFactor   int    `json:"age_work_factor"`

	WebhookURL     string         `json:"webhook_url"`
	WebhookTimeout timex.Duration `json:"webhook_timeout"`
	TaskTimeout    timex.Duration `json:"task_timeout"`

	InlineTextLimit   int `json:"inline_text_limit"`
	MaxExpiresMinutes int `json:"max_expires_minutes"`

	SweepInterval    timex.Duration `json:"sweep_interval"`
	SweepBatchSize   int            `json:"sweep_batch_size"`
	SweepConcurrency int            `json:"sweep_concurrency"`

	ShutdownTimeout timex.Duration `json:"shutdown_timeout"`
	LogLevel        string         `json:"log_level"`

	OtelEnabled      bool    `json:"otel_enabled"`
	OtelEndpoint     string  `json:"otel_endpoint"`
	OtelInsecure     bool    `json:"otel_insecure"`
	OtelServiceName  string  `json:"otel_service_name"`
	OtelSamplingRate float64 `json:"otel_sampling_rate"`
}

func toJson(c *Config) *JsonConfig {
	var proxies []string
	for _, p := range c.TrustedProxies {
		proxies = append(proxies, p.String())
	}
	return &JsonConfig{
		HTTPAddr: c.HTTPAddr, GRPCAddr: c.GRPCAddr, TrustedProxies: proxies,
		DatabaseDSN: c.DatabaseDSN, TicketStore: c.TicketStore,
		BlobStore: c.BlobStore, BlobDir: c.BlobDir,
		S3Bucket: c.S3Bucket, S3Region: c.S3Region, S3BaseEndpoint: c.S3BaseEndpoint,
		S3AccessKey: c.S3AccessKey, S3SecretKey: c.S3SecretKey, S3UsePathStyle: c.S3UsePathStyle,
		CryptoAlgorithm: c.CryptoAlgorithm, KDFTime: c.KDFTime, KDFMemoryKiB: c.KDFMemoryKiB,
		KDFThreads: c.KDFThreads, AgeWorkFactor: c.AgeWorkFactor,
		WebhookURL:      c.WebhookURL,
		WebhookTimeout:  timex.Duration{Duration: c.WebhookTimeout},
		TaskTimeout:     timex.Duration{Duration: c.TaskTimeout},
		InlineTextLimit: c.InlineTextLimit, MaxExpiresMinutes: c.MaxExpiresMinutes,
		SweepInterval:  timex.Duration{Duration: c.SweepInterval},
		SweepBatchSize: c.SweepBatchSize, SweepConcurrency: c.SweepConcurrency,
		ShutdownTimeout: timex.Duration{Duration: c.ShutdownTimeout},
		LogLevel:        c.LogLevel,
		OtelEnabled:     c.OtelEnabled, OtelEndpoint: c.OtelEndpoint, OtelInsecure: c.OtelInsecure,
		OtelServiceName: c.OtelServiceName, OtelSamplingRate: c.OtelSamplingRate,
	}
}

func (j *JsonConfig) apply(c *Config) error {
	proxies, err := ParseTrustedProxies(j.TrustedProxies)
	if err != nil {
		return err
	}
	c.TrustedProxies = proxies
	c.HTTPAddr, c.GRPCAddr = j.HTTPAddr, j.GRPCAddr
	c.DatabaseDSN, c.TicketStore = j.DatabaseDSN, j.TicketStore
	c.BlobStore, c.BlobDir = j.BlobStore, j.BlobDir
	c.S3Bucket, c.S3Region, c.S3BaseEndpoint = j.S3Bucket, j.S3Region, j.S3BaseEndpoint
	c.S3AccessKey, c.S3SecretKey, c.S3UsePathStyle = j.S3AccessKey, j.S3SecretKey, j.S3UsePathStyle
	c.CryptoAlgorithm, c.AgeWorkFactor = j.CryptoAlgorithm, j.AgeWorkFactor
	c.KDFTime, c.KDFMemoryKiB, c.KDFThreads = j.KDFTime, j.KDFMemoryKiB, j.KDFThreads
	c.WebhookURL = j.WebhookURL
	c.WebhookTimeout, c.TaskTimeout = j.WebhookTimeout.Duration, j.TaskTimeout.Duration
	c.InlineTextLimit, c.MaxExpiresMinutes = j.InlineTextLimit, j.MaxExpiresMinutes
	c.SweepInterval = j.SweepInterval.Duration
	c.SweepBatchSize, c.SweepConcurrency = j.SweepBatchSize, j.SweepConcurrency
	c.ShutdownTimeout, c.LogLevel = j.ShutdownTimeout.Duration, j.LogLevel
	c.OtelEnabled, c.OtelEndpoint, c.OtelInsecure = j.OtelEnabled, j.OtelEndpoint, j.OtelInsecure
	c.OtelServiceName, c.OtelSamplingRate = j.OtelServiceName, j.OtelSamplingRate
	return nil
}

// parseJson overlays the file named by -c/-config in args, if any.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	j := toJson(config)
	if err := json.Unmarshal(file, j); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := j.apply(config); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}
