package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/dmitrijs2005/ticketvault/internal/flagx"
)

type lookupFunc func(key string) (string, bool)

// loadDotEnv reads the file named by -env-file, or ./.env when present.
// Variables already set in the process environment win.
var loadDotEnv = func(args []string) error {
	if path := flagx.EnvFilePath(args); path != "" {
		return godotenv.Load(path)
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// parseEnv overlays values from environment variables. Malformed numeric or
// boolean values are reported together.
func parseEnv(config *Config, args []string, lookup lookupFunc) error {
	if err := loadDotEnv(args); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}

	e := envReader{lookup: lookup}

	e.str("HTTP_ADDR", &config.HTTPAddr)
	e.str("GRPC_ADDR", &config.GRPCAddr)
	e.prefixes("TRUSTED_PROXIES", &config.TrustedProxies)
	e.str("DATABASE_DSN", &config.DatabaseDSN)
	e.str("TICKET_STORE", &config.TicketStore)

	e.str("BLOB_STORE", &config.BlobStore)
	e.str("BLOB_DIR", &config.BlobDir)
	e.str("S3_BUCKET", &config.S3Bucket)
	e.str("S3_REGION", &config.S3Region)
	e.str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	e.str("S3_ACCESS_KEY", &config.S3AccessKey)
	e.str("S3_SECRET_KEY", &config.S3SecretKey)
	e.boolean("S3_USE_PATH_STYLE", &config.S3UsePathStyle)

	e.str("CRYPTO_ALGORITHM", &config.CryptoAlgorithm)
	e.uint32("KDF_TIME", &config.KDFTime)
	e.uint32("KDF_MEMORY_KIB", &config.KDFMemoryKiB)
	e.uint8("KDF_THREADS", &config.KDFThreads)
	e.int("AGE_WORK_FACTOR", &config.AgeWorkFactor)

	e.str("WEBHOOK_URL", &config.WebhookURL)
	e.duration("WEBHOOK_TIMEOUT", &config.WebhookTimeout)
	e.duration("TASK_TIMEOUT", &config.TaskTimeout)

	e.int("INLINE_TEXT_LIMIT", &config.InlineTextLimit)
	e.int("MAX_EXPIRES_MINUTES", &config.MaxExpiresMinutes)

	e.duration("SWEEP_INTERVAL", &config.SweepInterval)
	e.int("SWEEP_BATCH_SIZE", &config.SweepBatchSize)
	e.int("SWEEP_CONCURRENCY", &config.SweepConcurrency)

	e.duration("SHUTDOWN_TIMEOUT", &config.ShutdownTimeout)
	e.str("LOG_LEVEL", &config.LogLevel)

	e.boolean("OTEL_ENABLED", &config.OtelEnabled)
	e.str("OTEL_EXPORTER_OTLP_ENDPOINT", &config.OtelEndpoint)
	e.boolean("OTEL_EXPORTER_OTLP_INSECURE", &config.OtelInsecure)
	e.str("OTEL_SERVICE_NAME", &config.OtelServiceName)
	e.float("OTEL_SAMPLING_RATE", &config.OtelSamplingRate)

	return e.err
}

type envReader struct {
	lookup lookupFunc
	err    error
}

func (e *envReader) get(key string) (string, bool) {
	v, ok := e.lookup(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (e *envReader) fail(key, value string, err error) {
	e.err = multierr.Append(e.err, fmt.Errorf("%s=%q: %w", key, value, err))
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) int(key string, dst *int) {
	if v, ok := e.get(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) uint32(key string, dst *uint32) {
	if v, ok := e.get(key); ok {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = uint32(n)
	}
}

func (e *envReader) uint8(key string, dst *uint8) {
	if v, ok := e.get(key); ok {
		n, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = uint8(n)
	}
}

func (e *envReader) float(key string, dst *float64) {
	if v, ok := e.get(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = f
	}
}

func (e *envReader) boolean(key string, dst *bool) {
	if v, ok := e.get(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = b
	}
}

// prefixes reads a comma-separated list for ParseTrustedProxies.
func (e *envReader) prefixes(key string, dst *[]netip.Prefix) {
	if v, ok := e.get(key); ok {
		p, err := ParseTrustedProxies(strings.Split(v, ","))
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = p
	}
}

// duration accepts Go duration strings; a bare integer is read as seconds.
func (e *envReader) duration(key string, dst *time.Duration) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = seconds(n)
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, v, err)
		return
	}
	*dst = d
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
