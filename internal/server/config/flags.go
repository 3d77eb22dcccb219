package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/ticketvault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-g string   gRPC bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-t string   ticket store: postgres | memory
//	-o string   blob store: s3 | file | memory
//	-f string   base directory for the file blob store
//	-u string   S3 access key
//	-p string   S3 secret key
//	-b string   S3 bucket name
//	-r string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-k string   cipher algorithm
//	-w string   webhook URL
//	-i int      sweep interval, seconds (0 disables the scheduler)
//	-m int      maximum ticket lifetime, minutes (0 means unlimited)
//	-l string   log level
//
// Flags that belong to other layers (-c, -env-file) are filtered out first.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{
		"-a", "-g", "-d", "-t", "-o", "-f", "-u", "-p", "-b", "-r", "-e", "-k", "-w", "-i", "-m", "-l",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "gRPC address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.TicketStore, "t", config.TicketStore, "ticket store")
	fs.StringVar(&config.BlobStore, "o", config.BlobStore, "blob store")
	fs.StringVar(&config.BlobDir, "f", config.BlobDir, "blob directory")

	fs.StringVar(&config.S3AccessKey, "u", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "p", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "r", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.StringVar(&config.CryptoAlgorithm, "k", config.CryptoAlgorithm, "cipher algorithm")
	fs.StringVar(&config.WebhookURL, "w", config.WebhookURL, "webhook URL")

	sweepSeconds := fs.Int("i", int(config.SweepInterval.Seconds()), "sweep interval (in seconds)")
	fs.IntVar(&config.MaxExpiresMinutes, "m", config.MaxExpiresMinutes, "max ticket lifetime (in minutes)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	config.SweepInterval = seconds(*sweepSeconds)
	return nil
}
