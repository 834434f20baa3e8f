package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/roomkeeper/internal/flagx"
)

var valueFlags = []string{
	"-a", "-r", "-s", "-d", "-f", "-redis",
	"-k", "-x", "-l", "-t", "-n", "-q", "-y",
	"-u", "-p", "-b", "-g", "-e",
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string       HTTP bind address (e.g., ":8080")
//	-r string       gRPC health bind address
//	-s string       storage driver: postgres, file or memory
//	-d string       PostgreSQL DSN
//	-f string       data directory for the file store
//	-redis string   redis address for shared rate-limit state
//	-k string       media server API key
//	-x string       media server API secret
//	-l string       media server URL
//	-t int          join token validity, minutes
//	-n string       default channel for joins without a room
//	-q int          audit log capacity
//	-y string       E2EE master key, hex
//	-u/-p string    S3 user / password
//	-b/-g/-e string S3 bucket / region / base endpoint
//	-trust-proxy    honour X-Forwarded-For and friends (bool)
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], valueFlags, "-trust-proxy")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port")
	fs.StringVar(&config.GRPCAddr, "r", config.GRPCAddr, "gRPC health address and port")
	fs.StringVar(&config.StorageDriver, "s", config.StorageDriver, "storage driver")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.DataDir, "f", config.DataDir, "data directory")
	fs.StringVar(&config.RedisAddr, "redis", config.RedisAddr, "redis address")

	fs.StringVar(&config.LiveKitAPIKey, "k", config.LiveKitAPIKey, "media server API key")
	fs.StringVar(&config.LiveKitAPISecret, "x", config.LiveKitAPISecret, "media server API secret")
	fs.StringVar(&config.LiveKitURL, "l", config.LiveKitURL, "media server URL")
	tokenValidity := fs.Int("t", int(config.JoinTokenValidityDuration.Minutes()), "join token validity (in minutes)")

	fs.StringVar(&config.DefaultChannel, "n", config.DefaultChannel, "default channel")
	fs.IntVar(&config.AuditLogCapacity, "q", config.AuditLogCapacity, "audit log capacity")
	fs.StringVar(&config.EncryptionKey, "y", config.EncryptionKey, "E2EE master key (hex)")
	fs.BoolVar(&config.TrustProxyHeaders, "trust-proxy", config.TrustProxyHeaders, "trust proxy headers")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.JoinTokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
}
