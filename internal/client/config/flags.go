package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/roomkeeper/internal/flagx"
)

// parseFlags overlays cfg with command-line flags:
//
//	-a string   base URL of the roomkeeper HTTP API
//	-g string   host:port of the gRPC health endpoint
//	-t int      request timeout (seconds)
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the API server")
	fs.StringVar(&cfg.HealthAddr, "g", cfg.HealthAddr, "address and port of the health endpoint")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
}
