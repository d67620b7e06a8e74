package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/facegate/internal/flagx"
)

// parseFlags overlays cfg with the flags this package owns. Other flags in
// os.Args are ignored. It panics on malformed values.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-s", "-k", "-d", "-l", "-m"})
	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.StringVar(&cfg.StorePath, "s", cfg.StorePath, "path of the encrypted store file")
	fs.StringVar(&cfg.KeyPath, "k", cfg.KeyPath, "path of the key file")
	fs.StringVar(&cfg.DetectorURL, "d", cfg.DetectorURL, "base URL of the landmark detector")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "listen address for the metrics endpoint")
	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
