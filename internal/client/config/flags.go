package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/chatkeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the backend REST API
//	-w string   websocket URL of the live-update channel
//	-p int      history page size
//	-d string   local cache DSN ("" disables the cache)
//
// The function filters os.Args to only the flags it owns, using
// flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-w", "-p", "-d"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "base URL of the backend REST API")
	fs.StringVar(&cfg.StreamURL, "w", cfg.StreamURL, "websocket URL of the live-update channel")
	fs.IntVar(&cfg.PageSize, "p", cfg.PageSize, "history page size")
	fs.StringVar(&cfg.CacheDSN, "d", cfg.CacheDSN, "local cache DSN")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
