package config

import (
	"flag"
	"os"
	"time"

	"github.com/quickmark/qrvault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-d string          group directory holding the database file
//	-mem               use an in-memory database
//	-search            enable the on-device search index
//	-sync              enable cloud sync
//	-container string  cloud container name
//	-region string     cloud region
//	-endpoint string   custom cloud endpoint (for S3-compatible stores)
//	-i int             sync interval in seconds
//
// Credentials and the sealing passphrase come from the JSON config only.
// The function filters os.Args to the flags it knows about, using
// flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:],
		[]string{"-d", "-mem", "-search", "-sync", "-container", "-region", "-endpoint", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.GroupDir, "d", cfg.GroupDir, "group directory holding the database file")
	fs.BoolVar(&cfg.InMemory, "mem", cfg.InMemory, "use an in-memory database")
	fs.BoolVar(&cfg.SearchEnabled, "search", cfg.SearchEnabled, "enable the on-device search index")
	fs.BoolVar(&cfg.SyncEnabled, "sync", cfg.SyncEnabled, "enable cloud sync")
	fs.StringVar(&cfg.SyncContainer, "container", cfg.SyncContainer, "cloud container name")
	fs.StringVar(&cfg.SyncRegion, "region", cfg.SyncRegion, "cloud region")
	fs.StringVar(&cfg.SyncEndpoint, "endpoint", cfg.SyncEndpoint, "custom cloud endpoint")
	interval := fs.Int("i", int(cfg.SyncInterval.Seconds()), "sync interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.SyncInterval = time.Duration(*interval) * time.Second
}
