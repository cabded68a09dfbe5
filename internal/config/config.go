package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the vault process.
type Config struct {
	// GroupDir is the shared directory the database file lives in. When it
	// cannot be resolved and InMemory is false, opening the store fails.
	GroupDir string
	// InMemory switches the store to a throwaway in-memory database.
	InMemory bool

	// SearchEnabled turns the on-device search index on.
	SearchEnabled bool

	// SyncEnabled turns cloud sync on. Sync additionally requires a
	// reachable cloud account and a persistent store.
	SyncEnabled     bool
	SyncContainer   string
	SyncRegion      string
	SyncEndpoint    string
	AccessKeyID     string
	SecretAccessKey string
	// Passphrase seals record envelopes before upload. JSON-only, never
	// a flag.
	Passphrase   string
	SyncInterval time.Duration
}

// LoadDefaults populates c with sensible defaults. GroupDir falls back to
// a "qrvault" directory under the user config dir when one resolves.
func (c *Config) LoadDefaults() {
	if dir, err := os.UserConfigDir(); err == nil {
		c.GroupDir = filepath.Join(dir, "qrvault")
	}
	c.SearchEnabled = true
	c.SyncEnabled = false
	c.SyncRegion = "us-east-1"
	c.SyncInterval = 30 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
