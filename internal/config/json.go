package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/quickmark/qrvault/internal/flagx"
	"github.com/quickmark/qrvault/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so the sync interval can be a string like "30s" or integer
// nanoseconds. Values are copied into the runtime Config after parsing.
type JsonConfig struct {
	GroupDir        string         `json:"group_dir"`
	InMemory        *bool          `json:"in_memory"`
	SearchEnabled   *bool          `json:"search_enabled"`
	SyncEnabled     *bool          `json:"sync_enabled"`
	SyncContainer   string         `json:"sync_container"`
	SyncRegion      string         `json:"sync_region"`
	SyncEndpoint    string         `json:"sync_endpoint"`
	AccessKeyID     string         `json:"access_key_id"`
	SecretAccessKey string         `json:"secret_access_key"`
	Passphrase      string         `json:"passphrase"`
	SyncInterval    timex.Duration `json:"sync_interval"`
}

// parseJson overlays cfg with values from the JSON file named by -c or
// -config. When neither flag is set, nothing is loaded. String fields are
// copied only when non-empty and bools only when present, so the JSON file
// can stay partial. Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.GroupDir != "" {
		cfg.GroupDir = jc.GroupDir
	}
	if jc.InMemory != nil {
		cfg.InMemory = *jc.InMemory
	}
	if jc.SearchEnabled != nil {
		cfg.SearchEnabled = *jc.SearchEnabled
	}
	if jc.SyncEnabled != nil {
		cfg.SyncEnabled = *jc.SyncEnabled
	}
	if jc.SyncContainer != "" {
		cfg.SyncContainer = jc.SyncContainer
	}
	if jc.SyncRegion != "" {
		cfg.SyncRegion = jc.SyncRegion
	}
	if jc.SyncEndpoint != "" {
		cfg.SyncEndpoint = jc.SyncEndpoint
	}
	if jc.AccessKeyID != "" {
		cfg.AccessKeyID = jc.AccessKeyID
	}
	if jc.SecretAccessKey != "" {
		cfg.SecretAccessKey = jc.SecretAccessKey
	}
	if jc.Passphrase != "" {
		cfg.Passphrase = jc.Passphrase
	}
	if jc.SyncInterval.Duration != 0 {
		cfg.SyncInterval = time.Duration(jc.SyncInterval.Duration)
	}
}
