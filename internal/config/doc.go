// Package config loads runtime configuration for the vault process.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// The JSON loader uses timex.Duration for the sync interval, so values can
// be either strings like "30s" or integer nanoseconds:
//
//	{
//	  "group_dir": "/var/lib/qrvault",
//	  "search_enabled": true,
//	  "sync_enabled": true,
//	  "sync_container": "qrvault-records",
//	  "passphrase": "correct horse battery staple",
//	  "sync_interval": "30s"
//	}
//
// Cloud credentials and the sealing passphrase are accepted from the JSON
// file only, never from flags. Environment variables are not read directly;
// the AWS SDK still honors its own environment when no static credentials
// are configured.
package config
