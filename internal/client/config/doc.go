// Package config loads runtime configuration for the chatkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-d string   database DSN (file path for SQLite, postgres:// URL for Postgres)
//	-p string   platform backend: "native" or "web"
//	-v string   link preview provider: "microlink", "html" or "none"
//	-i int      notification queue poll interval (seconds)
//	-l string   log level: debug, info, warn, error
//	-k          protect the stored encryption key with a passphrase
//
// # JSON schema
//
// Durations use timex.Duration, so they can be strings like "5s" or integer
// nanoseconds. Absent keys keep their defaults:
//
//	{
//	  "database_dsn": "chatkeeper.db",
//	  "platform": "native",
//	  "calendar_dir": "calendar",
//	  "export_dir": ".",
//	  "preview_provider": "microlink",
//	  "preview_timeout": "5s",
//	  "preview_cache_size": 256,
//	  "preview_cache_ttl": "30m",
//	  "notification_poll_interval": "5s",
//	  "log_level": "info",
//	  "protect_key": false
//	}
package config
