// Package config loads runtime configuration for safecheck.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config (see parseJSON).
//  3. Environment variables prefixed with SAFECHECK_ (see parseEnv).
//  4. Command-line flags (see parseFlags).
//
// Later sources override earlier ones.
//
// # JSON schema
//
// Durations use timex.Duration, so they can be strings like "5m" or integer
// nanoseconds:
//
//	{
//	  "store_driver": "sqlite",
//	  "sqlite_path": "safecheck.db",
//	  "urgent_threshold": "5m",
//	  "tick_interval": "1s",
//	  "smtp_host": "smtp.example.com"
//	}
package config
