package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/safecheck/internal/flagx"
)

var ownFlags = []string{
	"-store", "-db", "-postgres-dsn", "-redis-addr",
	"-urgent", "-tick", "-policy",
	"-log-backend", "-log-level", "-log-format",
}

// parseFlags populates selected Config fields from command-line flags.
//
//	-store string        settings backend: sqlite, postgres, redis, s3
//	-db string           SQLite database file
//	-postgres-dsn string PostgreSQL DSN
//	-redis-addr string   Redis host:port
//	-urgent duration     remaining time at which the urgent phase starts
//	-tick duration       countdown re-evaluation interval
//	-policy string       dispatch failure policy: warn, ignore
//	-log-backend string  slog or zap
//	-log-level string    debug, info, warn, error
//	-log-format string   text or json
//
// Only the flags above are looked at, so -c/-config and flags owned by other
// components do not make parsing fail.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("safecheck", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.StoreDriver, "store", cfg.StoreDriver, "settings backend")
	fs.StringVar(&cfg.SQLitePath, "db", cfg.SQLitePath, "SQLite database file")
	fs.StringVar(&cfg.PostgresDSN, "postgres-dsn", cfg.PostgresDSN, "PostgreSQL DSN")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address")
	fs.DurationVar(&cfg.UrgentThreshold, "urgent", cfg.UrgentThreshold, "urgent threshold")
	fs.DurationVar(&cfg.TickInterval, "tick", cfg.TickInterval, "tick interval")
	fs.StringVar(&cfg.DispatchFailurePolicy, "policy", cfg.DispatchFailurePolicy, "dispatch failure policy")
	fs.StringVar(&cfg.LogBackend, "log-backend", cfg.LogBackend, "log backend")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format")

	if err := fs.Parse(flagx.FilterArgs(args, ownFlags)); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
