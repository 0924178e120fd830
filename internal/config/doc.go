// Package config manages application configuration for the recipe book API.
//
// Configuration is layered: built-in defaults, then an optional YAML file,
// then environment variables. Environment variables always win.
//
//	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
//	if err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... }
//
// # Configuration Groups
//
//   - ServerConfig: HTTP port, timeouts, CORS origins
//   - DatabaseConfig: driver (sqlite, sqlite3, postgres, surrealdb) and connection settings
//   - JWTConfig: RS256 key paths, issuer, token lifetime
//   - UploadsConfig: recipe image directory and size cap
//   - JobsConfig: draft pruning schedule (cron syntax) and age
//   - MetricsConfig: Prometheus endpoint
//   - LogConfig: slog level name
//
// Watch re-reads the file on change; the server uses it to adjust the log
// level without a restart.
package config
