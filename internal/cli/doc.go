// Package cli implements the recipebook command line.
//
// Commands:
//
//	recipebook serve [--port 8080]
//	recipebook migrate up | down [--steps N] | status
//	recipebook token <username> [--json]
//	recipebook keys [--private path] [--public path] [--force]
//
// Every command reads the same configuration: defaults, then the YAML file
// named by --config (or CONFIG_PATH), then environment variables.
package cli
