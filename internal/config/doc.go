// Package config loads, validates, and normalizes the TOML configuration for
// the pollkit CLI and pipeline.
package config
