// Package config loads, normalizes, and validates nostrcast's TOML
// configuration.
package config
