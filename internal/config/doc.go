// Package config loads, parses and validates application settings from
// defaults, an optional YAML file and SCRY_* environment variables.
package config
