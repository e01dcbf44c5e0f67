// Package config loads, normalizes, and validates spritebridge configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML from ~/.config/spritebridge/config.toml or a
// spritebridge.toml in the working directory. The Config type centralizes
// every knob the CLI and watch daemon need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
