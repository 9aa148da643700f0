// Package config loads, normalizes, and validates framestash configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the FRAMESTASH_FFMPEG environment
// fallback for the ffmpeg executable. The Config type centralizes the encode
// and decode parameters alongside the data, work, and log directories so the
// CLI and pipeline discover everything in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log levels, and clear validation errors.
package config
