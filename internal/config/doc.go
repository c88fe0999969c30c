// Package config loads, normalizes, and validates storyreel configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// STORYREEL_API_KEY and OPENAI_API_KEY. The Config type centralizes every
// knob the daemon and CLI need, so data directories, the generative API
// connection, and workflow timing are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
