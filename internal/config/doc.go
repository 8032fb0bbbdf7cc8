// Package config loads, normalizes, and validates subflow configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SUBFLOW_BASE_URL. The Config type centralizes every knob the CLI and the
// pipeline controller need, so the remote service endpoint, download
// directory, and subtitle formats are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
