// Package config loads, normalizes, and validates mediaflow configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MEDIAFLOW_API_KEY. The Config type centralizes the directory layout the
// capabilities operate on, the orchestrator's termination and retry knobs,
// and the remote reasoning service credentials.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
