// Package config loads, normalizes, and validates Mintada configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MINTADA_CATALOG_DIR and MINTADA_DATABASE. The Config type centralizes the
// catalog root, database location, analysis thresholds, and swap detector
// worker settings so the CLI and engine packages discover them in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
