// Package config loads Presto's settings from ~/.config/presto/config.toml
// with environment variable overrides (PRESTO_SERVER, PRESTO_LOG_DIR,
// PRESTO_NO_LIVE). A missing file is not an error; defaults point at a
// local controller.
package config
