// Package config defines the seqlink-server configuration.
//
// Configuration is layered by internal/infra/confloader: defaults from
// Default(), then the YAML file, then SEQLINK_* environment variables.
// Verify rejects unusable settings before anything is started, and
// Sanitize produces a copy that is safe to log.
package config
