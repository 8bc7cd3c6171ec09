// Package confloader loads layered configuration with koanf.
//
// Sources, lowest to highest priority:
//
//  1. Defaults taken from the target struct itself
//  2. A YAML file
//  3. Environment variables (SEQLINK_ prefix)
//
// Environment names are matched against the keys already known from the
// defaults and the file, so SEQLINK_SESSION_HANDSHAKE_TTL resolves to
// session.handshake_ttl rather than session.handshake.ttl.
//
// Watcher reports writes to the loaded file so callers can re-read the
// settings that are safe to change at runtime.
package confloader
