// Package output provides output formatting for seqlink-cli.
//
//   - formatter.go: Formatter interface and factory
//   - text.go: aligned key/value text for humans
//   - json.go: JSON output formatting
//   - yaml.go: YAML output formatting
//
// Struct field names come from json tags in every format, so the three
// formats agree on naming.
package output
