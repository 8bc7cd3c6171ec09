// Package config provides seqlink-cli configuration.
//
//   - spec.go: CLIConfig struct (~/.seqlink/cli.yaml)
//   - loader.go: loading through confloader and saving as YAML
//
// Precedence is defaults, then the file, then SEQLINK_CLI_* variables;
// command-line flags are applied on top by the command package.
package config
