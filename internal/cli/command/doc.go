// Package command provides CLI command definitions for seqlink-cli.
//
// This package defines all CLI commands using urfave/cli/v2:
//
//   - root.go: Root command, global flags, settings resolution
//   - chat.go: Interactive and scripted conversations
//   - conversation.go: Inspect or close a server-side conversation
//   - health.go: Server probes and policy
//   - keygen.go: Generate a P-256 public key
//
// Settings come from the CLI config file and SEQLINK_CLI_* variables;
// explicit flags override both.
package command
