// Package repl provides the interactive line loop behind seqlink-cli chat.
//
// Plain lines go to the Evaluator. Lines starting with "/" are commands:
// /help and /quit are built in, others are registered by the caller.
// Input history is kept per user and saved on exit.
package repl
