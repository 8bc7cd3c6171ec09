// Package tlsroots loads TLS material for seqlink.
//
//   - roots.go: trusted roots for clients (system pool plus a CA file)
//   - reloader.go: a server certificate that is reloaded when its files
//     change on disk
//
// A failed reload keeps serving the previous certificate.
package tlsroots
