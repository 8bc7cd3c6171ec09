// Package handler provides the HTTP request handlers for seqlink-server.
//
// Every JSON response uses the envelope in types.go. Domain errors are
// mapped to HTTP statuses from their code, and the code itself is echoed
// in the X-Error-Code header so a peer can tell sequence rejections apart
// without parsing the body.
package handler
