// Package connection provides the seqlink-cli HTTP client.
//
// HTTPClient handles transport concerns (base URL, timeouts, headers,
// the response envelope). Client layers the typed conversation API on
// top of it. Error responses come back as *APIError, which matches the
// domain error carrying the same code under errors.Is.
package connection
