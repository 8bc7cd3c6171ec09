package config

import "strings"

// Sanitize returns a copy of the config with secrets masked, for logging.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg
	sanitized.Server.HTTP.CORS.AllowedOrigins = append([]string(nil), cfg.Server.HTTP.CORS.AllowedOrigins...)

	if sanitized.Security.StatePassphrase != "" {
		sanitized.Security.StatePassphrase = maskSecret(sanitized.Security.StatePassphrase)
	}
	return &sanitized
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
