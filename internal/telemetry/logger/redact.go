package logger

import (
	"log/slog"
	"strings"
)

// Key name fragments whose values must never reach a log sink. Public keys
// are fine to log and are matched by publicKeyPatterns first.
var sensitiveKeyPatterns = []string{
	"secret",
	"passphrase",
	"password",
	"private",
	"seed",
	"state",
	"plaintext",
	"payload",
}

var publicKeyPatterns = []string{
	"public_key",
	"pub",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive replaces the value of any attribute whose key names
// sensitive material. Byte slices are redacted regardless of type so a
// state blob logged as []byte is caught too.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	if !IsSensitiveKey(a.Key) {
		return a
	}
	switch a.Value.Kind() {
	case slog.KindString:
		if a.Value.String() == "" {
			return a
		}
		return slog.String(a.Key, redactedValue)
	case slog.KindAny:
		if b, ok := a.Value.Any().([]byte); ok {
			if len(b) == 0 {
				return a
			}
			return slog.String(a.Key, redactedValue)
		}
		return slog.String(a.Key, redactedValue)
	}
	return a
}

// maskValue keeps the first and last three characters of value.
func maskValue(value string) string {
	if len(value) <= 8 {
		return "***"
	}
	return value[:3] + "..." + value[len(value)-3:]
}

// RedactString partially masks an opaque value, such as a base64 frame,
// so log lines can be correlated without exposing it.
func RedactString(value string) string {
	if value == "" {
		return ""
	}
	return maskValue(value)
}

// IsSensitiveKey reports whether an attribute key names sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range publicKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return false
		}
	}
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
