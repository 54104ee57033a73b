package logging

import (
	"log/slog"
	"strings"
)

// RedactedValue replaces secrets in log output.
const RedactedValue = "[REDACTED]"

// Keys whose values never reach a log line. Matching ignores case and
// surrounding space.
var sensitiveKeys = map[string]struct{}{
	"authorization":   {},
	"token":           {},
	"jwt":             {},
	"secret":          {},
	"password":        {},
	"idempotency_key": {},
}

// Sensitive reports whether values logged under key are redacted.
func Sensitive(key string) bool {
	_, ok := sensitiveKeys[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// Redact hides a non-empty value. Empty values pass through so a missing
// header stays distinguishable from a present one.
func Redact(value string) string {
	if strings.TrimSpace(value) == "" {
		return value
	}
	return RedactedValue
}

// MaskField logs key with its value hidden, whatever the key.
func MaskField(key, value string) slog.Attr {
	return slog.String(key, Redact(value))
}

func redactAttr(attr slog.Attr) slog.Attr {
	if !Sensitive(attr.Key) || attr.Value.Kind() != slog.KindString {
		return attr
	}
	return slog.String(attr.Key, Redact(attr.Value.String()))
}
