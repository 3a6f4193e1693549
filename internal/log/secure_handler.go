package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// MaskValue replaces sensitive values in log output.
const MaskValue = "***REDACTED***"

// sensitiveKeys lists attribute keys whose values are always masked,
// regardless of content.
var sensitiveKeys = map[string]bool{
	"password":    true,
	"cookie":      true,
	"secret":      true,
	"private_key": true,
	"privatekey":  true,
	"auth":        true,
	"credential":  true,
}

// sensitivePatterns match values that must be masked regardless of the
// attribute key they were logged under.
var sensitivePatterns = []*regexp.Regexp{
	// AUTHENTICATE and AUTHCHALLENGE command lines carry the secret or
	// handshake material as their argument.
	regexp.MustCompile(`(?i)^(>> )?AUTH(ENTICATE|CHALLENGE)\b`),

	// PrivateKey fields from ADD_ONION replies, in either the reply
	// line form or the bare keytype:material form.
	regexp.MustCompile(`(?i)PrivateKey=`),
	regexp.MustCompile(`^(ED25519-V3|RSA1024):`),

	// Tor's v3 onion secret key file marker.
	regexp.MustCompile(`== ed25519v1-secret:`),

	// Raw cookie file contents hex-encode to 64 characters.
	regexp.MustCompile(`^[0-9a-fA-F]{64}$`),
}

// SecureHandler wraps an slog.Handler and masks sensitive attribute
// values before handing records on. It recognizes secrets both by
// attribute key (password, cookie, ...) and by value shape
// (AUTHENTICATE lines, PrivateKey material, cookie hex).
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler wraps handler. A nil handler falls back to
// slog.Default()'s.
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// NewSecureLogger returns a text logger on w with secret masking
// applied, at the given level.
func NewSecureLogger(w io.Writer, level slog.Level) *slog.Logger {
	base := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewSecureHandler(base))
}

// Enabled implements slog.Handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle implements slog.Handler. The record's attributes are masked;
// the message itself is passed through, so secrets belong in
// attributes, never in the message text.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	masked := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(h.maskAttr(a))
		return true
	})
	return h.handler.Handle(ctx, masked)
}

// WithAttrs implements slog.Handler.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	maskedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		maskedAttrs[i] = h.maskAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(maskedAttrs)}
}

// WithGroup implements slog.Handler.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

// maskAttr masks a single attribute, recursing into groups.
func (h *SecureHandler) maskAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		maskedAttrs := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			maskedAttrs[i] = h.maskAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(maskedAttrs...)}
	}
	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}
	if a.Value.Kind() == slog.KindString && isSensitiveValue(a.Value.String()) {
		return slog.String(a.Key, MaskValue)
	}
	return a
}

// isSensitiveKey reports whether the attribute key itself marks the
// value as secret.
func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	if sensitiveKeys[key] {
		return true
	}
	for _, keyword := range []string{"password", "secret", "cookie", "private"} {
		if strings.Contains(key, keyword) {
			return true
		}
	}
	return false
}

// isSensitiveValue reports whether the value's shape marks it as
// secret.
func isSensitiveValue(value string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}
