package logger

import (
	"context"
	"strings"
)

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields are attached to every log record emitted with a context that carries them.
// Handlers set the request-scoped ids once and services log without repeating them.
type LogFields struct {
	InvitationID   *string // auth-provider invitation id
	OrganizationID *string // auth-provider organization id
	UserID         *int64  // internal user id
	ProfileID      *int64
	MessageID      *string // redis stream message id
	Component      string  // e.g. "readiq.service.invitation"
}

// WithLogFields merges fields into the context. Newer non-empty values win.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields returns the fields on ctx, or the zero value.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing

	if next.InvitationID != nil {
		result.InvitationID = next.InvitationID
	}
	if next.OrganizationID != nil {
		result.OrganizationID = next.OrganizationID
	}
	if next.UserID != nil {
		result.UserID = next.UserID
	}
	if next.ProfileID != nil {
		result.ProfileID = next.ProfileID
	}
	if next.MessageID != nil {
		result.MessageID = next.MessageID
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Ptr returns a pointer to v, for inline LogFields literals.
func Ptr[T any](v T) *T {
	return &v
}

// MaskEmail keeps the first character of the local part and the domain,
// enough to correlate logs without writing full addresses.
func MaskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
