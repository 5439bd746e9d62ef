package instrument

import "context"

type correlationIDKey struct{}

// SetCorrelationID returns a context carrying the given correlation id.
func SetCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// GetCorrelationID returns the correlation id stored in ctx, or an
// empty string when none was set.
func GetCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return id
	}
	return ""
}
