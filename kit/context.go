package kit

import "context"

type contextKey string

const (
	// TransportKey records which surface a request arrived on ("cli", "mcp").
	TransportKey contextKey = "kit_transport"
	// RequestIDKey carries the per-request ID for log correlation.
	RequestIDKey contextKey = "kit_request_id"
	// RunIDKey carries the audit run the request operates on.
	RunIDKey contextKey = "kit_run_id"
)

func WithTransport(ctx context.Context, t string) context.Context {
	return context.WithValue(ctx, TransportKey, t)
}
func GetTransport(ctx context.Context) string {
	if v, ok := ctx.Value(TransportKey).(string); ok {
		return v
	}
	return "cli"
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(RequestIDKey).(string)
	return v
}

func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RunIDKey, id)
}
func GetRunID(ctx context.Context) string {
	v, _ := ctx.Value(RunIDKey).(string)
	return v
}
