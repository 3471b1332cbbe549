package authcore

import "context"

type contextKey uint8

const clientInfoKey contextKey = 1

// WithClientInfo attaches request metadata to the context. Engine operations
// copy it onto every audit entry they write.
func WithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientInfoKey, info)
}

// ClientInfoFromContext returns the attached client info, if any.
func ClientInfoFromContext(ctx context.Context) (ClientInfo, bool) {
	info, ok := ctx.Value(clientInfoKey).(ClientInfo)
	return info, ok
}
