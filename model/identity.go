package model

import "context"

// ContextKey namespaces the request identity values stored in a context.
type ContextKey string

const (
	ContextKeyAppName   ContextKey = "appName"
	ContextKeyUserID    ContextKey = "userID"
	ContextKeySessionID ContextKey = "sessionID"
)

// Identity is who a model call is made on behalf of. Backends forward it to
// providers that accept an end-user identifier.
type Identity struct {
	AppName   string
	UserID    string
	SessionID string
}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	ctx = context.WithValue(ctx, ContextKeyAppName, id.AppName)
	ctx = context.WithValue(ctx, ContextKeyUserID, id.UserID)
	return context.WithValue(ctx, ContextKeySessionID, id.SessionID)
}

// IdentityFromContext returns the identity stored by WithIdentity; missing
// values are empty.
func IdentityFromContext(ctx context.Context) Identity {
	var id Identity
	id.AppName, _ = ctx.Value(ContextKeyAppName).(string)
	id.UserID, _ = ctx.Value(ContextKeyUserID).(string)
	id.SessionID, _ = ctx.Value(ContextKeySessionID).(string)
	return id
}
