package middleware

import "context"

// userIDKey is the key used to store the acting user's ID in a context.
const userIDKey = contextKey("userID")

// SystemUserID is recorded in audit fields when no user is attached to the context.
const SystemUserID = "system"

// WithUserID returns a copy of ctx carrying the acting user's ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserIDFromCtx retrieves the acting user ID from ctx, or SystemUserID.
func GetUserIDFromCtx(ctx context.Context) string {
	if ctx == nil {
		return SystemUserID
	}
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok || userID == "" {
		return SystemUserID
	}
	return userID
}
