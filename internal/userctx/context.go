package userctx

import "context"

type contextKey string

const userIDContextKey contextKey = "user_id"

// AnonymousUserID acts for every request when authentication is off.
const AnonymousUserID = "default"

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	return userID, ok && userID != ""
}

// UserID returns the acting user, or AnonymousUserID when none is set.
func UserID(ctx context.Context) string {
	if id, ok := GetUserID(ctx); ok {
		return id
	}
	return AnonymousUserID
}
