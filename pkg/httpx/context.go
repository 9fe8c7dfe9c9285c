package httpx

import "context"

type ctxKey string

const (
	CtxKeyUserID       ctxKey = "user_id"
	CtxKeySessionToken ctxKey = "session_token"
)

// WithSession stores the signed-in user and their session token in ctx.
func WithSession(ctx context.Context, userID, token string) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, userID)
	return context.WithValue(ctx, CtxKeySessionToken, token)
}

func UserIDFromCtx(ctx context.Context) string {
	v, _ := ctx.Value(CtxKeyUserID).(string)
	return v
}

func SessionTokenFromCtx(ctx context.Context) string {
	v, _ := ctx.Value(CtxKeySessionToken).(string)
	return v
}
