package auth

import "context"

type ctxKey int

const ctxToken ctxKey = iota

// WithToken attaches the request's bearer token. It lives only as long as the request context.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxToken, token)
}

// Token returns the bearer token attached by the session gate.
func Token(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(ctxToken).(string)
	return s, ok && s != ""
}
