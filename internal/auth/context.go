package auth

import "context"

type authContextKey string

const (
	userContextKey  authContextKey = "user"
	tokenContextKey authContextKey = "token"
)

// WithUser adds the session information and its token to the context.
//
// For any request with this context, you can use `GetUser`
// to get the session information and `GetToken` to get the token.
func WithUser(ctx context.Context, token string, info TokenInfo) context.Context {
	ctx = context.WithValue(ctx, tokenContextKey, token)
	return context.WithValue(ctx, userContextKey, info)
}

// GetUser returns the session information from the context.
//
// It returns the session information and a boolean indicating
// whether the session information is present.
func GetUser(ctx context.Context) (TokenInfo, bool) {
	info, ok := ctx.Value(userContextKey).(TokenInfo)
	return info, ok
}

// GetToken returns the session token from the context.
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenContextKey).(string)
	return token, ok
}
