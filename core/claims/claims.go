package claims

import (
	"context"
	"errors"
)

const (
	RoleEducator = "educator"
	RoleStudent  = "student"
)

// Claims identifies the logged-in caller. ProviderRole is the role the
// identity provider reports in the token's public metadata; it is one of two
// inputs to the educator decision, not the decision itself.
type Claims struct {
	UserID       string
	SessionID    string
	ProviderRole string
}

type ctxKey int

const claimsKey ctxKey = 1

// ErrNotAuthenticated is returned by Get when no caller is attached.
var ErrNotAuthenticated = errors.New("claim value missing from context")

func Set(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func Get(ctx context.Context) (Claims, error) {
	v, ok := ctx.Value(claimsKey).(Claims)
	if !ok || v.UserID == "" {
		return Claims{}, ErrNotAuthenticated
	}
	return v, nil
}

func IsAuthenticated(ctx context.Context) bool {
	_, err := Get(ctx)
	return err == nil
}
