// Package auth verifies identity-provider tokens and keeps the logged-in
// user in the local agent's session cookie.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/irsalhamdi/course-cache/api/web"
	"github.com/irsalhamdi/course-cache/api/weberr"
	"github.com/irsalhamdi/course-cache/core/claims"
)

const (
	userIDKey    = "userID"
	sessionIDKey = "sessionID"
	roleKey      = "providerRole"
)

// LoadAndSave adapts the scs session middleware to web.Handler.
func LoadAndSave(sm *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			var err error
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				err = handler(r.Context(), w, r)
			})
			sm.LoadAndSave(next).ServeHTTP(w, r.WithContext(ctx))
			return err
		}
		return h
	}
	return m
}

// Identify attaches the session's caller to the context when there is one
// and lets anonymous requests through.
func Identify(sm *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if clm, ok := current(ctx, sm); ok {
				ctx = claims.Set(ctx, clm)
			}
			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

// Authenticate rejects requests without a logged-in caller.
func Authenticate(sm *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			clm, ok := current(ctx, sm)
			if !ok {
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			}
			return handler(claims.Set(ctx, clm), w, r)
		}
		return h
	}
	return m
}

func current(ctx context.Context, sm *scs.SessionManager) (claims.Claims, bool) {
	userID := sm.GetString(ctx, userIDKey)
	if userID == "" {
		return claims.Claims{}, false
	}
	return claims.Claims{
		UserID:       userID,
		SessionID:    sm.GetString(ctx, sessionIDKey),
		ProviderRole: sm.GetString(ctx, roleKey),
	}, true
}

// Login stores clm in a fresh session token.
func Login(ctx context.Context, sm *scs.SessionManager, clm claims.Claims) error {
	if err := sm.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}
	sm.Put(ctx, userIDKey, clm.UserID)
	sm.Put(ctx, sessionIDKey, clm.SessionID)
	sm.Put(ctx, roleKey, clm.ProviderRole)
	return nil
}

func Logout(ctx context.Context, sm *scs.SessionManager) error {
	if err := sm.Destroy(ctx); err != nil {
		return fmt.Errorf("destroying session: %w", err)
	}
	return nil
}
