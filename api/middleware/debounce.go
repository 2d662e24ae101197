package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/irsalhamdi/course-cache/api/web"
	"github.com/irsalhamdi/course-cache/api/weberr"
	"github.com/irsalhamdi/course-cache/core/claims"
	"github.com/irsalhamdi/course-cache/rate"
)

// Debounce rejects repeated submissions of the same route by the same
// caller within the limiter's window, so a double click cannot open two
// checkout sessions.
func Debounce(l *rate.Limiter) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			who := r.RemoteAddr
			if clm, err := claims.Get(ctx); err == nil {
				who = clm.UserID
			}

			if !l.Check(who + " " + r.Method + " " + r.URL.Path) {
				return weberr.TooManyRequests(errors.New("duplicate submission"),
					weberr.WithFields(map[string]interface{}{"caller": who}),
				)
			}
			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
