package middleware

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/irsalhamdi/course-cache/api/web"
	"github.com/irsalhamdi/course-cache/api/weberr"
)

// Panics converts a panic in a handler into an error for the Errors
// middleware, keeping the stack in the log fields.
func Panics() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					err = weberr.InternalError(
						fmt.Errorf("panic: %v", rec),
						weberr.WithFields(map[string]interface{}{"stack": string(debug.Stack())}),
					)
				}
			}()
			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
