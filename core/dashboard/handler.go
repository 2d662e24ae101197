package dashboard

import (
	"context"
	"errors"
	"net/http"

	"github.com/irsalhamdi/course-cache/api/web"
	"github.com/irsalhamdi/course-cache/api/weberr"
	"github.com/irsalhamdi/course-cache/core/role"
	"github.com/irsalhamdi/course-cache/validate"
)

type view struct {
	Fetched *Snapshot `json:"fetched"`
	Synced  *Snapshot `json:"synced"`
}

func (c *Cache) view() view {
	var v view
	if s, ok := c.Fetched(); ok {
		v.Fetched = &s
	}
	if s, ok := c.Synced(); ok {
		v.Synced = &s
	}
	return v
}

// Educator rejects callers the resolver does not consider educators.
func Educator(r *role.Resolver) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, req *http.Request) error {
			if !r.IsEducator() {
				return weberr.Forbidden(ErrNotEducator)
			}
			return handler(ctx, w, req)
		}
		return h
	}
	return m
}

func HandleShow(c *Cache) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if err := c.Fetch(ctx); err != nil {
			return weberr.FromRemote(err)
		}
		return web.Respond(ctx, w, c.view(), http.StatusOK)
	}
}

func HandleSync(c *Cache) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		ran, err := c.Sync(ctx)
		if err != nil {
			return weberr.FromRemote(err)
		}

		resp := struct {
			Synced bool `json:"synced"`
			view
		}{ran, c.view()}
		return web.Respond(ctx, w, resp, http.StatusOK)
	}
}

func HandleListStudents(c *Cache) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.Respond(ctx, w, c.Roster(), http.StatusOK)
	}
}

func HandleTogglePublication(c *Cache) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "course_id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		if err := c.TogglePublication(ctx, id); err != nil {
			if errors.Is(err, ErrNotEducator) {
				return weberr.Forbidden(err)
			}
			return weberr.FromRemote(err, weberr.WithFields(map[string]interface{}{"course": id}))
		}
		return web.Respond(ctx, w, c.view(), http.StatusOK)
	}
}
