package purchase

import (
	"context"
	"net/http"

	"github.com/irsalhamdi/course-cache/api/web"
	"github.com/irsalhamdi/course-cache/api/weberr"
	"github.com/irsalhamdi/course-cache/validate"
)

func HandleListPending(rc *Reconciler) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		list, err := rc.List(ctx)
		if err != nil {
			return weberr.FromRemote(err)
		}
		return web.Respond(ctx, w, list, http.StatusOK)
	}
}

func HandleCount(rc *Reconciler) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		n, err := rc.Count(ctx)
		if err != nil {
			return weberr.FromRemote(err)
		}
		return web.Respond(ctx, w, struct {
			Count int `json:"count"`
		}{n}, http.StatusOK)
	}
}

func HandleRetry(rc *Reconciler) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		url, err := rc.Retry(ctx, id)
		if err != nil {
			return weberr.FromRemote(err, weberr.WithFields(map[string]interface{}{"purchase": id}))
		}
		return web.Respond(ctx, w, struct {
			SessionURL string `json:"sessionUrl"`
		}{url}, http.StatusOK)
	}
}

func HandleCancel(rc *Reconciler) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		if err := rc.Cancel(ctx, id); err != nil {
			return weberr.FromRemote(err, weberr.WithFields(map[string]interface{}{"purchase": id}))
		}
		return web.Respond(ctx, w, rc.Pending(), http.StatusOK)
	}
}
