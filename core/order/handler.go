package order

import (
	"context"
	"net/http"

	"github.com/irsalhamdi/course-cache/api/web"
	"github.com/irsalhamdi/course-cache/api/weberr"
	"github.com/irsalhamdi/course-cache/validate"
)

func statusOf(res Result) int {
	switch res.Kind {
	case Created:
		return http.StatusOK
	case NotAuthenticated:
		return http.StatusUnauthorized
	case AlreadyOwned, PendingPurchase:
		return http.StatusConflict
	case EmptyCart:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func HandlePurchaseCourse(o *Orchestrator) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		courseID := web.Param(r, "course_id")
		if err := validate.CheckID(courseID); err != nil {
			return weberr.BadRequest(err)
		}

		res := o.PurchaseSingle(ctx, courseID)
		return web.Respond(ctx, w, res, statusOf(res))
	}
}

func HandlePurchaseCart(o *Orchestrator) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		res := o.PurchaseCart(ctx)
		return web.Respond(ctx, w, res, statusOf(res))
	}
}
