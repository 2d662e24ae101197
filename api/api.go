package api

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/irsalhamdi/course-cache/api/background"
	"github.com/irsalhamdi/course-cache/api/middleware"
	"github.com/irsalhamdi/course-cache/api/web"
	"github.com/irsalhamdi/course-cache/core/auth"
	"github.com/irsalhamdi/course-cache/core/cart"
	"github.com/irsalhamdi/course-cache/core/course"
	"github.com/irsalhamdi/course-cache/core/dashboard"
	"github.com/irsalhamdi/course-cache/core/notice"
	"github.com/irsalhamdi/course-cache/core/order"
	"github.com/irsalhamdi/course-cache/core/purchase"
	"github.com/irsalhamdi/course-cache/core/role"
	"github.com/irsalhamdi/course-cache/core/session"
	"github.com/irsalhamdi/course-cache/rate"
	"github.com/irsalhamdi/course-cache/remote"
	"github.com/sirupsen/logrus"
)

type APIConfig struct {
	CorsOrigin   string
	Log          logrus.FieldLogger
	Session      *scs.SessionManager
	Background   *background.Background
	Verifier     auth.Verifier
	Remote       *remote.Client
	Sessions     *session.Manager
	Role         *role.Resolver
	Catalog      *course.Catalog
	Owned        *course.Owned
	Cart         *cart.Cart
	Dashboard    *dashboard.Cache
	Pending      *purchase.Reconciler
	Orchestrator *order.Orchestrator
	Notices      *notice.Feed
	Checkout     *rate.Limiter
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, auth.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())
	a.mw = append(a.mw, auth.Identify(cfg.Session))

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	authen := auth.Authenticate(cfg.Session)
	educator := dashboard.Educator(cfg.Role)
	debounce := middleware.Debounce(cfg.Checkout)

	a.Handle(http.MethodPost, "/session/login", session.HandleLogin(cfg.Sessions, cfg.Session, cfg.Verifier, cfg.Background))
	a.Handle(http.MethodPost, "/session/logout", session.HandleLogout(cfg.Sessions, cfg.Session))
	a.Handle(http.MethodGet, "/session", session.HandleShow(cfg.Sessions))

	a.Handle(http.MethodGet, "/courses/owned", course.HandleListOwned(cfg.Owned), authen)
	a.Handle(http.MethodPost, "/courses/refresh", course.HandleRefresh(cfg.Catalog))
	a.Handle(http.MethodGet, "/courses/{id}", course.HandleShow(cfg.Remote))
	a.Handle(http.MethodGet, "/courses", course.HandleList(cfg.Catalog))

	a.Handle(http.MethodGet, "/categories/with-courses", course.HandleListCategories(cfg.Remote, true))
	a.Handle(http.MethodGet, "/categories", course.HandleListCategories(cfg.Remote, false))

	a.Handle(http.MethodGet, "/cart", cart.HandleShow(cfg.Cart))
	a.Handle(http.MethodDelete, "/cart", cart.HandleDelete(cfg.Cart))
	a.Handle(http.MethodPut, "/cart/items", cart.HandleCreateItem(cfg.Cart, cfg.Catalog, cfg.Owned))
	a.Handle(http.MethodDelete, "/cart/items/{course_id}", cart.HandleDeleteItem(cfg.Cart))

	a.Handle(http.MethodPost, "/orders/courses/{course_id}", order.HandlePurchaseCourse(cfg.Orchestrator), debounce)
	a.Handle(http.MethodPost, "/orders/cart", order.HandlePurchaseCart(cfg.Orchestrator), debounce)

	a.Handle(http.MethodGet, "/purchases/pending/count", purchase.HandleCount(cfg.Pending), authen)
	a.Handle(http.MethodGet, "/purchases/pending", purchase.HandleListPending(cfg.Pending), authen)
	a.Handle(http.MethodPost, "/purchases/{id}/retry", purchase.HandleRetry(cfg.Pending), authen, debounce)
	a.Handle(http.MethodPost, "/purchases/{id}/cancel", purchase.HandleCancel(cfg.Pending), authen)

	a.Handle(http.MethodGet, "/educator/dashboard", dashboard.HandleShow(cfg.Dashboard), authen, educator)
	a.Handle(http.MethodPost, "/educator/dashboard/sync", dashboard.HandleSync(cfg.Dashboard), authen, educator)
	a.Handle(http.MethodGet, "/educator/students", dashboard.HandleListStudents(cfg.Dashboard), authen, educator)
	a.Handle(http.MethodPatch, "/educator/courses/{course_id}/publication", dashboard.HandleTogglePublication(cfg.Dashboard), authen, educator)

	a.Handle(http.MethodGet, "/notices", notice.HandleList(cfg.Notices))

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
