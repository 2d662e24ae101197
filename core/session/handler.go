package session

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/irsalhamdi/course-cache/api/background"
	"github.com/irsalhamdi/course-cache/api/web"
	"github.com/irsalhamdi/course-cache/api/weberr"
	"github.com/irsalhamdi/course-cache/core/auth"
	"github.com/irsalhamdi/course-cache/core/claims"
	"github.com/irsalhamdi/course-cache/validate"
)

type LoginNew struct {
	Token string `json:"token" validate:"required"`
	Role  string `json:"role" validate:"omitempty,oneof=educator student"`
}

// HandleLogin verifies the identity-provider token, stores the caller in
// the session cookie and starts initialization in the background. Role is
// used only when the token carries none and the verifier runs without an
// identity provider.
func HandleLogin(m *Manager, sm *scs.SessionManager, v auth.Verifier, bg *background.Background) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in LoginNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(err)
		}

		id, err := v.Verify(ctx, in.Token)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		providerRole := id.Role
		if providerRole == "" && v.TrustsRoleHint() {
			providerRole = in.Role
		}

		clm := claims.Claims{
			UserID:       id.UserID,
			SessionID:    validate.GenerateID(),
			ProviderRole: providerRole,
		}
		if err := auth.Login(ctx, sm, clm); err != nil {
			return weberr.InternalError(err)
		}

		m.Login(in.Token, clm)
		bg.Go("session init", func(ctx context.Context) {
			m.Start(ctx)
		})

		return web.Respond(ctx, w, m.State(), http.StatusAccepted)
	}
}

func HandleLogout(m *Manager, sm *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		m.Logout()
		if err := auth.Logout(ctx, sm); err != nil {
			return weberr.InternalError(err)
		}
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleShow(m *Manager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.Respond(ctx, w, m.State(), http.StatusOK)
	}
}
