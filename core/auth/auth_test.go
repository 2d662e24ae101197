package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/http/cookiejar"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/go-cmp/cmp"
	"github.com/irsalhamdi/course-cache/api/web"
	"github.com/irsalhamdi/course-cache/core/claims"
)

func token(t *testing.T, payload map[string]any) string {
	t.Helper()
	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`)) + "." + enc.EncodeToString(b) + ".c2ln"
}

func TestVerifyReadsProviderRole(t *testing.T) {
	raw := token(t, map[string]any{
		"sub":             "user_1",
		"email":           "ada@example.com",
		"exp":             time.Now().Add(time.Hour).Unix(),
		"public_metadata": map[string]any{"role": "educator"},
	})

	id, err := Unverified().Verify(context.Background(), raw)
	if err != nil {
		t.Fatal(err)
	}

	want := Identity{UserID: "user_1", Email: "ada@example.com", Role: claims.RoleEducator}
	if diff := cmp.Diff(want, id); diff != "" {
		t.Fatalf("identity mismatch (-want +got):\n%s", diff)
	}
}

func TestVerifyWithoutRole(t *testing.T) {
	raw := token(t, map[string]any{"sub": "user_2", "exp": time.Now().Add(time.Hour).Unix()})

	id, err := Unverified().Verify(context.Background(), raw)
	if err != nil {
		t.Fatal(err)
	}
	if id.Role != "" {
		t.Fatalf("expected no role, got %q", id.Role)
	}
}

func TestVerifyRejects(t *testing.T) {
	tests := map[string]string{
		"expired":    token(t, map[string]any{"sub": "u", "exp": time.Now().Add(-time.Hour).Unix()}),
		"no subject": token(t, map[string]any{"exp": time.Now().Add(time.Hour).Unix()}),
		"garbage":    "not-a-token",
	}
	for name, raw := range tests {
		if _, err := Unverified().Verify(context.Background(), raw); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestTrustsRoleHint(t *testing.T) {
	if !Unverified().TrustsRoleHint() {
		t.Fatalf("development verifier should accept role hints")
	}

	v := NewOIDCVerifier("https://issuer.example.com", nil, &oidc.Config{
		SkipClientIDCheck:          true,
		InsecureSkipSignatureCheck: true,
	})
	if v.TrustsRoleHint() {
		t.Fatalf("provider-backed verifier must not accept role hints")
	}
}

func TestSessionMiddleware(t *testing.T) {
	sm := scs.New()

	wrap := func(h web.Handler, mw ...web.Middleware) http.Handler {
		h = web.WrapMiddleware(mw, h)
		h = LoadAndSave(sm)(h)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := h(r.Context(), w, r); err != nil {
				w.WriteHeader(http.StatusUnauthorized)
			}
		})
	}

	mux := http.NewServeMux()
	mux.Handle("/login", wrap(func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if err := Login(ctx, sm, claims.Claims{UserID: "user_1", SessionID: "s1", ProviderRole: "educator"}); err != nil {
			return err
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	}))
	mux.Handle("/logout", wrap(func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if err := Logout(ctx, sm); err != nil {
			return err
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	}))
	mux.Handle("/me", wrap(func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return err
		}
		return web.Respond(ctx, w, clm, http.StatusOK)
	}, Authenticate(sm)))
	mux.Handle("/whoami", wrap(func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.Respond(ctx, w, claims.IsAuthenticated(ctx), http.StatusOK)
	}, Identify(sm)))

	srv := httptest.NewServer(mux)
	defer srv.Close()

	jar, _ := cookiejar.New(nil)
	client := &http.Client{Jar: jar}

	get := func(path string) *http.Response {
		t.Helper()
		resp, err := client.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	if resp := get("/me"); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous request: expected 401, got %s", resp.Status)
	}

	var anon bool
	json.NewDecoder(get("/whoami").Body).Decode(&anon)
	if anon {
		t.Fatalf("identify attached claims to an anonymous request")
	}

	get("/login")

	resp := get("/me")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logged in request: expected 200, got %s", resp.Status)
	}
	var got claims.Claims
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(claims.Claims{UserID: "user_1", SessionID: "s1", ProviderRole: "educator"}, got); diff != "" {
		t.Fatalf("claims mismatch (-want +got):\n%s", diff)
	}

	get("/logout")
	if resp := get("/me"); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("after logout: expected 401, got %s", resp.Status)
	}
}
