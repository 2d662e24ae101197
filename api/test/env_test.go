package test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/irsalhamdi/course-cache/api"
	"github.com/irsalhamdi/course-cache/api/background"
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
	"github.com/irsalhamdi/course-cache/remote/remotetest"
	"github.com/irsalhamdi/course-cache/storage"
	"github.com/juju/clock"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

// TestEnv runs the agent router against a fake marketplace API.
type TestEnv struct {
	Remote  *remotetest.Server
	Server  *httptest.Server
	Client  *http.Client
	Catalog *course.Catalog
	Cart    *cart.Cart
	Notices *notice.Feed
}

func NewTestEnv(t *testing.T, educator bool) *TestEnv {
	t.Helper()
	return NewTestEnvWithVerifier(t, educator, auth.Unverified())
}

func NewTestEnvWithVerifier(t *testing.T, educator bool, v auth.Verifier) *TestEnv {
	t.Helper()

	log, _ := logtest.NewNullLogger()
	srv := remotetest.New(t)
	rc := srv.Client()

	srv.JSON(http.MethodGet, "/api/course/all", http.StatusOK, remotetest.M{
		"success": true,
		"courses": []remotetest.M{
			{"_id": "c1", "courseTitle": "Go in Practice", "coursePrice": 100, "discount": 10},
			{"_id": "c2", "courseTitle": "Distributed Systems", "coursePrice": 40},
			{"_id": "c3", "courseTitle": "Owned Already", "coursePrice": 20},
		},
	})
	srv.JSON(http.MethodGet, "/api/user/profile", http.StatusOK, remotetest.M{
		"success": true,
		"user":    remotetest.M{"_id": "user_1", "name": "Ada", "isEducator": educator},
	})
	srv.JSON(http.MethodGet, "/api/user/enrolled-courses", http.StatusOK, remotetest.M{
		"success":         true,
		"enrolledCourses": []remotetest.M{{"_id": "c3"}},
	})
	srv.JSON(http.MethodGet, "/api/user/purchases", http.StatusOK, remotetest.M{"success": true, "purchases": []remotetest.M{}})
	srv.JSON(http.MethodGet, "/api/user/pending-purchases-count", http.StatusOK, remotetest.M{"success": true, "count": 0})
	srv.JSON(http.MethodGet, "/api/educator/me", http.StatusOK, remotetest.M{
		"success": true,
		"dashboardData": remotetest.M{
			"totalEarnings":    "90.00",
			"totalStudents":    1,
			"totalCourses":     1,
			"publishedCourses": []remotetest.M{},
		},
	})
	srv.JSON(http.MethodPatch, "/api/educator/update-dashboard", http.StatusOK, remotetest.M{
		"success": true,
		"dashboardData": remotetest.M{
			"totalEarnings":    "90.00",
			"totalStudents":    1,
			"totalCourses":     1,
			"publishedCourses": []remotetest.M{},
		},
	})

	feed := notice.NewFeed(log, 50)
	resolver := role.NewResolver()
	catalog := course.NewCatalog(rc, feed, log)
	owned := course.NewOwned(rc, log)
	dash := dashboard.NewCache(rc, resolver, feed, log)
	pending := purchase.NewReconciler(rc, feed, log)
	crt := cart.Open(context.Background(), storage.NewMemory(), feed, cart.NewPulse(clock.WallClock, time.Second), log)

	orch := order.NewOrchestrator(order.Config{
		API:     rc,
		Cart:    crt,
		Owned:   owned,
		Catalog: catalog,
		Pending: pending,
		Notify:  feed,
		Log:     log,
	})
	sessions := session.NewManager(session.Config{
		API:       rc,
		Tokens:    srv.Tokens,
		Role:      resolver,
		Owned:     owned,
		Dashboard: dash,
		Pending:   pending,
		Log:       log,
	})

	checkout := rate.NewLimiter(1, time.Minute, rate.Every(time.Minute))
	t.Cleanup(checkout.Close)

	bg := background.New(log)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = bg.Shutdown(ctx)
	})

	if err := catalog.Refresh(context.Background()); err != nil {
		t.Fatalf("refreshing catalog: %v", err)
	}

	mux := api.APIMux(api.APIConfig{
		Log:          log,
		Session:      scs.New(),
		Background:   bg,
		Verifier:     v,
		Remote:       rc,
		Sessions:     sessions,
		Role:         resolver,
		Catalog:      catalog,
		Owned:        owned,
		Cart:         crt,
		Dashboard:    dash,
		Pending:      pending,
		Orchestrator: orch,
		Notices:      feed,
		Checkout:     checkout,
	})

	s := httptest.NewServer(mux)
	t.Cleanup(s.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}

	return &TestEnv{
		Remote:  srv,
		Server:  s,
		Client:  &http.Client{Jar: jar},
		Catalog: catalog,
		Cart:    crt,
		Notices: feed,
	}
}

// Do sends body as JSON and decodes the response into out when out is not
// nil. It returns the status code.
func (env *TestEnv) Do(t *testing.T, method, path string, body, out any) int {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}

	r, err := http.NewRequest(method, env.Server.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	r.Header.Set("Content-Type", "application/json")

	w, err := env.Client.Do(r)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer w.Body.Close()

	if out != nil {
		if err := json.NewDecoder(w.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s %s: %v", method, path, err)
		}
	}
	return w.StatusCode
}

// Login signs in with an unsigned token and waits for initialization.
func (env *TestEnv) Login(t *testing.T, providerRole string) session.State {
	t.Helper()
	return env.LoginWithHint(t, providerRole, "")
}

// LoginWithHint also sends hint as the role field of the login request.
func (env *TestEnv) LoginWithHint(t *testing.T, providerRole, hint string) session.State {
	t.Helper()

	claims := map[string]any{"sub": "user_1", "exp": time.Now().Add(time.Hour).Unix()}
	if providerRole != "" {
		claims["public_metadata"] = map[string]any{"role": providerRole}
	}
	b, err := json.Marshal(claims)
	if err != nil {
		t.Fatal(err)
	}
	enc := base64.RawURLEncoding
	token := enc.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`)) + "." + enc.EncodeToString(b) + ".c2ln"

	if code := env.Do(t, http.MethodPost, "/session/login", session.LoginNew{Token: token, Role: hint}, nil); code != http.StatusAccepted {
		t.Fatalf("login: status code %d", code)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var st session.State
		env.Do(t, http.MethodGet, "/session", nil, &st)
		if st.Initialized {
			return st
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("session not initialized")
	return session.State{}
}
