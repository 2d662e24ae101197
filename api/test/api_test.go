package test

import (
	"net/http"
	"testing"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/irsalhamdi/course-cache/core/auth"
	"github.com/irsalhamdi/course-cache/core/cart"
	"github.com/irsalhamdi/course-cache/core/order"
	"github.com/irsalhamdi/course-cache/core/role"
	"github.com/irsalhamdi/course-cache/remote/remotetest"
	"github.com/shopspring/decimal"
)

type cartView struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

type cartChange struct {
	Outcome cart.Outcome `json:"outcome"`
	Cart    cartView     `json:"cart"`
}

func TestCartCheckout(t *testing.T) {
	env := NewTestEnv(t, false)

	const purchasePath = "/api/user/purchase-cart"
	env.Remote.JSON(http.MethodPost, purchasePath, http.StatusOK, remotetest.M{
		"success":     true,
		"sessionUrl":  "https://checkout.example.com/c/pay/cs_1",
		"totalAmount": 130,
		"courseCount": 2,
	})

	var ch cartChange
	if code := env.Do(t, http.MethodPut, "/cart/items", cart.ItemNew{CourseID: "c1"}, &ch); code != http.StatusCreated {
		t.Fatalf("can't add course: status code %d", code)
	}
	if code := env.Do(t, http.MethodPut, "/cart/items", cart.ItemNew{CourseID: "c1"}, &ch); code != http.StatusOK || ch.Outcome != cart.AlreadyInCart {
		t.Fatalf("adding twice: status code %d, outcome %q", code, ch.Outcome)
	}
	if code := env.Do(t, http.MethodPut, "/cart/items", cart.ItemNew{CourseID: "c2"}, &ch); code != http.StatusCreated {
		t.Fatalf("can't add course: status code %d", code)
	}
	if code := env.Do(t, http.MethodPut, "/cart/items", cart.ItemNew{CourseID: "missing"}, nil); code != http.StatusNotFound {
		t.Fatalf("adding unknown course: status code %d", code)
	}

	var v cartView
	env.Do(t, http.MethodGet, "/cart", nil, &v)
	if v.Count != 2 || !v.Total.Equal(decimal.NewFromInt(130)) {
		t.Fatalf("cart = %d items, total %s", v.Count, v.Total)
	}

	var res order.Result
	if code := env.Do(t, http.MethodPost, "/orders/cart", nil, &res); code != http.StatusUnauthorized || res.Kind != order.NotAuthenticated {
		t.Fatalf("anonymous checkout: status code %d, kind %q", code, res.Kind)
	}
	if env.Cart.Len() != 2 {
		t.Fatalf("anonymous checkout changed the cart")
	}

	st := env.Login(t, "")
	if st.Role != role.Student {
		t.Fatalf("role = %q, want student", st.Role)
	}

	// c3 is owned once the session has loaded enrolled courses.
	if code := env.Do(t, http.MethodPut, "/cart/items", cart.ItemNew{CourseID: "c3"}, &ch); code != http.StatusOK || ch.Outcome != cart.AlreadyEnrolled {
		t.Fatalf("adding owned course: status code %d, outcome %q", code, ch.Outcome)
	}

	res = order.Result{}
	if code := env.Do(t, http.MethodPost, "/orders/cart", nil, &res); code != http.StatusOK {
		t.Fatalf("checkout: status code %d, error %q", code, res.Error)
	}
	if !res.Success || res.SessionURL == "" || res.CourseCount != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if n := env.Remote.Hits(http.MethodPost, purchasePath); n != 1 {
		t.Fatalf("purchase-cart called %d times", n)
	}

	env.Do(t, http.MethodGet, "/cart", nil, &v)
	if v.Count != 0 {
		t.Fatalf("cart not cleared after checkout: %d items", v.Count)
	}

	if code := env.Do(t, http.MethodPost, "/orders/cart", nil, nil); code != http.StatusTooManyRequests {
		t.Fatalf("repeated checkout: status code %d", code)
	}
	if n := env.Remote.Hits(http.MethodPost, purchasePath); n != 1 {
		t.Fatalf("repeated checkout reached the API")
	}
}

func TestEmptyCartCheckout(t *testing.T) {
	env := NewTestEnv(t, false)
	env.Login(t, "")

	var res order.Result
	if code := env.Do(t, http.MethodPost, "/orders/cart", nil, &res); code != http.StatusUnprocessableEntity || res.Kind != order.EmptyCart {
		t.Fatalf("empty cart checkout: status code %d, kind %q", code, res.Kind)
	}
	if n := env.Remote.Hits(http.MethodPost, "/api/user/purchase-cart"); n != 0 {
		t.Fatalf("empty cart reached the API %d times", n)
	}
}

func TestEducatorRoutes(t *testing.T) {
	tests := []struct {
		name         string
		serverRole   bool
		providerRole string
		want         int
	}{
		{"student", false, "", http.StatusForbidden},
		{"server educator", true, "", http.StatusOK},
		{"provider educator", false, "educator", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := NewTestEnv(t, tt.serverRole)

			if code := env.Do(t, http.MethodGet, "/educator/dashboard", nil, nil); code != http.StatusUnauthorized {
				t.Fatalf("anonymous dashboard: status code %d", code)
			}

			env.Login(t, tt.providerRole)
			if code := env.Do(t, http.MethodGet, "/educator/dashboard", nil, nil); code != tt.want {
				t.Fatalf("dashboard: status code %d, want %d", code, tt.want)
			}
		})
	}
}

func TestLoginRoleHint(t *testing.T) {
	provider := auth.NewOIDCVerifier("https://issuer.example.com", nil, &oidc.Config{
		SkipClientIDCheck:          true,
		SkipIssuerCheck:            true,
		InsecureSkipSignatureCheck: true,
	})

	tests := []struct {
		name     string
		verifier auth.Verifier
		want     role.State
		status   int
	}{
		{"ignored with an identity provider", provider, role.Student, http.StatusForbidden},
		{"accepted in development", auth.Unverified(), role.Educator, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := NewTestEnvWithVerifier(t, false, tt.verifier)

			st := env.LoginWithHint(t, "", "educator")
			if st.Role != tt.want {
				t.Fatalf("role = %q, want %q", st.Role, tt.want)
			}
			if code := env.Do(t, http.MethodGet, "/educator/dashboard", nil, nil); code != tt.status {
				t.Fatalf("dashboard: status code %d, want %d", code, tt.status)
			}
		})
	}
}

func TestLogoutResetsSession(t *testing.T) {
	env := NewTestEnv(t, true)
	env.Login(t, "")

	if code := env.Do(t, http.MethodPost, "/session/logout", nil, nil); code != http.StatusNoContent {
		t.Fatalf("logout: status code %d", code)
	}

	if code := env.Do(t, http.MethodGet, "/purchases/pending", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("pending purchases after logout: status code %d", code)
	}
	if code := env.Do(t, http.MethodGet, "/educator/dashboard", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("dashboard after logout: status code %d", code)
	}
}
