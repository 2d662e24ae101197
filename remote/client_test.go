package remote_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/irsalhamdi/course-cache/remote"
	"github.com/irsalhamdi/course-cache/remote/remotetest"
)

func TestClientBearerToken(t *testing.T) {
	srv := remotetest.New(t)
	srv.JSON(http.MethodGet, "/api/user/profile", http.StatusOK, remotetest.M{"success": true})
	srv.JSON(http.MethodGet, "/api/course/all", http.StatusOK, remotetest.M{"success": true})

	api := srv.Client()
	ctx := context.Background()

	if err := api.Get(ctx, "/api/user/profile", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := srv.Authorization(http.MethodGet, "/api/user/profile"); got != "Bearer "+remotetest.Token {
		t.Fatalf("expected bearer token, got %q", got)
	}

	if err := api.GetPublic(ctx, "/api/course/all", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := srv.Authorization(http.MethodGet, "/api/course/all"); got != "" {
		t.Fatalf("public call carried credentials: %q", got)
	}
}

func TestClientWithoutToken(t *testing.T) {
	srv := remotetest.New(t)
	srv.JSON(http.MethodGet, "/api/user/profile", http.StatusOK, remotetest.M{"success": true})
	srv.Tokens.Clear()

	err := srv.Client().Get(context.Background(), "/api/user/profile", nil)
	if !remote.IsAuth(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if srv.Hits(http.MethodGet, "/api/user/profile") != 0 {
		t.Fatalf("request reached the server without a token")
	}
}

func TestClientErrors(t *testing.T) {
	srv := remotetest.New(t)
	srv.JSON(http.MethodPost, "/api/user/purchase", http.StatusOK, remotetest.M{
		"success": false,
		"message": "You already have a pending purchase for this course",
		"code":    "PENDING_PURCHASE_EXISTS",
	})
	srv.JSON(http.MethodGet, "/api/course/{id}", http.StatusNotFound, remotetest.M{"success": false, "message": "Course not found"})
	srv.JSON(http.MethodGet, "/api/educator/me", http.StatusForbidden, nil)

	api := srv.Client()
	ctx := context.Background()

	err := api.Post(ctx, "/api/user/purchase", map[string]string{"courseId": "c1"}, nil)
	if !remote.HasCode(err, "PENDING_PURCHASE_EXISTS") {
		t.Fatalf("expected code on success:false body, got %v", err)
	}
	if got := remote.Message(err); got != "You already have a pending purchase for this course" {
		t.Fatalf("unexpected message %q", got)
	}

	err = api.GetPublic(ctx, "/api/course/c9", nil)
	if !remote.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	err = api.Get(ctx, "/api/educator/me", nil)
	if !remote.IsAuth(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	var re *remote.Error
	if !errors.As(err, &re) || re.Status != http.StatusForbidden {
		t.Fatalf("expected *remote.Error with 403, got %v", err)
	}
}

func TestClientNetworkError(t *testing.T) {
	srv := remotetest.New(t)
	api := srv.Client()
	srv.Close()

	err := api.GetPublic(context.Background(), "/api/course/all", nil)
	if err == nil {
		t.Fatalf("expected error from closed server")
	}
	if remote.IsAuth(err) || remote.IsNotFound(err) {
		t.Fatalf("network error misclassified: %v", err)
	}
	if remote.Message(err) != "Network error, please try again" {
		t.Fatalf("unexpected message %q", remote.Message(err))
	}
}
