package order

import (
	"context"
	"fmt"

	"github.com/irsalhamdi/course-cache/core/course"
	"github.com/irsalhamdi/course-cache/remote"
)

// CodePendingPurchase is the API error code for a course that already has
// an unsettled purchase by the same user.
const CodePendingPurchase = "PENDING_PURCHASE_EXISTS"

type Kind string

const (
	Created          Kind = "created"
	NotAuthenticated Kind = "not_authenticated"
	AlreadyOwned     Kind = "already_owned"
	EmptyCart        Kind = "empty_cart"
	PendingPurchase  Kind = "pending_purchase"
	Failed           Kind = "failed"
)

// Result is the outcome of a checkout attempt. Expected failures are
// reported here rather than as errors.
type Result struct {
	Success     bool          `json:"success"`
	Kind        Kind          `json:"kind"`
	SessionURL  string        `json:"sessionUrl,omitempty"`
	Error       string        `json:"error,omitempty"`
	TotalAmount course.Amount `json:"totalAmount"`
	CourseCount int           `json:"courseCount,omitempty"`
}

func failure(kind Kind, msg string) Result {
	return Result{Kind: kind, Error: msg}
}

type session struct {
	SessionURL  string        `json:"sessionUrl"`
	TotalAmount course.Amount `json:"totalAmount"`
	CourseCount int           `json:"courseCount"`
}

type CourseNew struct {
	CourseID string `json:"courseId"`
}

type CartNew struct {
	CourseIDs []string `json:"courseIds"`
}

func createSession(ctx context.Context, api *remote.Client, courseID string) (session, error) {
	var s session
	if err := api.Post(ctx, "/api/user/purchase", CourseNew{CourseID: courseID}, &s); err != nil {
		return session{}, fmt.Errorf("creating checkout session for course[%s]: %w", courseID, err)
	}
	return s, nil
}

func createCartSession(ctx context.Context, api *remote.Client, courseIDs []string) (session, error) {
	var s session
	if err := api.Post(ctx, "/api/user/purchase-cart", CartNew{CourseIDs: courseIDs}, &s); err != nil {
		return session{}, fmt.Errorf("creating checkout session for %d courses: %w", len(courseIDs), err)
	}
	return s, nil
}
