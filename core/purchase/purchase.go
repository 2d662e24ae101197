package purchase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/irsalhamdi/course-cache/core/course"
	"github.com/irsalhamdi/course-cache/remote"
)

type Status string

const (
	Pending    Status = "pending"
	Incomplete Status = "incomplete"
	Failed     Status = "failed"
	Completed  Status = "completed"
	Cancelled  Status = "cancelled"
)

// Unsettled reports whether a purchase still needs the user's attention.
func (s Status) Unsettled() bool {
	switch s {
	case Pending, Incomplete, Failed:
		return true
	}
	return false
}

// CourseRef is the course a purchase points at. The API sends either the
// bare id or a populated course object.
type CourseRef string

func (c *CourseRef) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*c = ""
		return nil
	}

	var id string
	if err := json.Unmarshal(b, &id); err == nil {
		*c = CourseRef(id)
		return nil
	}

	var obj struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		*c = ""
		return nil
	}
	*c = CourseRef(obj.ID)
	return nil
}

type Record struct {
	ID        string        `json:"_id"`
	CourseID  CourseRef     `json:"courseId"`
	Amount    course.Amount `json:"amount"`
	Status    Status        `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// Entry is an unsettled purchase together with the course it is for. When
// the course could not be loaded Course is a placeholder.
type Entry struct {
	Record
	Course course.Detail `json:"course"`
}

func FetchAll(ctx context.Context, api *remote.Client) ([]Record, error) {
	var resp struct {
		Purchases []Record `json:"purchases"`
	}
	if err := api.Get(ctx, "/api/user/purchases", &resp); err != nil {
		return nil, fmt.Errorf("fetching purchases: %w", err)
	}
	return resp.Purchases, nil
}

func FetchPendingCount(ctx context.Context, api *remote.Client) (int, error) {
	var resp struct {
		Count int `json:"count"`
	}
	if err := api.Get(ctx, "/api/user/pending-purchases-count", &resp); err != nil {
		return 0, fmt.Errorf("fetching pending purchase count: %w", err)
	}
	return resp.Count, nil
}

func retryPayment(ctx context.Context, api *remote.Client, id string) (string, error) {
	var resp struct {
		SessionURL string `json:"sessionUrl"`
	}
	if err := api.Post(ctx, "/api/user/retry-payment/"+url.PathEscape(id), nil, &resp); err != nil {
		return "", fmt.Errorf("retrying payment of purchase[%s]: %w", id, err)
	}
	return resp.SessionURL, nil
}

func cancelPayment(ctx context.Context, api *remote.Client, id string) error {
	if err := api.Post(ctx, "/api/user/cancel-payment/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("cancelling purchase[%s]: %w", id, err)
	}
	return nil
}
