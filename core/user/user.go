package user

import (
	"context"
	"fmt"

	"github.com/irsalhamdi/course-cache/remote"
)

type Profile struct {
	ID         string `json:"_id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	ImageURL   string `json:"imageUrl,omitempty"`
	IsEducator bool   `json:"isEducator"`
}

// FetchProfile loads the logged-in user's profile, the server-side source
// of the educator flag.
func FetchProfile(ctx context.Context, api *remote.Client) (Profile, error) {
	var resp struct {
		User Profile `json:"user"`
	}
	if err := api.Get(ctx, "/api/user/profile", &resp); err != nil {
		return Profile{}, fmt.Errorf("fetching user profile: %w", err)
	}
	return resp.User, nil
}
