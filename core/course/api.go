package course

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/irsalhamdi/course-cache/remote"
)

func FetchAll(ctx context.Context, api *remote.Client) ([]Summary, error) {
	var resp struct {
		Courses []Summary `json:"courses"`
	}
	if err := api.GetPublic(ctx, "/api/course/all", &resp); err != nil {
		return nil, fmt.Errorf("fetching course catalog: %w", err)
	}
	return resp.Courses, nil
}

func Fetch(ctx context.Context, api *remote.Client, id string) (Detail, error) {
	var resp struct {
		Course *Detail `json:"courseData"`
	}
	if err := api.GetPublic(ctx, "/api/course/"+url.PathEscape(id), &resp); err != nil {
		return Detail{}, fmt.Errorf("fetching course[%s]: %w", id, err)
	}
	if resp.Course == nil {
		return Detail{}, fmt.Errorf("fetching course[%s]: %w", id, &remote.Error{
			Method: http.MethodGet, Path: "/api/course/" + id, Status: http.StatusNotFound, Message: "course not found",
		})
	}
	return *resp.Course, nil
}

// FetchOwned lists the courses the logged-in user is enrolled in.
func FetchOwned(ctx context.Context, api *remote.Client) ([]Summary, error) {
	var resp struct {
		Courses []Summary `json:"enrolledCourses"`
	}
	if err := api.Get(ctx, "/api/user/enrolled-courses", &resp); err != nil {
		return nil, fmt.Errorf("fetching enrolled courses: %w", err)
	}
	return resp.Courses, nil
}

func FetchCategories(ctx context.Context, api *remote.Client, withCourses bool) ([]Category, error) {
	path := "/api/category"
	if withCourses {
		path += "/with-courses"
	}

	var resp struct {
		Categories []Category `json:"categories"`
	}
	if err := api.GetPublic(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("fetching categories: %w", err)
	}
	return resp.Categories, nil
}
