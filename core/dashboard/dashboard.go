// Package dashboard caches the educator dashboard. The server computes every
// total; this package only stores what it returns and derives the student
// roster from it.
package dashboard

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/irsalhamdi/course-cache/core/course"
	"github.com/irsalhamdi/course-cache/remote"
)

type Student struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl,omitempty"`
}

type Enrollment struct {
	Student    Student   `json:"student"`
	EnrolledAt time.Time `json:"enrolledAt"`
}

type Course struct {
	ID        string       `json:"_id"`
	Title     string       `json:"courseTitle"`
	Published bool         `json:"isPublished"`
	Students  []Enrollment `json:"enrolledStudents"`
}

type Snapshot struct {
	TotalEarnings    course.Amount `json:"totalEarnings"`
	TotalStudents    int           `json:"totalStudents"`
	TotalCourses     int           `json:"totalCourses"`
	PublishedCourses []Course      `json:"publishedCourses"`
}

// Entry is one row of the enrolled-student roster.
type Entry struct {
	Student     Student   `json:"student"`
	CourseID    string    `json:"courseId"`
	CourseTitle string    `json:"courseTitle"`
	EnrolledAt  time.Time `json:"enrolledAt"`
}

// BuildRoster flattens every enrollment of the published courses, newest
// first. Ties keep course order.
func BuildRoster(courses []Course) []Entry {
	var out []Entry
	for _, c := range courses {
		for _, e := range c.Students {
			out = append(out, Entry{
				Student:     e.Student,
				CourseID:    c.ID,
				CourseTitle: c.Title,
				EnrolledAt:  e.EnrolledAt,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EnrolledAt.After(out[j].EnrolledAt)
	})
	return out
}

type dashboardResponse struct {
	Dashboard Snapshot `json:"dashboardData"`
}

func fetchSnapshot(ctx context.Context, api *remote.Client) (Snapshot, error) {
	var resp dashboardResponse
	if err := api.Get(ctx, "/api/educator/me", &resp); err != nil {
		return Snapshot{}, fmt.Errorf("fetching educator dashboard: %w", err)
	}
	return resp.Dashboard, nil
}

func syncSnapshot(ctx context.Context, api *remote.Client) (Snapshot, error) {
	var resp dashboardResponse
	if err := api.Patch(ctx, "/api/educator/update-dashboard", nil, &resp); err != nil {
		return Snapshot{}, fmt.Errorf("syncing educator dashboard: %w", err)
	}
	return resp.Dashboard, nil
}

func togglePublication(ctx context.Context, api *remote.Client, courseID string) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := api.Patch(ctx, "/api/educator/toggle-publication/"+url.PathEscape(courseID), nil, &resp); err != nil {
		return "", fmt.Errorf("toggling publication of course[%s]: %w", courseID, err)
	}
	return resp.Message, nil
}
