package course

import (
	"context"
	"net/http"

	"github.com/irsalhamdi/course-cache/api/web"
	"github.com/irsalhamdi/course-cache/api/weberr"
	"github.com/irsalhamdi/course-cache/remote"
	"github.com/irsalhamdi/course-cache/validate"
	"github.com/shopspring/decimal"
)

// Card is a summary with the figures course cards display.
type Card struct {
	Summary
	EffectivePrice decimal.Decimal `json:"effectivePrice"`
	Rating         float64         `json:"rating"`
	Enrollments    int             `json:"enrollments"`
	DurationWeeks  int             `json:"durationWeeks"`
}

func NewCard(s Summary) Card {
	return Card{
		Summary:        s,
		EffectivePrice: s.EffectivePrice(),
		Rating:         s.AverageRating(),
		Enrollments:    s.EnrollmentCount(),
		DurationWeeks:  s.DurationWeeks(),
	}
}

func cards(list []Summary) []Card {
	out := make([]Card, 0, len(list))
	for _, s := range list {
		out = append(out, NewCard(s))
	}
	return out
}

func HandleList(cat *Catalog) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.Respond(ctx, w, cards(cat.All()), http.StatusOK)
	}
}

func HandleRefresh(cat *Catalog) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if err := cat.Refresh(ctx); err != nil {
			return weberr.FromRemote(err)
		}
		return web.Respond(ctx, w, cards(cat.All()), http.StatusOK)
	}
}

// HandleShow answers from the API so the description and content are
// current; the catalog only keeps summaries.
func HandleShow(api *remote.Client) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		d, err := Fetch(ctx, api, id)
		if err != nil {
			return weberr.FromRemote(err, weberr.WithFields(map[string]interface{}{"course": id}))
		}

		resp := struct {
			Card
			Description string `json:"courseDescription,omitempty"`
		}{NewCard(d.Summary), d.Description}
		return web.Respond(ctx, w, resp, http.StatusOK)
	}
}

func HandleListOwned(owned *Owned) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.Respond(ctx, w, cards(owned.All()), http.StatusOK)
	}
}

func HandleListCategories(api *remote.Client, withCourses bool) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		cats, err := FetchCategories(ctx, api, withCourses)
		if err != nil {
			return weberr.FromRemote(err)
		}
		return web.Respond(ctx, w, cats, http.StatusOK)
	}
}
