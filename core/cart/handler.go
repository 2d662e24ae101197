package cart

import (
	"context"
	"errors"
	"net/http"

	"github.com/irsalhamdi/course-cache/api/web"
	"github.com/irsalhamdi/course-cache/api/weberr"
	"github.com/irsalhamdi/course-cache/core/course"
	"github.com/irsalhamdi/course-cache/validate"
	"github.com/shopspring/decimal"
)

type ItemNew struct {
	CourseID string `json:"courseId" validate:"required,max=64"`
}

// Lookup finds the catalog snapshot of a course.
type Lookup interface {
	Lookup(id string) (course.Summary, bool)
}

type View struct {
	Items []Item          `json:"items"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
	Pulse bool            `json:"pulse"`
}

func (c *Cart) View() View {
	items := c.Items()
	v := View{Items: items, Count: len(items), Total: Total(items).Round(2)}
	if c.pulse != nil {
		v.Pulse = c.pulse.Active()
	}
	return v
}

type change struct {
	Outcome Outcome `json:"outcome"`
	Cart    View    `json:"cart"`
}

func HandleShow(c *Cart) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.Respond(ctx, w, c.View(), http.StatusOK)
	}
}

func HandleDelete(c *Cart) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if err := c.Clear(ctx); err != nil {
			return weberr.InternalError(err)
		}
		return web.Respond(ctx, w, change{Cleared, c.View()}, http.StatusOK)
	}
}

// HandleCreateItem adds a catalog course to the cart. Courses already in
// the cart or already owned are reported through the outcome with a 200.
func HandleCreateItem(c *Cart, catalog Lookup, enrolled Enrolled) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in ItemNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(err)
		}

		s, ok := catalog.Lookup(in.CourseID)
		if !ok {
			return weberr.NotFound(errors.New("course not in catalog"),
				weberr.WithFields(map[string]interface{}{"course": in.CourseID}),
			)
		}

		out, err := c.Add(ctx, s, enrolled)
		if err != nil {
			return weberr.InternalError(err)
		}

		status := http.StatusOK
		if out == Added {
			status = http.StatusCreated
		}
		return web.Respond(ctx, w, change{out, c.View()}, status)
	}
}

func HandleDeleteItem(c *Cart) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "course_id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		out, err := c.Remove(ctx, id)
		if err != nil {
			return weberr.InternalError(err)
		}
		return web.Respond(ctx, w, change{out, c.View()}, http.StatusOK)
	}
}
