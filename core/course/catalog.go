package course

import (
	"context"
	"sync"
	"time"

	"github.com/irsalhamdi/course-cache/core/notice"
	"github.com/irsalhamdi/course-cache/latest"
	"github.com/irsalhamdi/course-cache/remote"
	"github.com/sirupsen/logrus"
)

// Catalog holds the full course list for the session. Each refresh replaces
// the whole list; a failed refresh leaves the previous list untouched.
type Catalog struct {
	api    *remote.Client
	notify notice.Notifier
	log    logrus.FieldLogger
	gate   latest.Gate

	mu        sync.RWMutex
	courses   []Summary
	index     map[string]int
	fetchedAt time.Time
}

func NewCatalog(api *remote.Client, notify notice.Notifier, log logrus.FieldLogger) *Catalog {
	return &Catalog{
		api:    api,
		notify: notify,
		log:    log,
		index:  map[string]int{},
	}
}

func (c *Catalog) Refresh(ctx context.Context) error {
	tk := c.gate.Issue()

	courses, err := FetchAll(ctx, c.api)
	if err != nil {
		c.notify.Notify(notice.Error("Could not load courses: " + remote.Message(err)))
		return err
	}

	index := make(map[string]int, len(courses))
	for i, s := range courses {
		index[s.ID] = i
	}

	applied := c.gate.Apply(tk, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.courses = courses
		c.index = index
		c.fetchedAt = time.Now().UTC()
	})
	if !applied {
		c.log.WithField("ticket", tk).Debug("discarding superseded catalog response")
		return nil
	}

	c.log.WithField("courses", len(courses)).Info("catalog refreshed")
	return nil
}

// All returns a copy of the current list in API order.
func (c *Catalog) All() []Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Summary, len(c.courses))
	copy(out, c.courses)
	return out
}

func (c *Catalog) Lookup(id string) (Summary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[id]
	if !ok {
		return Summary{}, false
	}
	return c.courses[i], true
}

// FetchedAt is the time of the last applied refresh, zero before the first.
func (c *Catalog) FetchedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetchedAt
}
