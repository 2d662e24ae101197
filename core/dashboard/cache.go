package dashboard

import (
	"context"
	"errors"
	"sync"

	"github.com/irsalhamdi/course-cache/core/notice"
	"github.com/irsalhamdi/course-cache/core/role"
	"github.com/irsalhamdi/course-cache/latest"
	"github.com/irsalhamdi/course-cache/remote"
	"github.com/sirupsen/logrus"
)

// ErrNotEducator is returned by educator-only operations for other users.
var ErrNotEducator = errors.New("user is not an educator")

// Cache keeps two independent slots: the snapshot last fetched and the one
// last returned by a server-side sync.
type Cache struct {
	api    *remote.Client
	role   *role.Resolver
	notify notice.Notifier
	log    logrus.FieldLogger
	gate   latest.Gate
	syncs  latest.Gate

	mu          sync.RWMutex
	fetched     *Snapshot
	synced      *Snapshot
	roster      []Entry
	rosterCount int
}

func NewCache(api *remote.Client, r *role.Resolver, notify notice.Notifier, log logrus.FieldLogger) *Cache {
	return &Cache{api: api, role: r, notify: notify, log: log, rosterCount: -1}
}

// Fetch reloads the dashboard for an educator and does nothing for anyone
// else. A 404 means the educator has no record yet and yields an empty
// dashboard. On other failures the previous snapshot stays.
func (c *Cache) Fetch(ctx context.Context) error {
	if !c.role.IsEducator() {
		c.log.Debug("dashboard fetch skipped, not an educator")
		return nil
	}

	tk := c.gate.Issue()

	snap, err := fetchSnapshot(ctx, c.api)
	switch {
	case remote.IsNotFound(err):
		c.log.Info("no educator record yet, using an empty dashboard")
		snap, err = Snapshot{}, nil
	case remote.IsAuth(err):
		c.log.WithError(err).Debug("dashboard fetch not authorized")
		return err
	case err != nil:
		c.notify.Notify(notice.Error("Could not load dashboard: " + remote.Message(err)))
		return err
	}

	if !c.gate.Apply(tk, func() { c.apply(snap) }) {
		c.log.WithField("ticket", tk).Debug("discarding superseded dashboard response")
	}
	return nil
}

// apply stores snap and rebuilds the roster when the number of published
// courses changed. Callers hold the gate.
func (c *Cache) apply(snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fetched = &snap
	if n := len(snap.PublishedCourses); n != c.rosterCount {
		c.roster = BuildRoster(snap.PublishedCourses)
		c.rosterCount = n
		c.log.WithFields(logrus.Fields{
			"courses":  n,
			"students": len(c.roster),
		}).Debug("roster rebuilt")
	}
}

// Sync asks the server to recompute and persist the dashboard totals. It is
// skipped, reporting false, for non-educators and when the fetched
// dashboard has no published courses.
func (c *Cache) Sync(ctx context.Context) (bool, error) {
	if !c.role.IsEducator() {
		return false, nil
	}

	c.mu.RLock()
	empty := c.fetched == nil || len(c.fetched.PublishedCourses) == 0
	c.mu.RUnlock()
	if empty {
		c.log.Debug("dashboard sync skipped, no published courses")
		return false, nil
	}

	tk := c.syncs.Issue()

	snap, err := syncSnapshot(ctx, c.api)
	switch {
	case remote.IsAuth(err):
		c.log.WithError(err).Debug("dashboard sync not authorized")
		return false, err
	case err != nil:
		c.notify.Notify(notice.Error("Could not update dashboard: " + remote.Message(err)))
		return false, err
	}

	applied := c.syncs.Apply(tk, func() {
		c.mu.Lock()
		c.synced = &snap
		c.mu.Unlock()
	})
	if !applied {
		c.log.WithField("ticket", tk).Debug("discarding superseded dashboard sync")
		return false, nil
	}

	c.notify.Notify(notice.Success("Dashboard updated"))
	return true, nil
}

// TogglePublication flips the publish flag of one course and then refetches
// the whole dashboard, since publication changes the totals.
func (c *Cache) TogglePublication(ctx context.Context, courseID string) error {
	if !c.role.IsEducator() {
		return ErrNotEducator
	}

	msg, err := togglePublication(ctx, c.api, courseID)
	if err != nil {
		c.notify.Notify(notice.Error("Could not change course publication: " + remote.Message(err)))
		return err
	}

	if msg == "" {
		msg = "Course publication updated"
	}
	c.notify.Notify(notice.Success(msg))

	return c.Fetch(ctx)
}

// Fetched returns the last fetched snapshot and whether there is one.
func (c *Cache) Fetched() (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.fetched == nil {
		return Snapshot{}, false
	}
	return *c.fetched, true
}

func (c *Cache) Synced() (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.synced == nil {
		return Snapshot{}, false
	}
	return *c.synced, true
}

func (c *Cache) Roster() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, len(c.roster))
	copy(out, c.roster)
	return out
}

// Reset drops both snapshots and the roster. Responses still in flight are
// discarded.
func (c *Cache) Reset() {
	c.gate.Reset()
	c.syncs.Reset()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetched = nil
	c.synced = nil
	c.roster = nil
	c.rosterCount = -1
}
