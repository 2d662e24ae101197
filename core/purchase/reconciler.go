// Package purchase reconciles the user's unsettled purchases with the API:
// it lists them with course detail, keeps the badge count, and retries or
// cancels payments.
package purchase

import (
	"context"
	"fmt"
	"sync"

	"github.com/irsalhamdi/course-cache/core/course"
	"github.com/irsalhamdi/course-cache/core/notice"
	"github.com/irsalhamdi/course-cache/latest"
	"github.com/irsalhamdi/course-cache/remote"
	"github.com/irsalhamdi/course-cache/validate"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const hydrateConcurrency = 8

type Reconciler struct {
	api    *remote.Client
	notify notice.Notifier
	log    logrus.FieldLogger

	listGate  latest.Gate
	countGate latest.Gate

	mu      sync.RWMutex
	pending []Entry
	count   int
}

func NewReconciler(api *remote.Client, notify notice.Notifier, log logrus.FieldLogger) *Reconciler {
	return &Reconciler{api: api, notify: notify, log: log}
}

// List fetches every purchase, keeps the unsettled ones that reference a
// course and loads each course concurrently. A course that cannot be
// loaded is replaced by a placeholder so the purchase stays visible. The
// new list replaces the old one only after every lookup has finished.
func (r *Reconciler) List(ctx context.Context) ([]Entry, error) {
	tk := r.listGate.Issue()

	records, err := FetchAll(ctx, r.api)
	if err != nil {
		if remote.IsAuth(err) {
			r.log.WithError(err).Debug("purchase list not authorized")
		} else {
			r.notify.Notify(notice.Error("Could not load pending purchases: " + remote.Message(err)))
		}
		return nil, err
	}

	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		if !rec.Status.Unsettled() || rec.CourseID == "" {
			continue
		}
		entries = append(entries, Entry{Record: rec})
	}

	var g errgroup.Group
	g.SetLimit(hydrateConcurrency)
	for i := range entries {
		e := &entries[i]
		g.Go(func() error {
			e.Course = r.hydrate(ctx, e.Record)
			return nil
		})
	}
	_ = g.Wait()

	if !r.listGate.Apply(tk, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.pending = entries
	}) {
		r.log.WithField("ticket", tk).Debug("discarding superseded purchase list")
	}

	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, nil
}

func (r *Reconciler) hydrate(ctx context.Context, rec Record) course.Detail {
	id := string(rec.CourseID)

	d, err := course.Fetch(ctx, r.api, id)
	if err == nil {
		return d
	}

	avail := course.Unreachable
	if remote.IsNotFound(err) {
		avail = course.Removed
	}

	r.log.WithFields(logrus.Fields{
		"purchase":     rec.ID,
		"course":       id,
		"availability": avail,
	}).WithError(err).Warn("using placeholder for purchased course")

	return course.Placeholder(id, rec.Amount.Decimal, avail)
}

// Count refreshes the badge count. It is a separate call from List and
// does not touch the listed purchases.
func (r *Reconciler) Count(ctx context.Context) (int, error) {
	tk := r.countGate.Issue()

	n, err := FetchPendingCount(ctx, r.api)
	if err != nil {
		if remote.IsAuth(err) {
			r.log.WithError(err).Debug("pending count not authorized")
		} else {
			r.log.WithError(err).Warn("cannot refresh pending purchase count")
		}
		return 0, err
	}

	r.countGate.Apply(tk, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.count = n
	})
	return n, nil
}

// Retry opens a new checkout session for an unsettled purchase and returns
// its URL. The listed purchases are left as they are.
func (r *Reconciler) Retry(ctx context.Context, purchaseID string) (string, error) {
	sessionURL, err := retryPayment(ctx, r.api, purchaseID)
	if err == nil {
		if verr := validate.CheckURL(sessionURL); verr != nil {
			err = fmt.Errorf("retrying payment of purchase[%s]: invalid checkout url: %w", purchaseID, verr)
		}
	}
	if err != nil {
		r.notify.Notify(notice.Error("Could not retry payment: " + remote.Message(err)))
		return "", err
	}

	r.notify.Notify(notice.Success("Redirecting to payment"))
	return sessionURL, nil
}

// Cancel cancels an unsettled purchase and reloads the list and count
// right away.
func (r *Reconciler) Cancel(ctx context.Context, purchaseID string) error {
	if err := cancelPayment(ctx, r.api, purchaseID); err != nil {
		r.notify.Notify(notice.Error("Could not cancel purchase: " + remote.Message(err)))
		return err
	}
	r.notify.Notify(notice.Success("Purchase cancelled"))

	if _, err := r.List(ctx); err != nil {
		r.log.WithError(err).Warn("cannot reload purchases after cancel")
	}
	if _, err := r.Count(ctx); err != nil {
		r.log.WithError(err).Debug("cannot reload pending count after cancel")
	}
	return nil
}

// Pending returns the last applied list.
func (r *Reconciler) Pending() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, len(r.pending))
	copy(out, r.pending)
	return out
}

func (r *Reconciler) PendingCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// Reset forgets the list and count; responses still in flight are dropped.
func (r *Reconciler) Reset() {
	r.listGate.Reset()
	r.countGate.Reset()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = nil
	r.count = 0
}
