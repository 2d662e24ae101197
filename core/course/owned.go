package course

import (
	"context"
	"sync"

	"github.com/irsalhamdi/course-cache/latest"
	"github.com/irsalhamdi/course-cache/remote"
	"github.com/sirupsen/logrus"
)

// Owned caches the ids of courses the logged-in user is enrolled in.
type Owned struct {
	api  *remote.Client
	log  logrus.FieldLogger
	gate latest.Gate

	mu      sync.RWMutex
	courses []Summary
	ids     map[string]struct{}
}

func NewOwned(api *remote.Client, log logrus.FieldLogger) *Owned {
	return &Owned{api: api, log: log, ids: map[string]struct{}{}}
}

func (o *Owned) Refresh(ctx context.Context) error {
	tk := o.gate.Issue()

	courses, err := FetchOwned(ctx, o.api)
	if err != nil {
		return err
	}

	ids := make(map[string]struct{}, len(courses))
	for _, s := range courses {
		ids[s.ID] = struct{}{}
	}

	if o.gate.Apply(tk, func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.courses = courses
		o.ids = ids
	}) {
		o.log.WithField("courses", len(courses)).Debug("enrolled courses refreshed")
	}
	return nil
}

func (o *Owned) Has(id string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, ok := o.ids[id]
	return ok
}

func (o *Owned) All() []Summary {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]Summary, len(o.courses))
	copy(out, o.courses)
	return out
}

// Reset forgets the enrolled set; in-flight refreshes are discarded.
func (o *Owned) Reset() {
	o.gate.Reset()
	o.mu.Lock()
	defer o.mu.Unlock()
	o.courses = nil
	o.ids = map[string]struct{}{}
}
