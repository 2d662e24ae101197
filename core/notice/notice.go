// Package notice carries the user-visible outcome of every state-changing
// action. Notices are logged and kept in a short feed the UI polls.
package notice

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/irsalhamdi/course-cache/api/web"
	"github.com/sirupsen/logrus"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

type Notice struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

func Success(msg string) Notice { return Notice{Level: LevelSuccess, Message: msg} }
func Info(msg string) Notice    { return Notice{Level: LevelInfo, Message: msg} }
func Warning(msg string) Notice { return Notice{Level: LevelWarning, Message: msg} }
func Error(msg string) Notice   { return Notice{Level: LevelError, Message: msg} }

type Notifier interface {
	Notify(n Notice)
}

// Discard drops every notice.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Notify(Notice) {}

// Feed logs notices and keeps the most recent ones.
type Feed struct {
	log   logrus.FieldLogger
	max   int
	mu    sync.Mutex
	items []Notice
	now   func() time.Time
}

func NewFeed(log logrus.FieldLogger, max int) *Feed {
	if max <= 0 {
		max = 50
	}
	return &Feed{log: log, max: max, now: time.Now}
}

func (f *Feed) Notify(n Notice) {
	if n.Time.IsZero() {
		n.Time = f.now().UTC()
	}

	entry := f.log.WithField("notice", n.Level)
	switch n.Level {
	case LevelError:
		entry.Error(n.Message)
	case LevelWarning:
		entry.Warn(n.Message)
	default:
		entry.Info(n.Message)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, n)
	if over := len(f.items) - f.max; over > 0 {
		f.items = append(f.items[:0:0], f.items[over:]...)
	}
}

// Recent returns the feed, oldest first.
func (f *Feed) Recent() []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Notice, len(f.items))
	copy(out, f.items)
	return out
}

// Recorder is a Notifier that only remembers what it was given.
type Recorder struct {
	mu      sync.Mutex
	Notices []Notice
}

func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Notices = append(r.Notices, n)
}

// Last returns the most recent notice, or the zero Notice.
func (r *Recorder) Last() Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Notices) == 0 {
		return Notice{}
	}
	return r.Notices[len(r.Notices)-1]
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Notices)
}

func HandleList(f *Feed) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.Respond(ctx, w, f.Recent(), http.StatusOK)
	}
}
