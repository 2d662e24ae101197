// Package session runs the once-per-login initialization of the user's
// caches and tears them down again on logout.
package session

import (
	"context"
	"sync"

	"github.com/irsalhamdi/course-cache/core/claims"
	"github.com/irsalhamdi/course-cache/core/course"
	"github.com/irsalhamdi/course-cache/core/dashboard"
	"github.com/irsalhamdi/course-cache/core/purchase"
	"github.com/irsalhamdi/course-cache/core/role"
	"github.com/irsalhamdi/course-cache/core/user"
	"github.com/irsalhamdi/course-cache/remote"
	"github.com/sirupsen/logrus"
)

type Config struct {
	API       *remote.Client
	Tokens    *remote.Tokens
	Role      *role.Resolver
	Owned     *course.Owned
	Dashboard *dashboard.Cache
	Pending   *purchase.Reconciler
	Log       logrus.FieldLogger
}

type State struct {
	UserID      string        `json:"userId,omitempty"`
	Name        string        `json:"name,omitempty"`
	Role        role.State    `json:"role"`
	Initialized bool          `json:"initialized"`
	Profile     *user.Profile `json:"profile,omitempty"`
}

// Manager owns the login session. started is raised before the first
// network call of Start and lowered only by Logout, so triggers that
// arrive while an initialization is running are dropped.
type Manager struct {
	api       *remote.Client
	tokens    *remote.Tokens
	role      *role.Resolver
	owned     *course.Owned
	dashboard *dashboard.Cache
	pending   *purchase.Reconciler
	log       logrus.FieldLogger

	mu          sync.Mutex
	gen         uint64
	user        claims.Claims
	profile     *user.Profile
	started     bool
	initialized bool
}

func NewManager(cfg Config) *Manager {
	return &Manager{
		api:       cfg.API,
		tokens:    cfg.Tokens,
		role:      cfg.Role,
		owned:     cfg.Owned,
		dashboard: cfg.Dashboard,
		pending:   cfg.Pending,
		log:       cfg.Log,
	}
}

// Login installs the bearer token and caller for a new session. Logging
// in as someone else first logs the previous user out.
func (m *Manager) Login(token string, clm claims.Claims) {
	m.mu.Lock()
	prev := m.user.UserID
	m.mu.Unlock()

	if prev != "" && prev != clm.UserID {
		m.Logout()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = clm
	m.tokens.Set(token)
}

// Start runs the initialization sequence for the current login: provider
// role, profile, enrolled courses, dashboard, pending purchases and, for
// educators with published courses, a dashboard sync. It runs at most once
// per login and reports whether this call ran it.
func (m *Manager) Start(ctx context.Context) bool {
	m.mu.Lock()
	if m.started || m.user.UserID == "" {
		m.mu.Unlock()
		return false
	}
	m.started = true
	gen := m.gen
	clm := m.user
	m.role.ObserveProvider(clm.ProviderRole)
	m.mu.Unlock()

	log := m.log.WithFields(logrus.Fields{"user": clm.UserID, "session": clm.SessionID})
	log.Info("initializing session")

	p, err := user.FetchProfile(ctx, m.api)
	if err != nil {
		log.WithError(err).Warn("cannot load profile, relying on the provider role")
	}

	m.mu.Lock()
	live := m.gen == gen
	if live && err == nil {
		m.role.ObserveServer(p.IsEducator)
		m.profile = &p
	}
	m.mu.Unlock()
	if !live {
		log.Info("logged out during initialization")
		return true
	}

	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"enrolled courses", m.owned.Refresh},
		{"dashboard", m.dashboard.Fetch},
		{"pending purchases", func(ctx context.Context) error {
			_, err := m.pending.List(ctx)
			return err
		}},
		{"pending count", func(ctx context.Context) error {
			_, err := m.pending.Count(ctx)
			return err
		}},
		{"dashboard sync", func(ctx context.Context) error {
			_, err := m.dashboard.Sync(ctx)
			return err
		}},
	}

	for _, s := range steps {
		if err := s.run(ctx); err != nil {
			log.WithError(err).WithField("step", s.name).Warn("session initialization step failed")
		}
		if !m.current(gen) {
			log.Info("logged out during initialization")
			return true
		}
	}

	m.mu.Lock()
	m.initialized = true
	m.mu.Unlock()

	log.WithField("role", m.role.State()).Info("session initialized")
	return true
}

func (m *Manager) current(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen == gen
}

// Logout ends the session: it drops the token and resets the role,
// dashboard, roster, pending purchases and enrolled courses.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.gen++
	m.user = claims.Claims{}
	m.profile = nil
	m.started = false
	m.initialized = false
	m.mu.Unlock()

	m.tokens.Clear()
	m.role.Reset()
	m.dashboard.Reset()
	m.pending.Reset()
	m.owned.Reset()

	m.log.Info("session reset")
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := State{
		UserID:      m.user.UserID,
		Role:        m.role.State(),
		Initialized: m.initialized,
	}
	if m.profile != nil {
		p := *m.profile
		st.Profile = &p
		st.Name = p.Name
	}
	return st
}
