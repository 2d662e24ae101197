// Package role decides whether the logged-in user is an educator from two
// independent signals: the server profile flag and the identity provider's
// role claim.
package role

import (
	"sync"

	"github.com/irsalhamdi/course-cache/core/claims"
)

type State string

const (
	Unknown  State = "unknown"
	Student  State = "student"
	Educator State = "educator"
)

// Resolver holds the resolved role for one login session. Educator is
// sticky: once either signal confirms it, only Reset clears it.
type Resolver struct {
	mu    sync.RWMutex
	state State
}

func NewResolver() *Resolver {
	return &Resolver{state: Unknown}
}

// ObserveServer applies the isEducator flag from the user profile.
func (r *Resolver) ObserveServer(isEducator bool) State {
	return r.observe(isEducator)
}

// ObserveProvider applies the identity provider's role claim.
func (r *Resolver) ObserveProvider(providerRole string) State {
	return r.observe(providerRole == claims.RoleEducator)
}

func (r *Resolver) observe(educator bool) State {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case educator:
		r.state = Educator
	case r.state == Unknown:
		r.state = Student
	}
	return r.state
}

func (r *Resolver) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.state == "" {
		return Unknown
	}
	return r.state
}

func (r *Resolver) IsEducator() bool {
	return r.State() == Educator
}

// Reset is the logout transition back to Unknown.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = Unknown
}
