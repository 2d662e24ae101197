// Package latest orders asynchronous cache writes by the time their request
// was issued, so a response that arrives after a newer one was applied is
// dropped instead of overwriting fresher data.
package latest

import "sync"

type Ticket uint64

type Gate struct {
	mu      sync.Mutex
	issued  Ticket
	applied Ticket
}

// Issue hands out a ticket for a request about to be sent.
func (g *Gate) Issue() Ticket {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.issued++
	return g.issued
}

// Apply runs fn if no request issued after t has been applied yet and
// reports whether it ran. fn runs under the gate lock.
func (g *Gate) Apply(t Ticket, fn func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if t < g.applied {
		return false
	}
	g.applied = t
	fn()
	return true
}

// Reset forgets every outstanding ticket. Responses for tickets issued
// before the reset are discarded.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.issued++
	g.applied = g.issued
}
