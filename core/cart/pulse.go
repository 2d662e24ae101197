package cart

import (
	"sync"
	"time"

	"github.com/juju/clock"
)

// Pulse is the short "item added" animation cue shown on the cart icon. It
// switches on when triggered and off again after a fixed interval.
type Pulse struct {
	clock    clock.Clock
	duration time.Duration

	mu     sync.Mutex
	active bool
	gen    int
	timer  clock.Timer
}

func NewPulse(clk clock.Clock, d time.Duration) *Pulse {
	return &Pulse{clock: clk, duration: d}
}

func (p *Pulse) Trigger() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.active = true
	p.gen++
	gen := p.gen
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = p.clock.AfterFunc(p.duration, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.gen == gen {
			p.active = false
		}
	})
}

func (p *Pulse) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}
