package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/irsalhamdi/course-cache/core/course"
	"github.com/irsalhamdi/course-cache/core/notice"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Item is a full course snapshot so the cart stays usable offline.
type Item struct {
	course.Summary
}

// Enrolled reports whether the caller already owns a course.
type Enrolled interface {
	Has(courseID string) bool
}

type Outcome string

const (
	Added           Outcome = "added"
	AlreadyInCart   Outcome = "already_in_cart"
	AlreadyEnrolled Outcome = "already_enrolled"
	Removed         Outcome = "removed"
	NotInCart       Outcome = "not_in_cart"
	Cleared         Outcome = "cleared"
)

// Cart is the ordered set of courses the user intends to buy. Every mutation
// is written through to the Store before it returns; if the write fails the
// mutation is rolled back so memory and storage never diverge.
type Cart struct {
	store  Store
	notify notice.Notifier
	pulse  *Pulse
	log    logrus.FieldLogger

	mu    sync.Mutex
	items []Item
}

// Open hydrates a cart from store. Missing or corrupt data yields an empty
// cart; it never fails.
func Open(ctx context.Context, store Store, notify notice.Notifier, pulse *Pulse, log logrus.FieldLogger) *Cart {
	c := &Cart{store: store, notify: notify, pulse: pulse, log: log}

	data, err := store.Load(ctx)
	if err != nil {
		log.WithError(err).Warn("cannot load persisted cart, starting empty")
		return c
	}

	items, err := Decode(data)
	if err != nil {
		log.WithError(err).Warn("persisted cart is corrupt, starting empty")
		return c
	}

	c.items = items
	log.WithField("items", len(items)).Info("cart hydrated")
	return c
}

// Add appends s unless it is already in the cart or already owned. Those
// cases are reported through the Outcome and a notice, not an error; the
// error is only for a failed durable write.
func (c *Cart) Add(ctx context.Context, s course.Summary, enrolled Enrolled) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.index(s.ID) >= 0 {
		c.notify.Notify(notice.Info("Course already in cart"))
		return AlreadyInCart, nil
	}
	if enrolled != nil && enrolled.Has(s.ID) {
		c.notify.Notify(notice.Info("You are already enrolled in this course"))
		return AlreadyEnrolled, nil
	}

	prev := c.items
	next := make([]Item, len(prev), len(prev)+1)
	copy(next, prev)
	next = append(next, Item{s})

	if err := c.commit(ctx, next); err != nil {
		c.notify.Notify(notice.Error("Could not add course to cart"))
		return "", fmt.Errorf("adding course[%s] to cart: %w", s.ID, err)
	}

	if c.pulse != nil {
		c.pulse.Trigger()
	}
	c.notify.Notify(notice.Success("Course added to cart"))
	return Added, nil
}

func (c *Cart) Remove(ctx context.Context, courseID string) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(courseID)
	if i < 0 {
		return NotInCart, nil
	}

	next := make([]Item, 0, len(c.items)-1)
	next = append(next, c.items[:i]...)
	next = append(next, c.items[i+1:]...)

	if err := c.commit(ctx, next); err != nil {
		c.notify.Notify(notice.Error("Could not remove course from cart"))
		return "", fmt.Errorf("removing course[%s] from cart: %w", courseID, err)
	}

	c.notify.Notify(notice.Success("Course removed from cart"))
	return Removed, nil
}

func (c *Cart) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.commit(ctx, nil); err != nil {
		c.notify.Notify(notice.Error("Could not clear cart"))
		return fmt.Errorf("clearing cart: %w", err)
	}

	c.notify.Notify(notice.Success("Cart cleared"))
	return nil
}

// RemoveAll drops the given courses in a single write. Courses not in the
// cart are ignored and the rest keep their order. It reports how many were
// removed.
func (c *Cart) RemoveAll(ctx context.Context, courseIDs []string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	drop := make(map[string]bool, len(courseIDs))
	for _, id := range courseIDs {
		drop[id] = true
	}

	next := make([]Item, 0, len(c.items))
	for _, it := range c.items {
		if !drop[it.ID] {
			next = append(next, it)
		}
	}

	n := len(c.items) - len(next)
	if n == 0 {
		return 0, nil
	}
	if err := c.commit(ctx, next); err != nil {
		return 0, fmt.Errorf("removing %d courses from cart: %w", n, err)
	}
	return n, nil
}

// commit persists next and only then makes it the in-memory state.
func (c *Cart) commit(ctx context.Context, next []Item) error {
	data, err := Encode(next)
	if err != nil {
		return err
	}
	if err := c.store.Save(ctx, data); err != nil {
		return fmt.Errorf("persisting cart: %w", err)
	}
	c.items = next
	return nil
}

func (c *Cart) index(courseID string) int {
	for i, it := range c.items {
		if it.ID == courseID {
			return i
		}
	}
	return -1
}

// Items returns a copy in insertion order.
func (c *Cart) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Cart) Has(courseID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index(courseID) >= 0
}

func (c *Cart) CourseIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.items))
	for _, it := range c.items {
		ids = append(ids, it.ID)
	}
	return ids
}

// Total sums the effective price of every item, rounded to cents.
func (c *Cart) Total() decimal.Decimal {
	return Total(c.Items())
}

func Total(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.EffectivePrice())
	}
	return sum.Round(2)
}
