// Package order starts checkout sessions for a single course or for the
// whole cart. Payment happens on the provider's hosted page; nothing here is
// final until the provider confirms.
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/irsalhamdi/course-cache/core/cart"
	"github.com/irsalhamdi/course-cache/core/claims"
	"github.com/irsalhamdi/course-cache/core/course"
	"github.com/irsalhamdi/course-cache/core/notice"
	"github.com/irsalhamdi/course-cache/core/purchase"
	"github.com/irsalhamdi/course-cache/remote"
	"github.com/irsalhamdi/course-cache/validate"
	"github.com/sirupsen/logrus"
)

var errInvalidSession = errors.New("invalid checkout url")

type Config struct {
	API     *remote.Client
	Cart    *cart.Cart
	Owned   cart.Enrolled
	Catalog *course.Catalog
	Pending *purchase.Reconciler
	Notify  notice.Notifier
	Log     logrus.FieldLogger
}

type Orchestrator struct {
	api     *remote.Client
	cart    *cart.Cart
	owned   cart.Enrolled
	catalog *course.Catalog
	pending *purchase.Reconciler
	notify  notice.Notifier
	log     logrus.FieldLogger
}

func NewOrchestrator(cfg Config) *Orchestrator {
	return &Orchestrator{
		api:     cfg.API,
		cart:    cfg.Cart,
		owned:   cfg.Owned,
		catalog: cfg.Catalog,
		pending: cfg.Pending,
		notify:  cfg.Notify,
		log:     cfg.Log,
	}
}

// PurchaseSingle starts checkout for one course. The cart and the owned
// courses are left untouched; the purchase only counts once the payment
// provider confirms it.
func (o *Orchestrator) PurchaseSingle(ctx context.Context, courseID string) Result {
	clm, err := claims.Get(ctx)
	if err != nil {
		return o.fail(NotAuthenticated, "Please log in to purchase courses")
	}

	if o.owned != nil && o.owned.Has(courseID) {
		o.notify.Notify(notice.Info("You already own this course"))
		return failure(AlreadyOwned, "You already own this course")
	}

	log := o.log.WithFields(logrus.Fields{"user": clm.UserID, "course": courseID})

	s, err := createSession(ctx, o.api, courseID)
	if err == nil {
		err = checkSessionURL(s.SessionURL)
	}
	if err != nil {
		log.WithError(err).Warn("checkout session not created")
		return o.failFrom(err)
	}

	log.Info("checkout session created")
	o.notify.Notify(notice.Success("Redirecting to checkout"))
	o.refreshPendingCount(ctx)

	return Result{
		Success:     true,
		Kind:        Created,
		SessionURL:  s.SessionURL,
		TotalAmount: s.TotalAmount,
		CourseCount: 1,
	}
}

// PurchaseCart starts one checkout covering every course in the cart. On
// success the submitted courses leave the cart; courses added while the
// request was in flight stay. On failure the cart is kept for a retry.
func (o *Orchestrator) PurchaseCart(ctx context.Context) Result {
	clm, err := claims.Get(ctx)
	if err != nil {
		return o.fail(NotAuthenticated, "Please log in to purchase courses")
	}

	items := o.cart.Items()
	if len(items) == 0 {
		o.notify.Notify(notice.Info("Your cart is empty"))
		return failure(EmptyCart, "Your cart is empty")
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}

	log := o.log.WithFields(logrus.Fields{"user": clm.UserID, "courses": len(ids)})

	s, err := createCartSession(ctx, o.api, ids)
	if err == nil {
		err = checkSessionURL(s.SessionURL)
	}
	if err != nil {
		log.WithError(err).Warn("cart checkout session not created")
		return o.failFrom(err)
	}

	o.crossCheck(log, items, s)

	if _, err := o.cart.RemoveAll(ctx, ids); err != nil {
		log.WithError(err).Error("checkout session created but the cart could not be cleared")
	}

	log.Info("cart checkout session created")
	o.notify.Notify(notice.Success("Redirecting to checkout"))
	o.refreshPendingCount(ctx)

	count := s.CourseCount
	if count == 0 {
		count = len(ids)
	}
	return Result{
		Success:     true,
		Kind:        Created,
		SessionURL:  s.SessionURL,
		TotalAmount: s.TotalAmount,
		CourseCount: count,
	}
}

// crossCheck prices the cart against the current catalog and logs when the
// server charged a different amount. The server amount always wins.
func (o *Orchestrator) crossCheck(log logrus.FieldLogger, items []cart.Item, s session) {
	if o.catalog == nil || s.TotalAmount.IsZero() {
		return
	}

	priced := make([]cart.Item, len(items))
	for i, it := range items {
		priced[i] = it
		if fresh, ok := o.catalog.Lookup(it.ID); ok {
			priced[i] = cart.Item{Summary: fresh}
		}
	}

	local := cart.Total(priced)
	if !local.Equal(s.TotalAmount.Round(2)) {
		log.WithFields(logrus.Fields{
			"local":  local.StringFixed(2),
			"server": s.TotalAmount.StringFixed(2),
		}).Warn("checkout total differs from catalog prices")
	}
}

func (o *Orchestrator) refreshPendingCount(ctx context.Context) {
	if o.pending == nil {
		return
	}
	if _, err := o.pending.Count(ctx); err != nil {
		o.log.WithError(err).Debug("cannot refresh pending count after checkout")
	}
}

func (o *Orchestrator) fail(kind Kind, msg string) Result {
	o.notify.Notify(notice.Error(msg))
	return failure(kind, msg)
}

// failFrom classifies a checkout error. A pending purchase for the same
// course is recognised by its error code, or by its message for servers
// that send no code.
func (o *Orchestrator) failFrom(err error) Result {
	switch {
	case errors.Is(err, errInvalidSession):
		return o.fail(Failed, "Checkout failed: the payment page is unavailable")
	case isPendingPurchase(err):
		msg := "You already have a pending purchase for this course. Retry or cancel it from your pending purchases."
		o.notify.Notify(notice.Warning(msg))
		return failure(PendingPurchase, msg)
	case remote.IsAuth(err):
		return o.fail(NotAuthenticated, "Please log in to purchase courses")
	default:
		return o.fail(Failed, "Checkout failed: "+remote.Message(err))
	}
}

func isPendingPurchase(err error) bool {
	if remote.HasCode(err, CodePendingPurchase) {
		return true
	}
	var e *remote.Error
	if !errors.As(err, &e) {
		return false
	}
	return strings.Contains(strings.ToLower(e.Message), "pending purchase")
}

func checkSessionURL(raw string) error {
	if err := validate.CheckURL(raw); err != nil {
		return fmt.Errorf("%w %q: %v", errInvalidSession, raw, err)
	}
	return nil
}
