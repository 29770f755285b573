package checkout

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/hadidevlabx/shopfront/internal/domain"
	"github.com/hadidevlabx/shopfront/internal/session"
)

// CartClearer empties the user's cart after a completed purchase.
type CartClearer interface {
	Clear(ctx context.Context, sess session.Session) error
}

// Notifier surfaces user-facing notifications outside the HTTP response
// itself (toast/message bus, depending on the front end).
type Notifier interface {
	Success(userID int64, message string)
}

// LogNotifier is the default notifier when no UI channel is wired.
type LogNotifier struct {
	Log zerolog.Logger
}

func (n LogNotifier) Success(userID int64, message string) {
	n.Log.Info().Int64("user_id", userID).Str("notice", message).Msg("user notification")
}

// Redirector performs exactly one navigation to the order confirmation
// view. It is single shot: a second invocation while the first is in
// flight (a double click) is a no-op. The guard is an atomic
// compare-and-swap so it holds under parallel dispatch.
type Redirector struct {
	carts  CartClearer
	notify Notifier
	settle time.Duration
	log    zerolog.Logger
	fired  atomic.Bool
}

func NewRedirector(carts CartClearer, notify Notifier, settle time.Duration, log zerolog.Logger) *Redirector {
	return &Redirector{
		carts:  carts,
		notify: notify,
		settle: settle,
		log:    log,
	}
}

// Redirect returns the confirmation URL for a full page redirect, so
// the destination reloads fresh order data instead of trusting
// in-memory state. The cart clear runs in the background; its failure
// is logged, never surfaced. The short settling delay lets any modal UI
// close before navigation.
func (r *Redirector) Redirect(sess session.Session, result domain.FinalizedOrder) (string, bool) {
	if !r.fired.CompareAndSwap(false, true) {
		return "", false
	}

	r.notify.Success(sess.UserID, "Order placed successfully! Redirecting...")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := r.carts.Clear(ctx, sess); err != nil {
			r.log.Warn().Err(err).Int64("user_id", sess.UserID).Msg("failed to clear cart after checkout")
		}
	}()

	time.Sleep(r.settle)

	if result.Order.ID != "" {
		return "/orders/" + result.Order.ID, true
	}
	return "/orders", true
}
