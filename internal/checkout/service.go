// Package checkout drives a submission from the mirrored cart through
// payment confirmation and order finalization to the post-purchase
// redirect.
package checkout

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hadidevlabx/shopfront/internal/cart"
	"github.com/hadidevlabx/shopfront/internal/domain"
	"github.com/hadidevlabx/shopfront/internal/session"
)

var (
	ErrAuthRequired = errors.New("checkout: authentication required")
	// ErrInFlight rejects a second submission while one is already
	// running for the same user.
	ErrInFlight = errors.New("checkout: submission already in progress")

	errIllegalTransition = errors.New("checkout: illegal status transition")
)

// Redirect targets for the recoverable pre-charge failures.
const (
	LoginRedirect     = "/login?redirect=checkout"
	EmptyCartRedirect = "/cart"
)

type Submission struct {
	Form Form
	Card CardDetails
}

type Result struct {
	Order       domain.FinalizedOrder
	Status      Status
	RedirectURL string
}

type Service struct {
	carts     *cart.Store
	gateway   Gateway
	finalizer *Finalizer
	notify    Notifier
	settle    time.Duration
	log       zerolog.Logger

	mu       sync.Mutex
	inflight map[int64]bool
}

func NewService(carts *cart.Store, gateway Gateway, finalizer *Finalizer, notify Notifier, settle time.Duration, log zerolog.Logger) *Service {
	return &Service{
		carts:     carts,
		gateway:   gateway,
		finalizer: finalizer,
		notify:    notify,
		settle:    settle,
		log:       log,
		inflight:  make(map[int64]bool),
	}
}

// Submit runs the full checkout pipeline. Errors before any charge
// (auth, empty cart, payment declined) are surfaced with a recovery
// path; once payment has succeeded the pipeline always ends at a
// confirmation redirect.
func (s *Service) Submit(ctx context.Context, sess session.Session, sub Submission) (Result, error) {
	if !sess.Authenticated() {
		return Result{RedirectURL: LoginRedirect}, ErrAuthRequired
	}

	if !s.begin(sess.UserID) {
		return Result{}, ErrInFlight
	}
	defer s.end(sess.UserID)

	current := s.carts.Cart(ctx, sess)
	if current.IsEmpty() {
		return Result{RedirectURL: EmptyCartRedirect}, ErrEmptyCart
	}

	draft, err := BuildDraft(sub.Form, current)
	if err != nil {
		return Result{RedirectURL: EmptyCartRedirect}, err
	}

	status := StatusIdle

	status, err = advance(status, StatusConfirming)
	if err != nil {
		return Result{Status: status}, err
	}

	paymentMethodID, err := s.gateway.Confirm(ctx, sub.Card, draft)
	if err != nil {
		// Nothing was charged; back to idle so the user can retry.
		status = StatusIdle
		s.log.Info().Err(err).Int64("user_id", sess.UserID).Msg("payment confirmation failed")
		return Result{Status: status}, err
	}

	status, err = advance(status, StatusFinalizing)
	if err != nil {
		return Result{Status: status}, err
	}

	finalized := s.finalizer.Finalize(ctx, sess, draft, paymentMethodID)

	redirector := NewRedirector(s.carts, s.notify, s.settle, s.log)
	url, _ := redirector.Redirect(sess, finalized)

	target := StatusCompleted
	if !finalized.Confirmed() {
		target = StatusFallbackCompleted
	}
	status, err = advance(status, target)
	if err != nil {
		return Result{Status: status}, err
	}

	s.log.Info().Int64("user_id", sess.UserID).
		Str("order_id", finalized.Order.ID).
		Str("provenance", string(finalized.Provenance)).
		Msg("checkout completed")

	return Result{Order: finalized, Status: status, RedirectURL: url}, nil
}

func advance(from, to Status) (Status, error) {
	if !CanTransitionTo(from, to) {
		return from, errIllegalTransition
	}
	return to, nil
}

func (s *Service) begin(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[userID] {
		return false
	}
	s.inflight[userID] = true
	return true
}

func (s *Service) end(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, userID)
}
