package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/brightech/goldpay/internal/metrics"
	"github.com/brightech/goldpay/internal/models"
	"github.com/brightech/goldpay/internal/patterns"
)

// ErrAlreadyStarted is returned when Begin is called on a session that has
// already left Idle. A pay press while a prior attempt is outstanding is
// ignored by callers.
var ErrAlreadyStarted = errors.New("payment already in progress")

// ErrSessionTerminated is returned when the session was cancelled or torn
// down while link creation was still in flight.
var ErrSessionTerminated = errors.New("session terminated")

// Gateway is the gateway-integration collaborator consumed by a session.
type Gateway interface {
	CreateLink(ctx context.Context, req models.CreateLinkRequest) (*models.CreateLinkResponse, error)
	Verify(ctx context.Context, orderID string) (*models.VerifyResponse, error)
}

// Browser is the embedded-browser collaborator. It displays the hosted
// payment page and is dismissed on any terminal transition.
type Browser interface {
	Present(url string)
	Dismiss()
}

// Prompter asks the user a yes/no question before a cancel takes effect.
type Prompter interface {
	Confirm(ctx context.Context, question string) bool
}

// Outcome is the single terminal result reported to the caller.
type Outcome struct {
	State  models.SessionState
	Amount string // submitted amount, set on success
	Reason string
}

// OutcomeFunc receives the terminal outcome. Called at most once per session.
type OutcomeFunc func(Outcome)

// Config tunes a session. Zero values fall back to production defaults.
type Config struct {
	MinAmount      decimal.Decimal
	PollInterval   time.Duration
	PollTimeout    time.Duration
	VerifyDeadline time.Duration
	Clock          Clock
}

func (c Config) withDefaults() Config {
	if c.MinAmount.IsZero() {
		c.MinAmount = decimal.NewFromInt(1)
	}
	if c.PollInterval == 0 {
		c.PollInterval = patterns.PollInterval
	}
	if c.PollTimeout == 0 {
		c.PollTimeout = patterns.VerifyPollTimeout
	}
	if c.VerifyDeadline == 0 {
		c.VerifyDeadline = patterns.VerifyDeadline
	}
	if c.Clock == nil {
		c.Clock = RealClock()
	}
	return c
}

// Session owns the full lifecycle of one payment attempt: validation, link
// creation, embedded-browser presentation, verification polling, timeout
// enforcement and cancellation. While verification runs it holds exactly one
// poll ticker and one deadline timer; both are released together on the first
// terminal transition, and no callback fires after that.
type Session struct {
	mu        sync.Mutex
	id        string
	orderID   string
	link      string
	state     models.SessionState
	createdAt time.Time
	deadline  time.Time
	tornDown  bool
	stopped   bool

	pollTicker    Ticker
	deadlineTimer Timer
	done          chan struct{}

	req       models.PaymentRequest
	gateway   Gateway
	browser   Browser
	prompter  Prompter
	cfg       Config
	onOutcome OutcomeFunc
	log       *log.Entry
}

// New creates an Idle session for one payment attempt.
func New(req models.PaymentRequest, gw Gateway, browser Browser, prompter Prompter, cfg Config, onOutcome OutcomeFunc) *Session {
	id := uuid.New().String()
	return &Session{
		id:        id,
		state:     models.StateIdle,
		done:      make(chan struct{}),
		req:       req,
		gateway:   gw,
		browser:   browser,
		prompter:  prompter,
		cfg:       cfg.withDefaults(),
		onOutcome: onOutcome,
		log:       log.WithField("session_id", id),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() models.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns a point-in-time view for API consumers.
func (s *Session) Snapshot() models.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.SessionSnapshot{
		SessionID:   s.id,
		OrderID:     s.orderID,
		PaymentLink: s.link,
		State:       s.state,
		CreatedAt:   s.createdAt,
		DeadlineAt:  s.deadline,
	}
}

// Begin validates the request, creates the payment link and starts the
// verification loop. Pre-timer failures (validation, gateway errors) are
// reported synchronously through the returned error; no outcome callback
// fires for them. A second Begin is rejected.
func (s *Session) Begin(ctx context.Context) error {
	s.mu.Lock()
	if s.state != models.StateIdle {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	if err := Validate(s.req, s.cfg.MinAmount); err != nil {
		s.mu.Unlock()
		return err
	}
	s.state = models.StateCreating
	s.mu.Unlock()

	amount, _ := decimal.NewFromString(strings.TrimSpace(s.req.Amount))

	createCtx, cancel := context.WithTimeout(ctx, patterns.LinkCreateTimeout)
	defer cancel()

	created, err := s.gateway.CreateLink(createCtx, models.CreateLinkRequest{
		Amount: amount.InexactFloat64(),
		Customer: models.LinkCustomer{
			Name:      strings.TrimSpace(s.req.PayerName),
			Contact:   s.req.Contact,
			RegNo:     s.req.Product.RegNo,
			GroupCode: s.req.Product.GroupCode,
		},
	})
	if err != nil {
		s.mu.Lock()
		if s.state == models.StateCreating && !s.tornDown {
			s.state = models.StateFailed
		}
		s.mu.Unlock()
		s.log.WithError(err).Error("Payment link creation failed")
		return fmt.Errorf("create payment link: %w", err)
	}

	s.mu.Lock()
	if s.state != models.StateCreating || s.tornDown {
		// Cancelled or torn down while the request was in flight; the late
		// link response is discarded and no timers are armed.
		s.mu.Unlock()
		return ErrSessionTerminated
	}
	s.orderID = created.OrderID
	s.link = created.PaymentLink
	s.createdAt = s.cfg.Clock.Now()
	s.deadline = s.createdAt.Add(s.cfg.VerifyDeadline)
	s.state = models.StateAwaitingUser
	s.pollTicker = s.cfg.Clock.NewTicker(s.cfg.PollInterval)
	s.deadlineTimer = s.cfg.Clock.NewTimer(s.cfg.VerifyDeadline)
	pollC := s.pollTicker.C()
	deadlineC := s.deadlineTimer.C()
	s.mu.Unlock()

	metrics.PaymentSessionsActive.Inc()
	metrics.PaymentAmount.Observe(amount.InexactFloat64())

	s.log = s.log.WithField("order_id", created.OrderID)
	s.log.Info("Payment link ready, awaiting user")

	s.browser.Present(created.PaymentLink)
	go s.run(pollC, deadlineC)

	return nil
}

// run is the verification loop. It exits when the session reaches a terminal
// state or is torn down; the first terminal transition closes done. Polls are
// issued asynchronously so a slow verify request cannot delay the deadline;
// an in-flight poll that loses the race finds the session terminal and
// discards its result.
func (s *Session) run(pollC, deadlineC <-chan time.Time) {
	for {
		select {
		case <-s.done:
			return
		case <-pollC:
			go s.pollOnce()
		case <-deadlineC:
			s.terminate(Outcome{
				State:  models.StateTimedOut,
				Reason: "payment verification timed out, check payment status manually",
			})
			return
		}
	}
}

// pollOnce issues a single bounded verification request. Its own failure
// never stops the loop; only a decisive result or the deadline does.
func (s *Session) pollOnce() {
	s.mu.Lock()
	if s.state.Terminal() || s.tornDown {
		s.mu.Unlock()
		return
	}
	if s.state == models.StateAwaitingUser {
		s.state = models.StateVerifying
	}
	orderID := s.orderID
	s.mu.Unlock()

	ctx, cancel := patterns.WithTimeout(s.cfg.PollTimeout)
	defer cancel()

	resp, err := s.gateway.Verify(ctx, orderID)
	if err != nil {
		metrics.VerifyPollsTotal.WithLabelValues("error").Inc()
		s.log.WithError(err).Warn("Verification poll failed, continuing")
		return
	}

	switch {
	case resp.RazorpayStatus == models.VerifyStatusPaid && resp.Success:
		metrics.VerifyPollsTotal.WithLabelValues("paid").Inc()
		s.terminate(Outcome{State: models.StateSucceeded, Amount: s.req.Amount})

	case resp.RazorpayStatus == models.VerifyStatusFailed,
		resp.RazorpayStatus == models.VerifyStatusCancelled:
		metrics.VerifyPollsTotal.WithLabelValues(resp.RazorpayStatus).Inc()
		s.terminate(Outcome{
			State:  models.StateFailed,
			Reason: "payment " + resp.RazorpayStatus,
		})

	default:
		metrics.VerifyPollsTotal.WithLabelValues("pending").Inc()
	}
}

// Cancel terminates the session as user-cancelled. Idempotent: once the
// session is terminal this is a no-op.
func (s *Session) Cancel() {
	s.terminate(Outcome{State: models.StateCancelled, Reason: "payment cancelled by user"})
}

// RequestCancel asks the confirmation-prompt collaborator before cancelling.
func (s *Session) RequestCancel(ctx context.Context) {
	s.mu.Lock()
	live := !s.state.Terminal() && !s.tornDown
	s.mu.Unlock()
	if !live {
		return
	}
	if s.prompter.Confirm(ctx, "Are you sure you want to cancel the payment?") {
		s.Cancel()
	}
}

// OnBrowserNavigation handles embedded-browser address changes. A
// success-looking URL is never trusted as authoritative; the session keeps
// waiting for the verification endpoint. A failure-looking URL short-circuits
// to Failed so the user gets feedback before the next poll.
func (s *Session) OnBrowserNavigation(rawURL string) {
	url := strings.ToLower(rawURL)
	switch {
	case strings.Contains(url, "success") || strings.Contains(url, "payment-success") || strings.Contains(url, "completed"):
		s.log.WithField("url", rawURL).Debug("Success URL detected, waiting for verification")
	case strings.Contains(url, "failure") || strings.Contains(url, "payment-failed") || strings.Contains(url, "cancelled"):
		if s.terminate(Outcome{State: models.StateFailed, Reason: "payment page reported failure"}) {
			s.log.WithField("url", rawURL).Info("Failure URL detected, session failed")
		}
	}
}

// OnBrowserLoadError handles embedded-browser load failures. The payment page
// may be reloaded inside the browser, so the session keeps polling.
func (s *Session) OnBrowserLoadError(description string) {
	s.log.WithField("description", description).Warn("Payment page failed to load")
}

// Teardown is the unmount path: it synchronously releases both timers and
// freezes the session without delivering an outcome. Late poll responses are
// discarded afterwards. Safe to call at any point, any number of times.
func (s *Session) Teardown() {
	s.mu.Lock()
	if s.tornDown {
		s.mu.Unlock()
		return
	}
	s.tornDown = true
	wasLive := s.haltLocked()
	s.mu.Unlock()

	if wasLive {
		metrics.PaymentSessionsActive.Dec()
		s.log.Info("Session torn down")
	}
}

// terminate is the sole path to a terminal state. The first caller wins:
// it records the outcome, releases both timers, dismisses the browser and
// delivers the outcome callback exactly once. Late callers get false.
func (s *Session) terminate(out Outcome) bool {
	s.mu.Lock()
	if s.state.Terminal() || s.tornDown {
		s.mu.Unlock()
		return false
	}
	wasLive := s.haltLocked()
	s.state = out.State
	s.mu.Unlock()

	if wasLive {
		metrics.PaymentSessionsActive.Dec()
	}
	metrics.PaymentSessionsTotal.WithLabelValues(string(out.State)).Inc()

	s.browser.Dismiss()

	s.log.WithFields(log.Fields{
		"outcome": string(out.State),
		"reason":  out.Reason,
	}).Info("Payment session finished")

	if s.onOutcome != nil {
		s.onOutcome(out)
	}
	return true
}

// haltLocked releases the timers and wakes the run loop. Caller holds mu.
// Reports whether timers were actually live.
func (s *Session) haltLocked() bool {
	live := s.pollTicker != nil
	if s.pollTicker != nil {
		s.pollTicker.Stop()
		s.pollTicker = nil
	}
	if s.deadlineTimer != nil {
		s.deadlineTimer.Stop()
		s.deadlineTimer = nil
	}
	if !s.stopped {
		s.stopped = true
		close(s.done)
	}
	return live
}
