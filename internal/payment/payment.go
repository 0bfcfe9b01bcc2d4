// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package payment runs the checkout lifecycle against the hiring backend.

The portal never talks to the payment provider directly. The backend issues a
client secret for a payment intent; the browser completes the hosted payment
fields and returns with a checkout session id, which the portal reconciles.

Lifecycle:

  - Intent: [Service.CreateIntent] obtains the client secret for a plan.
  - Success page: [Service.Confirm] reconciles the session id with the backend.
  - Cancel page: [Service.Cancel] tells the backend the checkout was abandoned.

Reconciled outcomes are cached per user and session id, so reloading the
success page does not confirm twice.
*/
package payment

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/talentgate/internal/platform/apperr"
	"github.com/taibuivan/talentgate/internal/platform/backend"
	"github.com/taibuivan/talentgate/internal/platform/constants"
	"github.com/taibuivan/talentgate/internal/platform/ctxutil"
	"github.com/taibuivan/talentgate/internal/platform/metrics"
	"github.com/taibuivan/talentgate/internal/platform/validate"
)

// # Domain Model

// CheckoutInput selects what the user is paying for. Amount is in minor units.
type CheckoutInput struct {
	PlanID   string `json:"plan_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Intent is a payment intent ready for the hosted payment fields.
type Intent struct {
	ClientSecret string `json:"client_secret"`
	IntentID     string `json:"intent_id"`
	SessionID    string `json:"session_id"`
}

// Status is the reconciled state of a checkout session.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusPending   Status = "pending"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// Final reports whether the status can no longer change.
func (s Status) Final() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCanceled
}

// Action is a button the result screen offers.
type Action string

const (
	ActionContinue Action = "continue"
	ActionRetry    Action = "retry"
	ActionBack     Action = "back"
	ActionRefresh  Action = "refresh"
)

// Outcome is what the success or cancel screen shows.
type Outcome struct {
	SessionID    string    `json:"session_id"`
	Status       Status    `json:"status"`
	Message      string    `json:"message,omitempty"`
	Actions      []Action  `json:"actions"`
	ReconciledAt time.Time `json:"reconciled_at"`
}

func newOutcome(sessionID string, status Status, message string, at time.Time) Outcome {
	outcome := Outcome{SessionID: sessionID, Status: status, Message: message, ReconciledAt: at}
	switch status {
	case StatusSucceeded:
		outcome.Actions = []Action{ActionContinue}
	case StatusPending:
		outcome.Actions = []Action{ActionRefresh}
	default:
		outcome.Actions = []Action{ActionRetry, ActionBack}
	}
	return outcome
}

// # Collaborators

// BackendClient is the subset of the REST client the payment flow uses.
type BackendClient interface {
	Post(ctx context.Context, path string, in, out any) error
}

// Cache stores reconciled outcomes.
type Cache interface {
	Load(ctx context.Context, userID, sessionID string) (Outcome, bool, error)
	Save(ctx context.Context, userID string, outcome Outcome, ttl time.Duration) error
}

const (
	pathIntents = "/payments/intents"
	pathConfirm = "/payments/confirm"
	pathCancel  = "/payments/cancel"
)

const (
	FieldPlanID    = "plan_id"
	FieldAmount    = "amount"
	FieldCurrency  = "currency"
	FieldSessionID = "session_id"
)

// # Service

// Service implements the checkout lifecycle.
type Service struct {
	backend BackendClient
	cache   Cache
	metrics *metrics.Registry
	now     func() time.Time
}

// NewService creates the payment service. A nil registry disables metrics.
func NewService(client BackendClient, cache Cache, registry *metrics.Registry) *Service {
	return &Service{backend: client, cache: cache, metrics: registry, now: time.Now}
}

// CreateIntent asks the backend for a client secret.
func (service *Service) CreateIntent(ctx context.Context, input CheckoutInput) (Intent, error) {
	validator := &validate.Validator{}
	validator.Required(FieldPlanID, input.PlanID).
		MaxLen(FieldPlanID, input.PlanID, 64).
		Positive(FieldAmount, input.Amount).
		Currency(FieldCurrency, input.Currency)
	if err := validator.Err(); err != nil {
		return Intent{}, err
	}

	var intent Intent
	if err := service.backend.Post(ctx, pathIntents, input, &intent); err != nil {
		return Intent{}, backend.AsAppError(err)
	}
	if intent.ClientSecret == "" {
		return Intent{}, apperr.BadGateway("Payment provider did not issue a client secret", nil)
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "payment_intent_created",
		slog.String("plan_id", input.PlanID),
		slog.String("intent_id", intent.IntentID),
	)
	return intent, nil
}

type confirmResponse struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
}

/*
Confirm reconciles a checkout session returned on the success URL.

Description: A cached final outcome is returned as is. A backend failure is
shown as a failed checkout (retry, back) but is not cached, so the next load
reconciles again. Pending outcomes are not cached either.
*/
func (service *Service) Confirm(ctx context.Context, userID, sessionID string) (Outcome, error) {
	if err := sessionIDError(sessionID); err != nil {
		return Outcome{}, err
	}
	logger := ctxutil.GetLogger(ctx).With(slog.String("checkout_session", sessionID))

	// ── 1. Cached Result ──────────────────────────────────────────────────
	if cached, ok := service.cached(ctx, logger, userID, sessionID); ok {
		return cached, nil
	}

	// ── 2. Reconcile ──────────────────────────────────────────────────────
	var response confirmResponse
	err := service.backend.Post(ctx, pathConfirm, map[string]string{FieldSessionID: sessionID}, &response)
	if err != nil {
		logger.WarnContext(ctx, "payment_confirm_failed", slog.Any("error", err))
		service.count(StatusFailed)
		return newOutcome(sessionID, StatusFailed, backend.AsAppError(err).Message, service.now()), nil
	}

	status := response.Status
	if status == "" {
		status = StatusPending
	}
	outcome := newOutcome(sessionID, status, response.Message, service.now())
	service.count(status)

	// ── 3. Remember ───────────────────────────────────────────────────────
	if status.Final() {
		service.remember(ctx, logger, userID, outcome)
	}

	logger.InfoContext(ctx, "payment_reconciled", slog.String("status", string(status)))
	return outcome, nil
}

// Cancel records an abandoned checkout. The screen always offers retry and back.
func (service *Service) Cancel(ctx context.Context, userID, sessionID string) (Outcome, error) {
	if err := sessionIDError(sessionID); err != nil {
		return Outcome{}, err
	}
	logger := ctxutil.GetLogger(ctx).With(slog.String("checkout_session", sessionID))

	if cached, ok := service.cached(ctx, logger, userID, sessionID); ok && cached.Status == StatusSucceeded {
		return cached, nil
	}

	if err := service.backend.Post(ctx, pathCancel, map[string]string{FieldSessionID: sessionID}, nil); err != nil {
		// The cancel screen does not depend on the backend acknowledging it.
		logger.WarnContext(ctx, "payment_cancel_failed", slog.Any("error", err))
	}

	outcome := newOutcome(sessionID, StatusCanceled, "", service.now())
	service.count(StatusCanceled)
	service.remember(ctx, logger, userID, outcome)
	return outcome, nil
}

func sessionIDError(sessionID string) error {
	validator := &validate.Validator{}
	validator.Required(FieldSessionID, sessionID).MaxLen(FieldSessionID, sessionID, 255)
	return validator.Err()
}

func (service *Service) cached(ctx context.Context, logger *slog.Logger, userID, sessionID string) (Outcome, bool) {
	outcome, ok, err := service.cache.Load(ctx, userID, sessionID)
	if err != nil {
		logger.WarnContext(ctx, "payment_cache_read_failed", slog.Any("error", err))
		return Outcome{}, false
	}
	return outcome, ok
}

func (service *Service) remember(ctx context.Context, logger *slog.Logger, userID string, outcome Outcome) {
	if err := service.cache.Save(ctx, userID, outcome, constants.PaymentOutcomeTTL); err != nil {
		logger.WarnContext(ctx, "payment_cache_write_failed", slog.Any("error", err))
	}
}

func (service *Service) count(status Status) {
	if service.metrics != nil {
		service.metrics.PaymentOutcomes.WithLabelValues(string(status)).Inc()
	}
}
