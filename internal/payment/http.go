// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package payment

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/talentgate/internal/platform/middleware"
	requestutil "github.com/taibuivan/talentgate/internal/platform/request"
	"github.com/taibuivan/talentgate/internal/platform/respond"
	"github.com/taibuivan/talentgate/internal/session"
)

// Handler exposes the checkout lifecycle.
type Handler struct {
	service *Service
}

// NewHandler constructs a payment [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router mounted under /api/payments.
//
// # Endpoints
//   - POST /intents                : Client secret for a plan
//   - GET  /success?session_id=    : Reconciled checkout outcome
//   - GET  /cancel?session_id=     : Abandoned checkout
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Post("/intents", handler.createIntent)
	router.Get("/success", handler.success)
	router.Get("/cancel", handler.cancel)
	return router
}

/*
CreateIntent starts a checkout.

POST /api/payments/intents

Request Body:
  - plan_id: string (required)
  - amount: int (minor units, > 0)
  - currency: string (three lowercase letters)

Response:
  - 201: Intent
  - 400: Validation failure
  - 502: Provider did not issue a client secret
*/
func (handler *Handler) createIntent(writer http.ResponseWriter, request *http.Request) {
	var input CheckoutInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	intent, err := handler.service.CreateIntent(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, intent)
}

// success answers 200 for every reconciled status; the outcome drives the screen.
func (handler *Handler) success(writer http.ResponseWriter, request *http.Request) {
	current := session.FromContext(request.Context())

	outcome, err := handler.service.Confirm(request.Context(), current.UserID, requestutil.Query(request, FieldSessionID))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, outcome)
}

func (handler *Handler) cancel(writer http.ResponseWriter, request *http.Request) {
	current := session.FromContext(request.Context())

	outcome, err := handler.service.Cancel(request.Context(), current.UserID, requestutil.Query(request, FieldSessionID))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, outcome)
}
