// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package guard

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/talentgate/internal/platform/apperr"
	"github.com/taibuivan/talentgate/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/talentgate/internal/platform/request"
	"github.com/taibuivan/talentgate/internal/platform/respond"
	"github.com/taibuivan/talentgate/internal/platform/sec"
	"github.com/taibuivan/talentgate/internal/platform/validate"
	"github.com/taibuivan/talentgate/internal/session"
)

// Handler exposes guard decisions to client-side routers.
type Handler struct {
	policy      Policy
	preferences PreferenceStore
}

// NewHandler constructs a guard [Handler].
func NewHandler(policy Policy, preferences PreferenceStore) *Handler {
	return &Handler{policy: policy, preferences: preferences}
}

// Routes returns the router mounted under /api.
//
// # Endpoints
//   - GET  /guard/decision?path= : Decision for a path and the caller's session.
//   - POST /preferences/role     : Stores the device's role preference.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/guard/decision", handler.decision)
	router.Post("/preferences/role", handler.setRole)

	return router
}

type decisionResponse struct {
	Decision
	DelayMS int64 `json:"delay_ms,omitempty"`
}

/*
Decision evaluates a navigation without side effects.

GET /api/guard/decision?path=/admin/dashboard

Response:
  - 200: decisionResponse
  - 400: Missing path
*/
func (handler *Handler) decision(writer http.ResponseWriter, request *http.Request) {
	target := requestutil.Query(request, "path")
	if err := (&validate.Validator{}).Required("path", target).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	ctx := request.Context()
	prefs := DevicePreference{Store: handler.preferences, DeviceID: ctxutil.GetDeviceID(ctx)}
	decision := Evaluate(ctx, handler.policy, target, session.FromContext(ctx), prefs)

	respond.OK(writer, decisionResponse{Decision: decision, DelayMS: decision.Delay.Milliseconds()})
}

type rolePreferencePayload struct {
	Role string `json:"role"`
}

/*
SetRole stores the role the visitor picked.

POST /api/preferences/role

Request:
  - Body: {"role": "engineer"} (aliases are accepted and stored canonically)

Response:
  - 204: Stored
  - 400: Unknown role or missing device
*/
func (handler *Handler) setRole(writer http.ResponseWriter, request *http.Request) {
	var input rolePreferencePayload
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	role, ok := sec.ParseRole(input.Role)
	if !ok {
		respond.Error(writer, request, apperr.ValidationError("Validation failed", apperr.FieldError{Field: "role", Message: "Unknown role"}))
		return
	}

	deviceID := ctxutil.GetDeviceID(request.Context())
	if deviceID == "" {
		respond.Error(writer, request, apperr.ValidationError("Device identifier missing"))
		return
	}

	if err := handler.preferences.Set(request.Context(), deviceID, role); err != nil {
		respond.Error(writer, request, apperr.ServiceUnavailable("Preference storage is unavailable"))
		return
	}

	respond.NoContent(writer)
}
