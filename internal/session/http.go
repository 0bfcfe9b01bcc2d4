// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/talentgate/internal/platform/apperr"
	"github.com/taibuivan/talentgate/internal/platform/constants"
	requestutil "github.com/taibuivan/talentgate/internal/platform/request"
	"github.com/taibuivan/talentgate/internal/platform/respond"
	"github.com/taibuivan/talentgate/internal/platform/sec"
	"github.com/taibuivan/talentgate/internal/platform/validate"
)

// Request field names used in validation details.
const (
	FieldEmail    = "email"
	FieldPassword = "password"
)

// DashboardFunc resolves where a freshly signed-in role lands.
type DashboardFunc func(role sec.Role) string

// Handler exposes the session lifecycle over HTTP.
type Handler struct {
	service      *Service
	cookieSecure bool
	dashboard    DashboardFunc
}

// NewHandler constructs a session [Handler].
func NewHandler(service *Service, cookieSecure bool, dashboard DashboardFunc) *Handler {
	return &Handler{service: service, cookieSecure: cookieSecure, dashboard: dashboard}
}

// Routes returns the router mounted under /api/auth.
//
// # Endpoints
//   - POST /{role}/login : Signs in through the backend and sets the cookie.
//   - POST /logout       : Revokes the session and clears the cookie.
//   - GET  /session      : Describes the current session.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/{role}/login", handler.login)
	router.Post("/logout", handler.logout)
	router.Get("/session", handler.current)

	return router
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Authenticated bool         `json:"authenticated"`
	UserID        string       `json:"user_id,omitempty"`
	UserType      sec.Role     `json:"user_type,omitempty"`
	Profile       ProfileFlags `json:"profile"`
	RedirectTo    string       `json:"redirect_to,omitempty"`
}

/*
Login authenticates a role-specific login form.

POST /api/auth/{role}/login

Response:
  - 200: sessionResponse with the role dashboard in redirect_to
  - 400: Bad input or validation failure
  - 403: The account belongs to another role
  - 404: Unknown role
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	role, ok := sec.ParseRole(requestutil.Param(request, "role"))
	if !ok {
		respond.Error(writer, request, apperr.NotFound("Role"))
		return
	}

	var input loginPayload
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	current, err := handler.service.Login(request.Context(), role, LoginInput{Email: input.Email, Password: input.Password})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.AccessTokenCookieName,
		Value:    current.AccessToken,
		Path:     "/",
		Expires:  current.ExpiresAt,
		Secure:   handler.cookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	response := describe(current)
	if handler.dashboard != nil {
		response.RedirectTo = handler.dashboard(current.UserType)
	}
	respond.OK(writer, response)
}

/*
Logout terminates the current session.

POST /api/auth/logout

Response:
  - 204: Session terminated (also when already anonymous)
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	current := FromContext(request.Context())
	if err := handler.service.Logout(request.Context(), current.AccessToken); err != nil {
		respond.Error(writer, request, err)
		return
	}

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.AccessTokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   handler.cookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	respond.NoContent(writer)
}

// current handles GET /api/auth/session.
func (handler *Handler) current(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, describe(FromContext(request.Context())))
}

func describe(current Session) sessionResponse {
	return sessionResponse{
		Authenticated: current.Authenticated(),
		UserID:        current.UserID,
		UserType:      current.UserType,
		Profile:       current.Profile,
	}
}
