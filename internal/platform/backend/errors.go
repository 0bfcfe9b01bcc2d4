// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/taibuivan/talentgate/internal/platform/apperr"
)

// Error is the uniform failure shape for every backend call.
//
// Status is the backend's HTTP status, or 0 when no response was received.
type Error struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("backend: %s", e.Message)
	}
	return fmt.Sprintf("backend: %d %s", e.Status, e.Message)
}

// Unwrap exposes the transport or decoding cause.
func (e *Error) Unwrap() error { return e.cause }

// AppError maps the failure onto the portal error taxonomy.
func (e *Error) AppError() *apperr.AppError {
	return apperr.Upstream(e.Status, e.Message, e)
}

// IsStatus reports whether err is a backend [*Error] with the given status.
func IsStatus(err error, status int) bool {
	var callErr *Error
	return errors.As(err, &callErr) && callErr.Status == status
}

// IsNotFound reports whether the backend answered 404.
func IsNotFound(err error) bool { return IsStatus(err, http.StatusNotFound) }

// AsAppError converts any error returned by this package into an [*apperr.AppError].
func AsAppError(err error) *apperr.AppError {
	var callErr *Error
	if errors.As(err, &callErr) {
		return callErr.AppError()
	}
	if ae := apperr.As(err); ae != nil {
		return ae
	}
	return apperr.Internal(err)
}
