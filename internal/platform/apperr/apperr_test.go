// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/talentgate/internal/platform/apperr"
)

/*
TestUpstream_StatusMapping verifies how backend statuses are classified.
*/
func TestUpstream_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantCode   string
		wantStatus int
	}{
		{"bad_request", http.StatusBadRequest, "VALIDATION_ERROR", http.StatusBadRequest},
		{"unauthorized", http.StatusUnauthorized, "UNAUTHORIZED", http.StatusUnauthorized},
		{"not_found", http.StatusNotFound, "NOT_FOUND", http.StatusNotFound},
		{"server_error", http.StatusInternalServerError, "BAD_GATEWAY", http.StatusBadGateway},
		{"transport_failure", 0, "BAD_GATEWAY", http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := apperr.Upstream(tt.status, "", nil)
			assert.Equal(t, tt.wantCode, err.Code)
			assert.Equal(t, tt.wantStatus, err.HTTPStatus)
			assert.Equal(t, "Upstream request failed", err.Message)
		})
	}
}

/*
TestAs_UnwrapsChain verifies that wrapped AppErrors are still discoverable.
*/
func TestAs_UnwrapsChain(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	wrapped := fmt.Errorf("fetch: %w", apperr.BadGateway("Backend unavailable", cause))

	ae := apperr.As(wrapped)
	require.NotNil(t, ae)
	assert.True(t, apperr.IsAppError(wrapped))
	assert.ErrorIs(t, ae, cause)
	assert.Nil(t, apperr.As(cause))
}
