// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package guard_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/talentgate/internal/guard"
	"github.com/taibuivan/talentgate/internal/platform/ctxutil"
	"github.com/taibuivan/talentgate/internal/platform/sec"
	"github.com/taibuivan/talentgate/internal/session"
)

func serve(handler http.Handler, request *http.Request, current session.Session) *httptest.ResponseRecorder {
	ctx := ctxutil.WithDeviceID(request.Context(), "device-9")
	ctx = session.WithSession(ctx, current)

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request.WithContext(ctx))
	return recorder
}

/*
TestHandler_Decision verifies the decision endpoint mirrors Evaluate.
*/
func TestHandler_Decision(t *testing.T) {
	handler := guard.NewHandler(testPolicy(), newMemoryPreferences()).Routes()

	request := httptest.NewRequest(http.MethodGet, "/guard/decision?path=/admin/dashboard", nil)
	recorder := serve(handler, request, signedIn(sec.RoleCustomer))
	require.Equal(t, http.StatusOK, recorder.Code)

	var body struct {
		Data struct {
			Decision string `json:"decision"`
			Location string `json:"location"`
			Notice   string `json:"notice"`
			DelayMS  int64  `json:"delay_ms"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "redirect_dashboard", body.Data.Decision)
	assert.Equal(t, "/customer/browse-engineers", body.Data.Location)
	assert.Equal(t, int64(1000), body.Data.DelayMS)
	assert.NotEmpty(t, body.Data.Notice)
}

/*
TestHandler_DecisionRequiresPath verifies the path parameter is validated.
*/
func TestHandler_DecisionRequiresPath(t *testing.T) {
	handler := guard.NewHandler(testPolicy(), nil).Routes()

	recorder := serve(handler, httptest.NewRequest(http.MethodGet, "/guard/decision", nil), session.Anonymous())
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

/*
TestHandler_SetRoleStoresCanonicalRole verifies aliases are normalized before storage.
*/
func TestHandler_SetRoleStoresCanonicalRole(t *testing.T) {
	prefs := newMemoryPreferences()
	handler := guard.NewHandler(testPolicy(), prefs).Routes()

	request := httptest.NewRequest(http.MethodPost, "/preferences/role", strings.NewReader(`{"role":"Engineer"}`))
	recorder := serve(handler, request, session.Anonymous())

	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Equal(t, "candidate", prefs.values["device-9"])
}

/*
TestHandler_SetRoleFailures covers unknown roles and storage outages.
*/
func TestHandler_SetRoleFailures(t *testing.T) {
	t.Run("unknown_role", func(t *testing.T) {
		handler := guard.NewHandler(testPolicy(), newMemoryPreferences()).Routes()
		request := httptest.NewRequest(http.MethodPost, "/preferences/role", strings.NewReader(`{"role":"pirate"}`))
		assert.Equal(t, http.StatusBadRequest, serve(handler, request, session.Anonymous()).Code)
	})

	t.Run("storage_down", func(t *testing.T) {
		prefs := newMemoryPreferences()
		prefs.err = errors.New("connection refused")
		handler := guard.NewHandler(testPolicy(), prefs).Routes()
		request := httptest.NewRequest(http.MethodPost, "/preferences/role", strings.NewReader(`{"role":"expert"}`))
		assert.Equal(t, http.StatusServiceUnavailable, serve(handler, request, session.Anonymous()).Code)
	})
}
