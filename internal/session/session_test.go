// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/talentgate/internal/platform/apperr"
	"github.com/taibuivan/talentgate/internal/platform/sec"
	"github.com/taibuivan/talentgate/internal/session"
)

const testSecret = "test-secret"

func newVerifier() *sec.TokenVerifier {
	return sec.NewTokenVerifier(testSecret, "")
}

func issue(t *testing.T, userID string, role sec.Role, ttl time.Duration) string {
	t.Helper()
	token, err := newVerifier().Sign(userID, role, ttl)
	require.NoError(t, err)
	return token
}

// memoryStore is an in-memory session.Store.
type memoryStore struct {
	mu        sync.Mutex
	snapshots map[string]session.Snapshot
	revoked   map[string]time.Duration
	ttls      map[string]time.Duration
	err       error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		snapshots: map[string]session.Snapshot{},
		revoked:   map[string]time.Duration{},
		ttls:      map[string]time.Duration{},
	}
}

func (m *memoryStore) SaveSnapshot(_ context.Context, token string, snapshot session.Snapshot, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.snapshots[token] = snapshot
	m.ttls[token] = ttl
	return nil
}

func (m *memoryStore) LoadSnapshot(_ context.Context, token string) (session.Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return session.Snapshot{}, false, m.err
	}
	snapshot, ok := m.snapshots[token]
	return snapshot, ok, nil
}

func (m *memoryStore) DeleteSnapshot(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, token)
	return m.err
}

func (m *memoryStore) Revoke(_ context.Context, token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.revoked[token] = ttl
	return nil
}

func (m *memoryStore) IsRevoked(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.revoked[token]
	return ok, nil
}

// fakeBackend answers Post calls with canned payloads per path.
type fakeBackend struct {
	responses map[string]any
	errs      map[string]error
	requests  map[string]any
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{responses: map[string]any{}, errs: map[string]error{}, requests: map[string]any{}}
}

func (f *fakeBackend) Post(_ context.Context, path string, in, out any) error {
	f.requests[path] = in
	if err := f.errs[path]; err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	raw, err := json.Marshal(f.responses[path])
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func requestWithToken(token string) *http.Request {
	request := httptest.NewRequest(http.MethodGet, "/candidate/dashboard", nil)
	if token != "" {
		request.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	}
	return request
}

/*
TestSession_Authenticated verifies that only a token makes a session authenticated.
*/
func TestSession_Authenticated(t *testing.T) {
	assert.False(t, session.Anonymous().Authenticated())
	assert.False(t, session.Session{UserType: sec.RoleAdmin}.Authenticated())
	assert.True(t, session.Session{AccessToken: "t"}.Authenticated())
}

/*
TestSession_ContextRoundTrip verifies storage in and retrieval from a context.
*/
func TestSession_ContextRoundTrip(t *testing.T) {
	assert.False(t, session.FromContext(context.Background()).Authenticated())

	current := session.Session{UserID: "u-1", UserType: sec.RoleExpert, AccessToken: "t"}
	ctx := session.WithSession(context.Background(), current)

	assert.Equal(t, current, session.FromContext(ctx))
	assert.Equal(t, "t", session.Tokens{}.AccessToken(ctx))
}

/*
TestRequired verifies anonymous requests are rejected with 401.
*/
func TestRequired(t *testing.T) {
	_, err := session.Required(httptest.NewRequest(http.MethodGet, "/", nil))

	var appErr *apperr.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusUnauthorized, appErr.HTTPStatus)
}
