// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package guard_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/taibuivan/talentgate/internal/guard"
	"github.com/taibuivan/talentgate/internal/notice"
	"github.com/taibuivan/talentgate/internal/platform/sec"
	"github.com/taibuivan/talentgate/internal/session"
)

const denialDelay = time.Second

func testPolicy() guard.Policy {
	return guard.DefaultPolicy(denialDelay)
}

func signedIn(role sec.Role) session.Session {
	return session.Session{UserID: "u-1", UserType: role, AccessToken: "token-" + string(role)}
}

// memoryPreferences is an in-memory PreferenceStore.
type memoryPreferences struct {
	mu     sync.Mutex
	values map[string]string
	err    error
}

func newMemoryPreferences() *memoryPreferences {
	return &memoryPreferences{values: map[string]string{}}
}

func (m *memoryPreferences) Get(_ context.Context, deviceID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	return m.values[deviceID], nil
}

func (m *memoryPreferences) Set(_ context.Context, deviceID string, role sec.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.values[deviceID] = string(role)
	return nil
}

// failingPreference simulates unavailable storage.
type failingPreference struct{}

func (failingPreference) RolePreference(context.Context) (string, error) {
	return "", errors.New("storage unavailable")
}

// recordingNotices collects pushed notices.
type recordingNotices struct {
	mu      sync.Mutex
	pushed  []notice.Notice
	devices []string
}

func (r *recordingNotices) Push(_ context.Context, deviceID string, n notice.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushed = append(r.pushed, n)
	r.devices = append(r.devices, deviceID)
	return nil
}

// recordingRenderer captures Navigator output in order.
type recordingRenderer struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingRenderer) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingRenderer) ShowLoading(path string)  { r.add("loading " + path) }
func (r *recordingRenderer) Render(path string)       { r.add("render " + path) }
func (r *recordingRenderer) Redirect(location string) { r.add("redirect " + location) }
func (r *recordingRenderer) Notice(message string)    { r.add("notice") }

func (r *recordingRenderer) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}
