// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notice_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/talentgate/internal/notice"
	"github.com/taibuivan/talentgate/internal/platform/ctxutil"
)

type memoryStore struct {
	queues map[string][]notice.Notice
	err    error
}

func (m *memoryStore) Push(_ context.Context, deviceID string, n notice.Notice) error {
	m.queues[deviceID] = append(m.queues[deviceID], n)
	return nil
}

func (m *memoryStore) Drain(_ context.Context, deviceID string) ([]notice.Notice, error) {
	if m.err != nil {
		return nil, m.err
	}
	queued := m.queues[deviceID]
	delete(m.queues, deviceID)
	return queued, nil
}

func drain(handler *notice.Handler, deviceID string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	if deviceID != "" {
		request = request.WithContext(ctxutil.WithDeviceID(request.Context(), deviceID))
	}
	recorder := httptest.NewRecorder()
	handler.Routes().ServeHTTP(recorder, request)
	return recorder
}

/*
TestHandler_Drain verifies queued notices are delivered once.
*/
func TestHandler_Drain(t *testing.T) {
	store := &memoryStore{queues: map[string][]notice.Notice{}}
	require.NoError(t, store.Push(context.Background(), "d-1", notice.Notice{Level: notice.LevelWarning, Message: "denied"}))
	handler := notice.NewHandler(store)

	var body struct {
		Data []notice.Notice `json:"data"`
	}
	recorder := drain(handler, "d-1")
	require.Equal(t, http.StatusOK, recorder.Code)
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "denied", body.Data[0].Message)

	body.Data = nil
	require.NoError(t, json.Unmarshal(drain(handler, "d-1").Body.Bytes(), &body))
	assert.Empty(t, body.Data)
}

/*
TestHandler_Drain_Edges covers a missing device and a failing store.
*/
func TestHandler_Drain_Edges(t *testing.T) {
	store := &memoryStore{queues: map[string][]notice.Notice{}, err: errors.New("redis down")}
	handler := notice.NewHandler(store)

	recorder := drain(handler, "")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"data":[]}`, recorder.Body.String())

	assert.Equal(t, http.StatusInternalServerError, drain(handler, "d-1").Code)
}

/*
TestRedisStore_CapsQueue exercises the capped list against REDIS_TEST_URL.
*/
func TestRedisStore_CapsQueue(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	options, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(options)
	t.Cleanup(func() { _ = client.Close() })

	store := notice.NewRedisStore(client)
	ctx := context.Background()
	device := "integration-" + time.Now().Format(time.RFC3339Nano)

	for i := 0; i < 25; i++ {
		require.NoError(t, store.Push(ctx, device, notice.Notice{Level: notice.LevelInfo, Message: "n"}))
	}

	drained, err := store.Drain(ctx, device)
	require.NoError(t, err)
	assert.Len(t, drained, 20)

	drained, err = store.Drain(ctx, device)
	require.NoError(t, err)
	assert.Empty(t, drained)
}
