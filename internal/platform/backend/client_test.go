// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package backend_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/talentgate/internal/platform/backend"
	"github.com/taibuivan/talentgate/internal/platform/ctxutil"
)

type profile struct {
	Name string `json:"name"`
}

func newClient(t *testing.T, handler http.HandlerFunc, opts backend.Options) *backend.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts.BaseURL = server.URL + "/v1"
	client, err := backend.New(opts)
	require.NoError(t, err)
	return client
}

/*
TestClient_AttachesHeadersAndUnwrapsEnvelope verifies bearer token, request ID and data decoding.
*/
func TestClient_AttachesHeadersAndUnwrapsEnvelope(t *testing.T) {
	client := newClient(t, func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/v1/candidates/me", request.URL.Path)
		assert.Equal(t, "mcq", request.URL.Query().Get("stage"))
		assert.Equal(t, "Bearer tok-1", request.Header.Get("Authorization"))
		assert.Equal(t, "req-42", request.Header.Get("X-Request-ID"))
		_, _ = writer.Write([]byte(`{"status":"success","message":"ok","data":{"name":"Ada"}}`))
	}, backend.Options{Tokens: backend.TokenSourceFunc(func(context.Context) string { return "tok-1" })})

	ctx := ctxutil.WithRequestID(context.Background(), "req-42")

	var out profile
	err := client.Get(ctx, "/candidates/me", url.Values{"stage": {"mcq"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "Ada", out.Name)
}

/*
TestClient_DecodesBareBody verifies responses without an envelope are decoded as a whole.
*/
func TestClient_DecodesBareBody(t *testing.T) {
	client := newClient(t, func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte(`{"name":"Grace"}`))
	}, backend.Options{})

	var out profile
	require.NoError(t, client.Get(context.Background(), "profile", nil, &out))
	assert.Equal(t, "Grace", out.Name)
}

/*
TestClient_PostsJSON verifies the request body encoding.
*/
func TestClient_PostsJSON(t *testing.T) {
	client := newClient(t, func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, http.MethodPost, request.Method)
		assert.Equal(t, "application/json", request.Header.Get("Content-Type"))
		assert.Empty(t, request.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(request.Body).Decode(&body))
		assert.Equal(t, "Ada", body["name"])
		writer.WriteHeader(http.StatusNoContent)
	}, backend.Options{})

	require.NoError(t, client.Post(context.Background(), "/profiles", map[string]string{"name": "Ada"}, &profile{}))
}

/*
TestClient_NormalizesErrorResponses verifies non-2xx responses become *backend.Error.
*/
func TestClient_NormalizesErrorResponses(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantCode    string
	}{
		{"envelope", http.StatusNotFound, `{"status":404,"message":"No submission","data":{"stage":"mcq"}}`, "No submission", "NOT_FOUND"},
		{"plain_text", http.StatusInternalServerError, `boom`, "Internal Server Error", "BAD_GATEWAY"},
		{"validation", http.StatusUnprocessableEntity, `{"message":"Score out of range"}`, "Score out of range", "UNPROCESSABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newClient(t, func(writer http.ResponseWriter, request *http.Request) {
				writer.WriteHeader(tt.status)
				_, _ = writer.Write([]byte(tt.body))
			}, backend.Options{})

			err := client.Get(context.Background(), "/x", nil, nil)

			var callErr *backend.Error
			require.True(t, errors.As(err, &callErr))
			assert.Equal(t, tt.status, callErr.Status)
			assert.Equal(t, tt.wantMessage, callErr.Message)
			assert.Equal(t, tt.wantCode, callErr.AppError().Code)
		})
	}
}

/*
TestClient_UnauthorizedHook verifies the 401 hook receives the rejected token.
*/
func TestClient_UnauthorizedHook(t *testing.T) {
	var rejected string
	client := newClient(t, func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusUnauthorized)
	}, backend.Options{
		Tokens:         backend.TokenSourceFunc(func(context.Context) string { return "stale" }),
		OnUnauthorized: func(_ context.Context, token string) { rejected = token },
	})

	err := client.Get(context.Background(), "/me", nil, nil)
	assert.True(t, backend.IsStatus(err, http.StatusUnauthorized))
	assert.Equal(t, "stale", rejected)
}

/*
TestClient_TransportFailure verifies unreachable and slow backends produce status 0 errors.
*/
func TestClient_TransportFailure(t *testing.T) {
	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		client := newClient(t, func(writer http.ResponseWriter, request *http.Request) {
			select {
			case <-release:
			case <-request.Context().Done():
			}
		}, backend.Options{Timeout: 20 * time.Millisecond})
		defer close(release)

		err := client.Get(context.Background(), "/slow", nil, nil)

		var callErr *backend.Error
		require.True(t, errors.As(err, &callErr))
		assert.Equal(t, 0, callErr.Status)
		assert.Equal(t, "Backend timed out", callErr.Message)
		assert.Equal(t, http.StatusBadGateway, callErr.AppError().HTTPStatus)
	})

	t.Run("unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		base := server.URL
		server.Close()

		client, err := backend.New(backend.Options{BaseURL: base})
		require.NoError(t, err)

		err = client.Get(context.Background(), "/gone", nil, nil)
		var callErr *backend.Error
		require.True(t, errors.As(err, &callErr))
		assert.Equal(t, "Backend is unreachable", callErr.Message)
	})
}

/*
TestClient_UnexpectedPayload verifies undecodable success bodies are normalized.
*/
func TestClient_UnexpectedPayload(t *testing.T) {
	client := newClient(t, func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte(`{"data":"not-an-object"}`))
	}, backend.Options{})

	err := client.Get(context.Background(), "/x", nil, &profile{})
	var callErr *backend.Error
	require.True(t, errors.As(err, &callErr))
	assert.Equal(t, http.StatusOK, callErr.Status)
}

/*
TestNew_RejectsInvalidBaseURL verifies base URL validation.
*/
func TestNew_RejectsInvalidBaseURL(t *testing.T) {
	_, err := backend.New(backend.Options{BaseURL: "not a url"})
	assert.Error(t, err)
}
