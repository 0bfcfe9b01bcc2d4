// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package assessment_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/talentgate/internal/assessment"
	"github.com/taibuivan/talentgate/internal/platform/backend"
)

func newBackendSource(t *testing.T, handler http.HandlerFunc) *assessment.BackendSource {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := backend.New(backend.Options{BaseURL: server.URL})
	require.NoError(t, err)
	return assessment.NewBackendSource(client)
}

/*
TestBackendSource_Latest covers the found, missing and failing cases.
*/
func TestBackendSource_Latest(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		source := newBackendSource(t, func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/submissions/latest", request.URL.Path)
			assert.Equal(t, "mcq", request.URL.Query().Get("stage"))
			assert.Equal(t, "backend", request.URL.Query().Get("track"))
			_, _ = writer.Write([]byte(`{"status":200,"data":{"id":"s-1","stage":"mcq","score":61.5,"submitted_at":"2026-03-01T10:00:00Z"}}`))
		})

		submission, err := source.Latest(context.Background(), assessment.StageMCQ, "backend")
		require.NoError(t, err)
		require.NotNil(t, submission)
		assert.True(t, submission.Submitted())
		assert.Equal(t, 61.5, submission.Score)
	})

	t.Run("not_found_is_empty", func(t *testing.T) {
		source := newBackendSource(t, func(writer http.ResponseWriter, _ *http.Request) {
			writer.WriteHeader(http.StatusNotFound)
			_, _ = writer.Write([]byte(`{"status":404,"message":"No submission"}`))
		})

		submission, err := source.Latest(context.Background(), assessment.StageMCQ, "backend")
		require.NoError(t, err)
		assert.Nil(t, submission)
	})

	t.Run("null_data_is_empty", func(t *testing.T) {
		source := newBackendSource(t, func(writer http.ResponseWriter, _ *http.Request) {
			_, _ = writer.Write([]byte(`{"status":200,"data":null}`))
		})

		submission, err := source.Latest(context.Background(), assessment.StageCoding, "")
		require.NoError(t, err)
		assert.Nil(t, submission)
	})

	t.Run("server_error", func(t *testing.T) {
		source := newBackendSource(t, func(writer http.ResponseWriter, _ *http.Request) {
			writer.WriteHeader(http.StatusInternalServerError)
		})

		_, err := source.Latest(context.Background(), assessment.StageMCQ, "backend")
		assert.Error(t, err)
	})
}

/*
TestBackendSource_Submit verifies the submission payload.
*/
func TestBackendSource_Submit(t *testing.T) {
	source := newBackendSource(t, func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, http.MethodPost, request.Method)

		var input assessment.SubmitInput
		require.NoError(t, json.NewDecoder(request.Body).Decode(&input))
		assert.Equal(t, "a-1", input.AttemptID)
		assert.True(t, input.Expired)

		_, _ = writer.Write([]byte(`{"status":201,"data":{"id":"s-9","stage":"coding","score":42,"submitted_at":"2026-03-01T10:00:00Z"}}`))
	})

	submission, err := source.Submit(context.Background(), assessment.SubmitInput{AttemptID: "a-1", Stage: assessment.StageCoding, Expired: true})
	require.NoError(t, err)
	assert.Equal(t, 42.0, submission.Score)
}

/*
TestBackendSource_Resume verifies a missing resume is not an error.
*/
func TestBackendSource_Resume(t *testing.T) {
	source := newBackendSource(t, func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusNotFound)
	})

	resume, err := source.Resume(context.Background())
	require.NoError(t, err)
	assert.Nil(t, resume)
}
