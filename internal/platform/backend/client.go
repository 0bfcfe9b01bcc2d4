// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package backend is the REST client for the hiring platform backend.

Every call attaches the caller's bearer token and request ID, decodes the
backend's `{status, message, data}` envelope, and normalizes every failure
(transport, timeout, non-2xx status, undecodable body) into a single [*Error].
Callers never see raw transport errors.

Usage:

	client, err := backend.New(backend.Options{BaseURL: cfg.BackendBaseURL, Tokens: session.Tokens{}})
	var profile Profile
	err = client.Get(ctx, "/candidates/me/profile", nil, &profile)
*/
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/taibuivan/talentgate/internal/platform/constants"
	"github.com/taibuivan/talentgate/internal/platform/ctxutil"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// # Contracts

// TokenSource yields the bearer token for the request in ctx, or "".
type TokenSource interface {
	AccessToken(ctx context.Context) string
}

// TokenSourceFunc adapts a function to [TokenSource].
type TokenSourceFunc func(ctx context.Context) string

// AccessToken implements [TokenSource].
func (f TokenSourceFunc) AccessToken(ctx context.Context) string { return f(ctx) }

// Options configures a [Client].
type Options struct {
	// BaseURL is the backend root, e.g. https://api.example.com/v1.
	BaseURL string

	// Timeout bounds each call. Zero means 10s.
	Timeout time.Duration

	// Tokens supplies the bearer token. Nil sends anonymous requests.
	Tokens TokenSource

	// OnUnauthorized runs after any 401 response with the token that was rejected.
	OnUnauthorized func(ctx context.Context, token string)

	// HTTPClient overrides the transport (tests).
	HTTPClient *http.Client

	// Logger receives call diagnostics. Defaults to the context logger.
	Logger *slog.Logger
}

// Client performs JSON calls against the backend.
type Client struct {
	baseURL        *url.URL
	timeout        time.Duration
	tokens         TokenSource
	onUnauthorized func(ctx context.Context, token string)
	httpClient     *http.Client
	logger         *slog.Logger
}

// New validates options and returns a ready client.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend: invalid base URL %q", opts.BaseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		baseURL:        base,
		timeout:        timeout,
		tokens:         opts.Tokens,
		onUnauthorized: opts.OnUnauthorized,
		httpClient:     httpClient,
		logger:         opts.Logger,
	}, nil
}

// # Calls

// Get issues a GET with optional query parameters.
func (client *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return client.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST with a JSON body.
func (client *Client) Post(ctx context.Context, path string, in, out any) error {
	return client.Do(ctx, http.MethodPost, path, nil, in, out)
}

// Do performs one call. A non-nil out receives the envelope's data (or the whole body
// when the backend answers without an envelope).
func (client *Client) Do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	callCtx, cancel := context.WithTimeout(ctx, client.timeout)
	defer cancel()

	logger := client.log(ctx).With(slog.String("backend_method", method), slog.String("backend_path", path))
	startTime := time.Now()

	// ── 1. Build Request ──────────────────────────────────────────────────
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return &Error{Message: "Could not encode backend request", cause: err}
		}
		body = bytes.NewReader(payload)
	}

	request, err := http.NewRequestWithContext(callCtx, method, client.endpoint(path, query), body)
	if err != nil {
		return &Error{Message: "Could not build backend request", cause: err}
	}

	request.Header.Set("Accept", "application/json")
	if in != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if requestID := ctxutil.GetRequestID(ctx); requestID != "" {
		request.Header.Set(constants.HeaderXRequestID, requestID)
	}

	token := ""
	if client.tokens != nil {
		token = client.tokens.AccessToken(ctx)
	}
	if token != "" {
		request.Header.Set(constants.HeaderAuthorization, "Bearer "+token)
	}

	// ── 2. Transport ──────────────────────────────────────────────────────
	response, err := client.httpClient.Do(request)
	if err != nil {
		message := "Backend is unreachable"
		if errors.Is(err, context.DeadlineExceeded) {
			message = "Backend timed out"
		}
		logger.WarnContext(ctx, "backend_call_failed", slog.Any("error", err))
		return &Error{Message: message, cause: err}
	}
	defer response.Body.Close()

	logger.DebugContext(ctx, "backend_call_finished",
		slog.Int("status", response.StatusCode),
		slog.Int64("latency_ms", time.Since(startTime).Milliseconds()),
	)

	// ── 3. Error Normalization ────────────────────────────────────────────
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		callErr := decodeError(response)
		if response.StatusCode == http.StatusUnauthorized && client.onUnauthorized != nil && token != "" {
			client.onUnauthorized(ctx, token)
		}
		logger.WarnContext(ctx, "backend_call_rejected",
			slog.Int("status", callErr.Status),
			slog.String("message", callErr.Message),
		)
		return callErr
	}

	// ── 4. Success Decoding ───────────────────────────────────────────────
	if out == nil || response.StatusCode == http.StatusNoContent {
		return nil
	}

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return &Error{Status: response.StatusCode, Message: "Could not read backend response", cause: err}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	if err := decodeData(raw, out); err != nil {
		return &Error{Status: response.StatusCode, Message: "Backend returned an unexpected payload", cause: err}
	}
	return nil
}

func (client *Client) endpoint(path string, query url.Values) string {
	target := *client.baseURL
	target.Path = client.baseURL.Path + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}
	return target.String()
}

func (client *Client) log(ctx context.Context) *slog.Logger {
	if client.logger != nil {
		return client.logger
	}
	return ctxutil.GetLogger(ctx)
}

// # Envelope Decoding

type envelope struct {
	Status  json.RawMessage `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// decodeData unwraps `{data: ...}` when present, otherwise decodes the whole body.
func decodeData(raw []byte, out any) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Data != nil {
		return json.Unmarshal(env.Data, out)
	}
	return json.Unmarshal(raw, out)
}

func decodeError(response *http.Response) *Error {
	callErr := &Error{Status: response.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBody))
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil {
		callErr.Message = env.Message
		callErr.Data = env.Data
	}

	if callErr.Message == "" {
		callErr.Message = http.StatusText(response.StatusCode)
	}
	return callErr
}
