// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Security: cookie names and redis key prefixes.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "talentgate-portal"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderRefresh       = "Refresh"
	HeaderAuthorization = "Authorization"
)

// # Cookies

const (
	// AccessTokenCookieName holds the backend-issued bearer token.
	AccessTokenCookieName = "access_token"

	// DeviceCookieName identifies a browser across anonymous and authenticated visits.
	DeviceCookieName = "device_id"

	// DeviceCookieMaxAge keeps the device identifier for a year.
	DeviceCookieMaxAge = 365 * 24 * time.Hour
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldItems   = "items"
	FieldTotal   = "total"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # Database Schemas

const (
	SchemaPortal = "portal"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixSession  = "portal:session:"
	RedisPrefixRevoked  = "portal:revoked:"
	RedisPrefixRolePref = "portal:role_pref:"
	RedisPrefixNotice   = "portal:notice:"
	RedisPrefixPayment  = "portal:payment:"
)

// # Redis Expirations

const (
	// RolePreferenceTTL keeps a device's last chosen role for a quarter.
	RolePreferenceTTL = 90 * 24 * time.Hour

	// NoticeTTL bounds how long an undelivered toast stays queued.
	NoticeTTL = 10 * time.Minute

	// NoticeMaxQueueLength caps the per-device toast queue.
	NoticeMaxQueueLength = 20

	// PaymentOutcomeTTL is how long a reconciled checkout result is cached.
	PaymentOutcomeTTL = 24 * time.Hour

	// RevokedTokenMinimumTTL applies when a revoked token has no readable expiry.
	RevokedTokenMinimumTTL = time.Hour
)
