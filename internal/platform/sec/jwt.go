// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides role normalization and access-token inspection.
//
// # Architecture
//
// Access tokens are issued by the hiring backend. The portal never mints
// production tokens; it only reads the claims it needs to route a request
// (user id, role, expiry). When a shared secret is configured the signature
// is verified, otherwise the backend remains the sole authority and the
// portal parses the claims without verification.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenExpired is returned when the token's exp claim is in the past.
var ErrTokenExpired = errors.New("sec: token expired")

// AccessClaims represents the payload embedded inside a backend access token.
type AccessClaims struct {
	jwt.RegisteredClaims

	UserID   string `json:"uid,omitempty"`
	UserType string `json:"user_type"`
}

// Subject returns the user identifier, preferring the explicit uid claim.
func (c *AccessClaims) Subject() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.RegisteredClaims.Subject
}

// TokenVerifier reads backend-issued HS256 access tokens.
type TokenVerifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewTokenVerifier creates a verifier. An empty secret disables signature checks.
func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Verify parses tokenString and returns its claims.
func (verifier *TokenVerifier) Verify(tokenString string) (*AccessClaims, error) {
	if len(verifier.secret) == 0 {
		return verifier.parseUnverified(tokenString)
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(verifier.now),
	}
	if verifier.issuer != "" {
		options = append(options, jwt.WithIssuer(verifier.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		return verifier.secret, nil
	}, options...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("sec: invalid token: %w", err)
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("sec: invalid token claims")
	}

	return claims, nil
}

// parseUnverified decodes claims without a signature check but still honours exp.
func (verifier *TokenVerifier) parseUnverified(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("sec: malformed token: %w", err)
	}

	if claims.ExpiresAt != nil && !verifier.now().Before(claims.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}

	return claims, nil
}

// Sign issues an HS256 token with the verifier's secret.
//
// It exists for local development and tests; production tokens come from the backend.
func (verifier *TokenVerifier) Sign(userID string, role Role, timeToLive time.Duration) (string, error) {
	if len(verifier.secret) == 0 {
		return "", errors.New("sec: signing requires a secret")
	}

	currentTime := verifier.now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    verifier.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		UserID:   userID,
		UserType: string(role),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(verifier.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}
	return signed, nil
}
