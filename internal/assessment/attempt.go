// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package assessment

import (
	"context"
	"time"
)

// Status is the lifecycle state of a timed attempt.
type Status string

const (
	StatusActive    Status = "active"
	StatusSubmitted Status = "submitted"
	StatusExpired   Status = "expired"
	StatusAbandoned Status = "abandoned"
)

// Attempt is one timed sitting of a scored stage.
type Attempt struct {
	ID          string            `json:"id"`
	CandidateID string            `json:"candidate_id"`
	Stage       Stage             `json:"stage"`
	Track       string            `json:"track"`
	Status      Status            `json:"status"`
	Answers     map[string]string `json:"answers"`
	Score       *float64          `json:"score,omitempty"`
	Outcome     Outcome           `json:"outcome,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	DeadlineAt  time.Time         `json:"deadline_at"`
	FinishedAt  *time.Time        `json:"finished_at,omitempty"`
}

// Finished reports whether the attempt reached a terminal status.
func (a *Attempt) Finished() bool {
	return a.Status != StatusActive
}

// Filter narrows the journal listing.
type Filter struct {
	CandidateID string
	Stage       Stage
}

// Journal persists attempts for audit and resumption.
type Journal interface {
	CreateAttempt(ctx context.Context, attempt *Attempt) error
	SaveAnswers(ctx context.Context, id string, answers map[string]string) error
	FinishAttempt(ctx context.Context, attempt *Attempt) error
	GetAttempt(ctx context.Context, id string) (*Attempt, error)
	ListAttempts(ctx context.Context, filter Filter, limit, offset int) ([]*Attempt, int, error)
}
