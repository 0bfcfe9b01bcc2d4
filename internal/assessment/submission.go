// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package assessment

import (
	"context"
	"net/url"
	"time"

	"github.com/taibuivan/talentgate/internal/platform/backend"
)

// QuestionState is the graded state of one question in a submission.
type QuestionState struct {
	QuestionID string `json:"question_id"`
	Prompt     string `json:"prompt,omitempty"`
	Answer     string `json:"answer,omitempty"`
	Correct    bool   `json:"correct"`
}

// Submission is a scored stage submission held by the backend.
//
// A submission without SubmittedAt is a draft and never gates.
type Submission struct {
	ID          string          `json:"id"`
	Stage       Stage           `json:"stage"`
	Track       string          `json:"track,omitempty"`
	Score       float64         `json:"score"`
	Questions   []QuestionState `json:"questions,omitempty"`
	SubmittedAt *time.Time      `json:"submitted_at,omitempty"`
}

// Submitted reports whether the submission counts for gating.
func (s *Submission) Submitted() bool {
	return s != nil && s.SubmittedAt != nil && !s.SubmittedAt.IsZero()
}

// SubmitInput is the payload of a new submission.
type SubmitInput struct {
	AttemptID string            `json:"attempt_id"`
	Stage     Stage             `json:"stage"`
	Track     string            `json:"track"`
	Answers   map[string]string `json:"answers"`
	Expired   bool              `json:"expired"`
}

// Resume is the profile payload a stage needs before it can start.
type Resume struct {
	ID       string   `json:"id"`
	FileName string   `json:"file_name"`
	Skills   []string `json:"skills,omitempty"`
}

// SubmissionSource reads and writes submissions on the backend.
type SubmissionSource interface {
	// Latest returns the most recent submission for the stage, or nil when none exists.
	Latest(ctx context.Context, stage Stage, track string) (*Submission, error)
	Submit(ctx context.Context, input SubmitInput) (*Submission, error)
}

// ResumeSource loads the candidate's resume. A nil resume means none is on file.
type ResumeSource interface {
	Resume(ctx context.Context) (*Resume, error)
}

// # Backend Adapter

const (
	pathLatestSubmission = "/submissions/latest"
	pathSubmissions      = "/submissions"
	pathResume           = "/candidates/me/resume"
)

// BackendClient is the subset of the REST client used by the adapters.
type BackendClient interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, in, out any) error
}

// BackendSource implements [SubmissionSource] and [ResumeSource] on the hiring backend.
//
// The candidate is identified by the bearer token of the request context.
type BackendSource struct {
	client BackendClient
}

// NewBackendSource creates the backend adapter.
func NewBackendSource(client BackendClient) *BackendSource {
	return &BackendSource{client: client}
}

// Latest implements [SubmissionSource]. A backend 404 means no submission yet.
func (source *BackendSource) Latest(ctx context.Context, stage Stage, track string) (*Submission, error) {
	query := url.Values{}
	query.Set("stage", string(stage))
	if track != "" {
		query.Set("track", track)
	}

	var submission Submission
	if err := source.client.Get(ctx, pathLatestSubmission, query, &submission); err != nil {
		if backend.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if submission.ID == "" {
		return nil, nil
	}
	return &submission, nil
}

// Submit implements [SubmissionSource].
func (source *BackendSource) Submit(ctx context.Context, input SubmitInput) (*Submission, error) {
	var submission Submission
	if err := source.client.Post(ctx, pathSubmissions, input, &submission); err != nil {
		return nil, err
	}
	return &submission, nil
}

// Resume implements [ResumeSource].
func (source *BackendSource) Resume(ctx context.Context) (*Resume, error) {
	var resume Resume
	if err := source.client.Get(ctx, pathResume, nil, &resume); err != nil {
		if backend.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if resume.ID == "" {
		return nil, nil
	}
	return &resume, nil
}
