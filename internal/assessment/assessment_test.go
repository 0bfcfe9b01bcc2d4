// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package assessment_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/taibuivan/talentgate/internal/assessment"
	"github.com/taibuivan/talentgate/internal/platform/apperr"
	"github.com/taibuivan/talentgate/internal/platform/clock"
	"github.com/taibuivan/talentgate/internal/platform/metrics"
	"github.com/taibuivan/talentgate/internal/platform/sec"
	"github.com/taibuivan/talentgate/internal/session"
)

var epoch = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func candidate(id string) session.Session {
	return session.Session{UserID: id, UserType: sec.RoleCandidate, AccessToken: "token-" + id}
}

func submittedAt() *time.Time {
	at := epoch.Add(-time.Hour)
	return &at
}

// fakeSubmissions is a programmable SubmissionSource.
type fakeSubmissions struct {
	mu        sync.Mutex
	latest    map[assessment.Stage]*assessment.Submission
	latestErr error
	score     float64
	submitErr error
	submitted []assessment.SubmitInput
	tokens    []string
	calls     int

	// duringSubmit runs once inside the next Submit, before it returns.
	duringSubmit func()
}

func newFakeSubmissions() *fakeSubmissions {
	return &fakeSubmissions{latest: map[assessment.Stage]*assessment.Submission{}}
}

func (f *fakeSubmissions) Latest(_ context.Context, stage assessment.Stage, _ string) (*assessment.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.latestErr != nil {
		return nil, f.latestErr
	}
	return f.latest[stage], nil
}

func (f *fakeSubmissions) Submit(ctx context.Context, input assessment.SubmitInput) (*assessment.Submission, error) {
	f.mu.Lock()
	f.submitted = append(f.submitted, input)
	f.tokens = append(f.tokens, session.Tokens{}.AccessToken(ctx))
	hook := f.duringSubmit
	f.duringSubmit = nil
	err, score := f.submitErr, f.score
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	at := epoch
	return &assessment.Submission{ID: "sub-" + input.AttemptID, Stage: input.Stage, Score: score, SubmittedAt: &at}, nil
}

// pass records a submitted score for stage.
func (f *fakeSubmissions) pass(stage assessment.Stage, score float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latest[stage] = &assessment.Submission{ID: "s-" + stage.String(), Stage: stage, Score: score, SubmittedAt: submittedAt()}
}

func (f *fakeSubmissions) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// staticResumes returns a fixed resume or error.
type staticResumes struct {
	resume *assessment.Resume
	err    error
}

func (s staticResumes) Resume(context.Context) (*assessment.Resume, error) {
	return s.resume, s.err
}

// memoryJournal is an in-memory Journal.
type memoryJournal struct {
	mu       sync.Mutex
	attempts map[string]*assessment.Attempt
	finished []string
	err      error
}

func newMemoryJournal() *memoryJournal {
	return &memoryJournal{attempts: map[string]*assessment.Attempt{}}
}

func (m *memoryJournal) CreateAttempt(_ context.Context, attempt *assessment.Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	copied := *attempt
	m.attempts[attempt.ID] = &copied
	return nil
}

func (m *memoryJournal) SaveAnswers(_ context.Context, id string, answers map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	attempt, ok := m.attempts[id]
	if !ok {
		return apperr.NotFound("Attempt")
	}
	attempt.Answers = answers
	return nil
}

func (m *memoryJournal) FinishAttempt(_ context.Context, attempt *assessment.Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *attempt
	m.attempts[attempt.ID] = &copied
	m.finished = append(m.finished, attempt.ID)
	return nil
}

func (m *memoryJournal) GetAttempt(_ context.Context, id string) (*assessment.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	attempt, ok := m.attempts[id]
	if !ok {
		return nil, apperr.NotFound("Attempt")
	}
	copied := *attempt
	return &copied, nil
}

func (m *memoryJournal) ListAttempts(_ context.Context, filter assessment.Filter, limit, offset int) ([]*assessment.Attempt, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*assessment.Attempt
	for _, attempt := range m.attempts {
		if attempt.CandidateID == filter.CandidateID && (filter.Stage == "" || attempt.Stage == filter.Stage) {
			copied := *attempt
			matched = append(matched, &copied)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	if offset >= total {
		return []*assessment.Attempt{}, total, nil
	}
	end := min(offset+limit, total)
	return matched[offset:end], total, nil
}

func (m *memoryJournal) get(id string) *assessment.Attempt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts[id]
}

type fixture struct {
	service     *assessment.Service
	submissions *fakeSubmissions
	journal     *memoryJournal
	clock       *clock.Fake
	metrics     *metrics.Registry
}

func newFixture() *fixture {
	f := &fixture{
		submissions: newFakeSubmissions(),
		journal:     newMemoryJournal(),
		clock:       clock.NewFake(epoch),
		metrics:     metrics.New(),
	}
	f.service = assessment.NewService(assessment.Options{
		Submissions:             f.submissions,
		Resumes:                 staticResumes{resume: &assessment.Resume{ID: "r-1", FileName: "cv.pdf"}},
		Journal:                 f.journal,
		Clock:                   f.clock,
		Metrics:                 f.metrics,
		MCQMinutes:              2,
		CodingMinutes:           3,
		WarningThresholdSeconds: 60,
	})
	return f
}

var errBackendDown = errors.New("backend down")
