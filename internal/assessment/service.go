// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package assessment

import (
	"context"
	"log/slog"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/talentgate/internal/platform/apperr"
	"github.com/taibuivan/talentgate/internal/platform/clock"
	"github.com/taibuivan/talentgate/internal/platform/ctxutil"
	"github.com/taibuivan/talentgate/internal/platform/metrics"
	"github.com/taibuivan/talentgate/internal/platform/validate"
	"github.com/taibuivan/talentgate/internal/session"
	"github.com/taibuivan/talentgate/internal/timer"
	"github.com/taibuivan/talentgate/pkg/uuid"
)

// Request field names used in validation details.
const (
	FieldStage   = "stage"
	FieldTrack   = "track"
	FieldAnswers = "answers"
)

// MaxAnswers bounds the number of answers stored per attempt.
const MaxAnswers = 500

// Options wires the assessment service.
type Options struct {
	Submissions SubmissionSource
	Resumes     ResumeSource
	Journal     Journal
	Clock       clock.Clock
	Metrics     *metrics.Registry
	Logger      *slog.Logger

	MCQMinutes              int
	CodingMinutes           int
	WarningThresholdSeconds int
}

// Service implements stage entry and the timed attempt lifecycle.
type Service struct {
	opts Options

	mu   sync.Mutex
	live map[string]*liveAttempt
	// active maps candidate+stage to the running attempt id
	active map[string]string
}

// liveAttempt is an attempt whose countdown is still owned by the service.
type liveAttempt struct {
	attempt   *Attempt
	countdown *timer.Countdown
	owner     session.Session
	finishing bool
}

// NewService creates the assessment service.
func NewService(opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.WarningThresholdSeconds <= 0 {
		opts.WarningThresholdSeconds = timer.DefaultWarningThreshold
	}

	return &Service{
		opts:   opts,
		live:   make(map[string]*liveAttempt),
		active: make(map[string]string),
	}
}

// Minutes returns the time limit of a scored stage. Zero disables the timer.
func (service *Service) Minutes(stage Stage) int {
	switch stage {
	case StageMCQ:
		return service.opts.MCQMinutes
	case StageCoding:
		return service.opts.CodingMinutes
	default:
		return 0
	}
}

// # Stage Entry

// ViewKind is what a stage screen shows on entry.
type ViewKind string

const (
	ViewInfo            ViewKind = "info"
	ViewDataUnavailable ViewKind = "data_unavailable"
	ViewAttempt         ViewKind = "attempt"
	ViewRedirect        ViewKind = "redirect"
)

// EnterInput identifies the candidate and the precondition data of a stage.
//
// Retry opens a failed stage for another attempt; a passed stage still redirects.
type EnterInput struct {
	CandidateID string
	Stage       Stage
	Track       string
	Resume      *Resume
	Retry       bool
}

// StageView is the entry decision for a stage screen.
type StageView struct {
	Kind        ViewKind    `json:"view"`
	Stage       Stage       `json:"stage"`
	Missing     []string    `json:"missing,omitempty"`
	FetchFailed bool        `json:"fetch_failed,omitempty"`
	Message     string      `json:"message,omitempty"`
	Navigation  *Navigation `json:"navigation,omitempty"`
	Minutes     int         `json:"minutes,omitempty"`
	AttemptID   string      `json:"attempt_id,omitempty"`
}

// FetchFailedMessage is shown when the previous submission could not be loaded.
const FetchFailedMessage = "We could not load your previous submission. You can start a fresh attempt."

/*
Enter decides what a stage screen shows.

Description: The decision is recomputed on every entry from the latest
submission and has no side effects, so re-entering a passed stage only
re-renders the redirect.

# Flow
 1. Unscored stages render as information screens.
 2. Missing track or resume blocks the stage before any network call.
 3. The stage before this one must be passed; otherwise the candidate is sent
    back to it (or to its feedback screen).
 4. The latest submission is fetched. A failure is logged and a fresh attempt
    is offered, never an advance.
 5. No submitted submission offers the quiz. Otherwise the score is gated; a
    retry of a failed stage offers the quiz with the gate attached.
*/
func (service *Service) Enter(ctx context.Context, input EnterInput) StageView {
	view := StageView{Stage: input.Stage}

	// ── 1. Unscored Stages ────────────────────────────────────────────────
	if !input.Stage.Scored() {
		view.Kind = ViewInfo
		return view
	}

	// ── 2. Preconditions ──────────────────────────────────────────────────
	if strings.TrimSpace(input.Track) == "" {
		view.Missing = append(view.Missing, FieldTrack)
	}
	if input.Resume == nil {
		view.Missing = append(view.Missing, "resume")
	}
	if len(view.Missing) > 0 {
		view.Kind = ViewDataUnavailable
		view.Message = "Select a role track and upload your resume before starting this assessment."
		return view
	}

	// ── 3. Prerequisite ───────────────────────────────────────────────────
	back, err := service.prerequisite(ctx, input.Stage, input.Track)
	if err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "assessment_prerequisite_fetch_failed",
			slog.String("stage", input.Stage.String()),
			slog.Any("error", err),
		)
		prior, _ := input.Stage.Prerequisite()
		back = &Navigation{Outcome: OutcomeRequired, Stage: prior, Location: prior.Location(input.Track)}
	}
	if back != nil {
		view.Kind = ViewRedirect
		view.Navigation = back
		return view
	}

	view.Minutes = service.Minutes(input.Stage)
	view.AttemptID = service.activeAttemptID(input.CandidateID, input.Stage)

	// ── 4. Latest Submission ──────────────────────────────────────────────
	latest, err := service.opts.Submissions.Latest(ctx, input.Stage, input.Track)
	if err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "assessment_submission_fetch_failed",
			slog.String("stage", input.Stage.String()),
			slog.Any("error", err),
		)
		view.Kind = ViewAttempt
		view.FetchFailed = true
		view.Message = FetchFailedMessage
		return view
	}

	// ── 5. Gate ───────────────────────────────────────────────────────────
	if !latest.Submitted() {
		view.Kind = ViewAttempt
		return view
	}

	navigation := Gate(input.Stage, latest.Score, input.Track)
	if input.Retry && navigation.Outcome == OutcomeFeedback {
		view.Kind = ViewAttempt
		view.Navigation = &navigation
		return view
	}
	view.Kind = ViewRedirect
	view.Navigation = &navigation
	view.AttemptID = ""
	return view
}

/*
prerequisite checks the scored stage that precedes stage.

Returns:
  - *Navigation: nil once that stage is passed, else where the candidate goes back to
  - error: The backend failure while fetching its latest submission
*/
func (service *Service) prerequisite(ctx context.Context, stage Stage, track string) (*Navigation, error) {
	prior, ok := stage.Prerequisite()
	if !ok {
		return nil, nil
	}

	latest, err := service.opts.Submissions.Latest(ctx, prior, track)
	if err != nil {
		return nil, err
	}
	if !latest.Submitted() {
		return &Navigation{Outcome: OutcomeRequired, Stage: prior, Location: prior.Location(track)}, nil
	}

	navigation := Gate(prior, latest.Score, track)
	if navigation.Outcome == OutcomeAdvance {
		return nil, nil
	}
	return &navigation, nil
}

// LoadResume returns the candidate's resume, or nil when it is missing or unreadable.
func (service *Service) LoadResume(ctx context.Context) *Resume {
	if service.opts.Resumes == nil {
		return nil
	}

	resume, err := service.opts.Resumes.Resume(ctx)
	if err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "assessment_resume_fetch_failed", slog.Any("error", err))
		return nil
	}
	return resume
}

// # Feedback

// FeedbackView is the screen shown after a failed stage.
type FeedbackView struct {
	Stage     Stage           `json:"stage"`
	Score     float64         `json:"score"`
	Cutoff    float64         `json:"cutoff"`
	Passed    bool            `json:"passed"`
	RetryPath string          `json:"retry_path"`
	Correct   int             `json:"correct"`
	Total     int             `json:"total"`
	Questions []QuestionState `json:"questions,omitempty"`
}

// Feedback builds the feedback screen. The per-question summary is included
// when the latest submission of the stage is available.
func (service *Service) Feedback(ctx context.Context, stage Stage, score float64, track string) FeedbackView {
	view := FeedbackView{
		Stage:     stage,
		Score:     score,
		Cutoff:    PassCutoff,
		Passed:    score >= PassCutoff,
		RetryPath: RetryPath(stage, track),
	}

	latest, err := service.opts.Submissions.Latest(ctx, stage, track)
	if err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "assessment_feedback_summary_unavailable", slog.Any("error", err))
		return view
	}
	if !latest.Submitted() {
		return view
	}

	view.Questions = latest.Questions
	view.Total = len(latest.Questions)
	for _, question := range latest.Questions {
		if question.Correct {
			view.Correct++
		}
	}
	return view
}

// # Timed Attempts

func activeKey(candidateID string, stage Stage) string {
	return candidateID + "|" + string(stage)
}

func (service *Service) activeAttemptID(candidateID string, stage Stage) string {
	service.mu.Lock()
	defer service.mu.Unlock()
	return service.active[activeKey(candidateID, stage)]
}

// AttemptView is an attempt together with its live timer.
type AttemptView struct {
	Attempt *Attempt     `json:"attempt"`
	Timer   *timer.State `json:"timer,omitempty"`
}

/*
StartAttempt opens a timed attempt for a scored stage.

Description: A candidate has at most one running attempt per stage. Starting
again returns the running attempt instead of resetting its timer. A new
attempt needs the previous scored stage passed. The attempt is journaled
before the countdown starts; on expiry the saved answers are submitted
automatically.
*/
func (service *Service) StartAttempt(ctx context.Context, owner session.Session, stage Stage, track string) (AttemptView, error) {
	validator := &validate.Validator{}
	validator.Custom(FieldStage, !stage.Scored(), "Stage is not timed").
		Required(FieldTrack, strings.TrimSpace(track))
	if err := validator.Err(); err != nil {
		return AttemptView{}, err
	}

	// ── 1. Resume a running attempt ───────────────────────────────────────
	key := activeKey(owner.UserID, stage)
	service.mu.Lock()
	if id, ok := service.active[key]; ok {
		view := service.viewLocked(service.live[id])
		service.mu.Unlock()
		return view, nil
	}
	service.mu.Unlock()

	// ── 2. Prerequisite ───────────────────────────────────────────────────
	back, err := service.prerequisite(ctx, stage, track)
	if err != nil {
		return AttemptView{}, err
	}
	if back != nil {
		return AttemptView{}, apperr.Unprocessable("Pass the " + back.Stage.String() + " stage before starting this one")
	}

	// ── 3. Journal ────────────────────────────────────────────────────────
	now := service.opts.Clock.Now().UTC()
	minutes := service.Minutes(stage)
	attempt := &Attempt{
		ID:          uuid.New(),
		CandidateID: owner.UserID,
		Stage:       stage,
		Track:       strings.TrimSpace(track),
		Status:      StatusActive,
		Answers:     map[string]string{},
		StartedAt:   now,
		DeadlineAt:  now.Add(time.Duration(minutes) * time.Minute),
	}
	if err := service.opts.Journal.CreateAttempt(ctx, attempt); err != nil {
		return AttemptView{}, err
	}

	// ── 4. Countdown ──────────────────────────────────────────────────────
	attemptID := attempt.ID
	countdown := timer.New(minutes,
		timer.WithClock(service.opts.Clock),
		timer.WithWarningThreshold(service.opts.WarningThresholdSeconds),
		timer.WithOnWarning(func() {
			service.opts.Logger.Info("assessment_timer_warning", slog.String("attempt_id", attemptID))
		}),
		timer.WithOnExpire(func() { service.expire(attemptID) }),
	)

	service.mu.Lock()
	if id, ok := service.active[key]; ok {
		// A concurrent start won; the journaled duplicate is closed out.
		view := service.viewLocked(service.live[id])
		service.mu.Unlock()
		countdown.Close()
		service.abandonRecord(ctx, attempt)
		return view, nil
	}
	live := &liveAttempt{attempt: attempt, countdown: countdown, owner: owner}
	service.live[attempt.ID] = live
	service.active[key] = attempt.ID
	if service.opts.Metrics != nil {
		service.opts.Metrics.ActiveAttempts.Inc()
	}
	service.mu.Unlock()

	countdown.Start()

	ctxutil.GetLogger(ctx).InfoContext(ctx, "assessment_attempt_started",
		slog.String("attempt_id", attempt.ID),
		slog.String("stage", stage.String()),
		slog.Int("minutes", minutes),
	)

	service.mu.Lock()
	defer service.mu.Unlock()
	return service.viewLocked(live), nil
}

// viewLocked copies the attempt so callers never share the live map.
func (service *Service) viewLocked(live *liveAttempt) AttemptView {
	attempt := *live.attempt
	attempt.Answers = maps.Clone(live.attempt.Answers)
	state := live.countdown.Snapshot()
	return AttemptView{Attempt: &attempt, Timer: &state}
}

// GetAttempt returns an attempt of the candidate, with its timer while running.
func (service *Service) GetAttempt(ctx context.Context, candidateID, id string) (AttemptView, error) {
	service.mu.Lock()
	if live, ok := service.live[id]; ok && live.attempt.CandidateID == candidateID {
		view := service.viewLocked(live)
		service.mu.Unlock()
		return view, nil
	}
	service.mu.Unlock()

	attempt, err := service.opts.Journal.GetAttempt(ctx, id)
	if err != nil {
		return AttemptView{}, err
	}
	if attempt.CandidateID != candidateID {
		return AttemptView{}, apperr.NotFound("Attempt")
	}
	return AttemptView{Attempt: attempt}, nil
}

// ListAttempts pages through the candidate's journaled attempts.
func (service *Service) ListAttempts(ctx context.Context, filter Filter, limit, offset int) ([]*Attempt, int, error) {
	return service.opts.Journal.ListAttempts(ctx, filter, limit, offset)
}

// Timer returns the live timer of a running attempt.
func (service *Service) Timer(candidateID, id string) (timer.State, bool) {
	service.mu.Lock()
	defer service.mu.Unlock()

	live, ok := service.live[id]
	if !ok || live.attempt.CandidateID != candidateID {
		return timer.State{}, false
	}
	return live.countdown.Snapshot(), true
}

// SaveAnswers merges draft answers into a running attempt.
func (service *Service) SaveAnswers(ctx context.Context, candidateID, id string, answers map[string]string) (AttemptView, error) {
	validator := &validate.Validator{}
	validator.Custom(FieldAnswers, len(answers) == 0, "At least one answer is required").
		Custom(FieldAnswers, len(answers) > MaxAnswers, "Too many answers")
	if err := validator.Err(); err != nil {
		return AttemptView{}, err
	}

	service.mu.Lock()
	live, err := service.lookupLocked(candidateID, id)
	if err != nil {
		service.mu.Unlock()
		return AttemptView{}, err
	}
	merged := maps.Clone(live.attempt.Answers)
	maps.Copy(merged, answers)
	service.mu.Unlock()

	if err := service.opts.Journal.SaveAnswers(ctx, id, merged); err != nil {
		return AttemptView{}, err
	}

	service.mu.Lock()
	defer service.mu.Unlock()
	if live.finishing || live.attempt.Finished() {
		return AttemptView{}, apperr.Conflict("Attempt is already finished")
	}
	live.attempt.Answers = merged
	return service.viewLocked(live), nil
}

// SubmitResult is a finished attempt and where the candidate goes next.
type SubmitResult struct {
	Attempt    *Attempt   `json:"attempt"`
	Navigation Navigation `json:"navigation"`
}

/*
Submit sends the attempt's answers to the backend and gates the score.

A backend failure leaves the attempt running so the candidate can retry
before the deadline. If the deadline passed during the call, the attempt is
auto-submitted as expired instead.
*/
func (service *Service) Submit(ctx context.Context, candidateID, id string) (SubmitResult, error) {
	live, answers, err := service.claim(candidateID, id)
	if err != nil {
		return SubmitResult{}, err
	}

	submission, err := service.opts.Submissions.Submit(ctx, SubmitInput{
		AttemptID: id,
		Stage:     live.attempt.Stage,
		Track:     live.attempt.Track,
		Answers:   answers,
	})
	if err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "assessment_submit_failed", slog.String("attempt_id", id), slog.Any("error", err))
		service.release(live)
		return SubmitResult{}, err
	}

	attempt := service.finish(ctx, live, StatusSubmitted, &submission.Score)
	navigation := Gate(attempt.Stage, submission.Score, attempt.Track)
	return SubmitResult{Attempt: attempt, Navigation: navigation}, nil
}

// Abandon closes a running attempt when the candidate leaves the screen.
func (service *Service) Abandon(ctx context.Context, candidateID, id string) error {
	live, _, err := service.claim(candidateID, id)
	if err != nil {
		return err
	}
	service.finish(ctx, live, StatusAbandoned, nil)
	return nil
}

// expire auto-submits the saved answers of an attempt whose countdown ran out.
//
// A submit in flight owns the attempt; if it fails, release runs the expiry.
func (service *Service) expire(id string) {
	service.mu.Lock()
	live, ok := service.live[id]
	if !ok || live.finishing {
		service.mu.Unlock()
		return
	}
	live.finishing = true
	service.mu.Unlock()

	service.autoSubmit(live)
}

// autoSubmit submits an expired attempt. The caller has claimed it.
func (service *Service) autoSubmit(live *liveAttempt) {
	service.mu.Lock()
	id := live.attempt.ID
	answers := maps.Clone(live.attempt.Answers)
	owner := live.owner
	service.mu.Unlock()

	// The request that started the attempt is gone; rebuild a context carrying
	// the candidate's token for the backend call.
	logger := service.opts.Logger.With(slog.String("attempt_id", id))
	ctx := ctxutil.WithLogger(session.WithSession(context.Background(), owner), logger)

	if service.opts.Metrics != nil {
		service.opts.Metrics.TimerExpired.WithLabelValues(live.attempt.Stage.String()).Inc()
	}

	var score *float64
	submission, err := service.opts.Submissions.Submit(ctx, SubmitInput{
		AttemptID: id,
		Stage:     live.attempt.Stage,
		Track:     live.attempt.Track,
		Answers:   answers,
		Expired:   true,
	})
	if err != nil {
		logger.Error("assessment_auto_submit_failed", slog.Any("error", err))
	} else {
		score = &submission.Score
	}

	service.finish(ctx, live, StatusExpired, score)
}

// claim marks a running attempt as finishing so only one of submit, abandon
// and expiry proceeds.
func (service *Service) claim(candidateID, id string) (*liveAttempt, map[string]string, error) {
	service.mu.Lock()
	defer service.mu.Unlock()

	live, err := service.lookupLocked(candidateID, id)
	if err != nil {
		return nil, nil, err
	}
	live.finishing = true
	return live, maps.Clone(live.attempt.Answers), nil
}

// release reopens an attempt after a failed submit. A countdown that ran out
// in the meantime was skipped by expire, so the expiry runs here instead.
func (service *Service) release(live *liveAttempt) {
	service.mu.Lock()
	expired := live.countdown.Snapshot().Expired
	if !expired {
		live.finishing = false
	}
	service.mu.Unlock()

	if expired {
		service.autoSubmit(live)
	}
}

func (service *Service) lookupLocked(candidateID, id string) (*liveAttempt, error) {
	live, ok := service.live[id]
	if !ok || live.attempt.CandidateID != candidateID {
		return nil, apperr.NotFound("Attempt")
	}
	if live.finishing {
		return nil, apperr.Conflict("Attempt is already finishing")
	}
	return live, nil
}

// finish stops the countdown, records the terminal status and forgets the attempt.
func (service *Service) finish(ctx context.Context, live *liveAttempt, status Status, score *float64) *Attempt {
	live.countdown.Close()

	service.mu.Lock()
	finishedAt := service.opts.Clock.Now().UTC()
	live.attempt.Status = status
	live.attempt.FinishedAt = &finishedAt
	live.attempt.Score = score
	if score != nil {
		live.attempt.Outcome = Gate(live.attempt.Stage, *score, live.attempt.Track).Outcome
	}
	attempt := *live.attempt
	attempt.Answers = maps.Clone(live.attempt.Answers)

	delete(service.live, attempt.ID)
	if service.active[activeKey(attempt.CandidateID, attempt.Stage)] == attempt.ID {
		delete(service.active, activeKey(attempt.CandidateID, attempt.Stage))
	}
	service.mu.Unlock()

	if service.opts.Metrics != nil {
		service.opts.Metrics.ActiveAttempts.Dec()
		if attempt.Outcome != "" {
			service.opts.Metrics.AssessmentGate.WithLabelValues(attempt.Stage.String(), string(attempt.Outcome)).Inc()
		}
	}

	if err := service.opts.Journal.FinishAttempt(ctx, &attempt); err != nil {
		ctxutil.GetLogger(ctx).ErrorContext(ctx, "assessment_journal_finish_failed",
			slog.String("attempt_id", attempt.ID),
			slog.Any("error", err),
		)
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "assessment_attempt_finished",
		slog.String("attempt_id", attempt.ID),
		slog.String("status", string(status)),
	)
	return &attempt
}

// abandonRecord closes a journaled attempt that never got a countdown.
func (service *Service) abandonRecord(ctx context.Context, attempt *Attempt) {
	finishedAt := service.opts.Clock.Now().UTC()
	attempt.Status = StatusAbandoned
	attempt.FinishedAt = &finishedAt
	if err := service.opts.Journal.FinishAttempt(ctx, attempt); err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "assessment_journal_finish_failed", slog.Any("error", err))
	}
}

// Close stops every running countdown. Attempts stay active in the journal.
func (service *Service) Close() {
	service.mu.Lock()
	defer service.mu.Unlock()

	for _, live := range service.live {
		live.countdown.Close()
	}
}
