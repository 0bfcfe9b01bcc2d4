// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package assessment runs the candidate assessment sequence.

The sequence is fixed: MCQ, coding introduction, coding test, completion.
Scored stages (MCQ and coding) are gated on the candidate's latest submission;
a score below [PassCutoff] sends the candidate to the feedback screen of that
stage instead of advancing.

Components:

  - Gate: pure navigation decision for a (stage, score) pair.
  - Service: stage entry, timed attempts and the attempt journal.
  - Handler / PageHandler: JSON API and guarded page routes.
*/
package assessment

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// PassCutoff is the minimum score that advances a stage. It is inclusive.
const PassCutoff = 60.0

// Stage is one step of the assessment sequence.
type Stage string

const (
	StageMCQ         Stage = "mcq"
	StageCodingIntro Stage = "coding-intro"
	StageCoding      Stage = "coding"
	StageComplete    Stage = "complete"
)

// sequence is the fixed stage order.
var sequence = []Stage{StageMCQ, StageCodingIntro, StageCoding, StageComplete}

// # Paths

const (
	basePath     = "/candidate/assessment/"
	feedbackPath = basePath + "feedback"
)

// ParseStage converts a URL segment or query value into a Stage.
func ParseStage(raw string) (Stage, bool) {
	candidate := Stage(strings.ToLower(strings.TrimSpace(raw)))
	for _, stage := range sequence {
		if stage == candidate {
			return stage, true
		}
	}
	return "", false
}

// String implements fmt.Stringer.
func (s Stage) String() string { return string(s) }

// Scored reports whether the stage produces a submission with a score.
func (s Stage) Scored() bool {
	return s == StageMCQ || s == StageCoding
}

// Next returns the stage that follows s. The completion stage has no successor.
func (s Stage) Next() (Stage, bool) {
	for i, stage := range sequence {
		if stage == s && i+1 < len(sequence) {
			return sequence[i+1], true
		}
	}
	return "", false
}

// Prerequisite returns the scored stage that must be passed before s.
func (s Stage) Prerequisite() (Stage, bool) {
	for i := slices.Index(sequence, s) - 1; i >= 0; i-- {
		if sequence[i].Scored() {
			return sequence[i], true
		}
	}
	return "", false
}

// Path is the page path of the stage.
func (s Stage) Path() string {
	return basePath + string(s)
}

// Location is the page path of the stage with the role track carried along.
func (s Stage) Location(track string) string {
	return locate(s.Path(), url.Values{}, track)
}

// FeedbackPath is the feedback page for a failed stage.
func FeedbackPath(stage Stage, score float64, track string) string {
	query := url.Values{}
	query.Set("stage", string(stage))
	query.Set("score", FormatScore(score))
	return locate(feedbackPath, query, track)
}

// RetryPath opens a failed stage for another attempt instead of gating it again.
func RetryPath(stage Stage, track string) string {
	query := url.Values{}
	query.Set("retry", "1")
	return locate(stage.Path(), query, track)
}

func locate(path string, query url.Values, track string) string {
	if track = strings.TrimSpace(track); track != "" {
		query.Set("track", track)
	}
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}

// FormatScore renders a score without trailing zeros (60, 59.5).
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

// # Gate

// Outcome is the result of gating a score.
type Outcome string

const (
	OutcomeAdvance  Outcome = "advance"
	OutcomeFeedback Outcome = "feedback"
	// OutcomeRequired sends the candidate back to a stage not yet submitted.
	OutcomeRequired Outcome = "required"
)

// Navigation is where the candidate goes after a scored stage.
type Navigation struct {
	Outcome  Outcome `json:"outcome"`
	Stage    Stage   `json:"stage"`
	Score    float64 `json:"score"`
	Location string  `json:"location"`
}

/*
Gate decides where a candidate goes after scoring on stage.

A score at or above [PassCutoff] advances to the next stage. A lower score
leads to the feedback screen parameterized with the failed stage and score.
The role track travels in every location so the next screen can load its data.
Gate is pure; the same input always yields the same navigation.
*/
func Gate(stage Stage, score float64, track string) Navigation {
	if score >= PassCutoff {
		next, ok := stage.Next()
		if !ok {
			next = StageComplete
		}
		return Navigation{Outcome: OutcomeAdvance, Stage: next, Score: score, Location: next.Location(track)}
	}

	return Navigation{Outcome: OutcomeFeedback, Stage: stage, Score: score, Location: FeedbackPath(stage, score, track)}
}
