// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema names the tables and columns of the portal database.
package schema

import "strings"

// AssessmentAttemptTable represents the 'portal.assessment_attempt' table
type AssessmentAttemptTable struct {
	Table       string
	ID          string
	CandidateID string
	Stage       string
	Track       string
	Status      string
	Answers     string
	Score       string
	Outcome     string
	StartedAt   string
	DeadlineAt  string
	FinishedAt  string
	UpdatedAt   string
}

// AssessmentAttempt is the schema definition for portal.assessment_attempt
var AssessmentAttempt = AssessmentAttemptTable{
	Table:       "portal.assessment_attempt",
	ID:          "id",
	CandidateID: "candidate_id",
	Stage:       "stage",
	Track:       "track",
	Status:      "status",
	Answers:     "answers",
	Score:       "score",
	Outcome:     "outcome",
	StartedAt:   "started_at",
	DeadlineAt:  "deadline_at",
	FinishedAt:  "finished_at",
	UpdatedAt:   "updated_at",
}

// Columns returns the columns read back into an attempt, in scan order.
func (t AssessmentAttemptTable) Columns() []string {
	return []string{
		t.ID, t.CandidateID, t.Stage, t.Track, t.Status, t.Answers, t.Score, t.Outcome, t.StartedAt, t.DeadlineAt, t.FinishedAt,
	}
}

// Select renders the column list for a SELECT.
func (t AssessmentAttemptTable) Select() string {
	return strings.Join(t.Columns(), ", ")
}
