// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package assessment

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/talentgate/internal/platform/database/schema"
	"github.com/taibuivan/talentgate/internal/platform/dberr"
)

const resourceAttempt = "Attempt"

// PostgresJournal implements [Journal] on portal.assessment_attempt.
type PostgresJournal struct {
	db *pgxpool.Pool
}

// NewPostgresJournal creates the Postgres-backed journal.
func NewPostgresJournal(db *pgxpool.Pool) *PostgresJournal {
	return &PostgresJournal{db: db}
}

func (journal *PostgresJournal) CreateAttempt(ctx context.Context, attempt *Attempt) error {
	answers, err := encodeAnswers(attempt.Answers)
	if err != nil {
		return err
	}

	table := schema.AssessmentAttempt
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`,
		table.Table, table.ID, table.CandidateID, table.Stage, table.Track, table.Status,
		table.Answers, table.StartedAt, table.DeadlineAt, table.UpdatedAt,
	)

	_, err = journal.db.Exec(ctx, query,
		attempt.ID, attempt.CandidateID, attempt.Stage, attempt.Track, attempt.Status,
		answers, attempt.StartedAt, attempt.DeadlineAt,
	)
	return dberr.Wrap(err, "create_attempt", resourceAttempt)
}

func (journal *PostgresJournal) SaveAnswers(ctx context.Context, id string, answers map[string]string) error {
	payload, err := encodeAnswers(answers)
	if err != nil {
		return err
	}

	table := schema.AssessmentAttempt
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = NOW() WHERE %s = $1 AND %s = $3`,
		table.Table, table.Answers, table.UpdatedAt, table.ID, table.Status,
	)

	cmd, err := journal.db.Exec(ctx, query, id, payload, StatusActive)
	if err != nil {
		return dberr.Wrap(err, "save_answers", resourceAttempt)
	}
	if cmd.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "save_answers", resourceAttempt)
	}
	return nil
}

func (journal *PostgresJournal) FinishAttempt(ctx context.Context, attempt *Attempt) error {
	answers, err := encodeAnswers(attempt.Answers)
	if err != nil {
		return err
	}

	var outcome *string
	if attempt.Outcome != "" {
		value := string(attempt.Outcome)
		outcome = &value
	}

	table := schema.AssessmentAttempt
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = NOW()
		WHERE %s = $1
	`,
		table.Table, table.Status, table.Answers, table.Score, table.Outcome, table.FinishedAt, table.UpdatedAt,
		table.ID,
	)

	cmd, err := journal.db.Exec(ctx, query, attempt.ID, attempt.Status, answers, attempt.Score, outcome, attempt.FinishedAt)
	if err != nil {
		return dberr.Wrap(err, "finish_attempt", resourceAttempt)
	}
	if cmd.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "finish_attempt", resourceAttempt)
	}
	return nil
}

func (journal *PostgresJournal) GetAttempt(ctx context.Context, id string) (*Attempt, error) {
	table := schema.AssessmentAttempt
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, table.Select(), table.Table, table.ID)

	attempt, err := scanAttempt(journal.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "get_attempt", resourceAttempt)
	}
	return attempt, nil
}

func (journal *PostgresJournal) ListAttempts(ctx context.Context, filter Filter, limit, offset int) ([]*Attempt, int, error) {
	table := schema.AssessmentAttempt

	where := fmt.Sprintf(` WHERE %s = $1`, table.CandidateID)
	args := []any{filter.CandidateID}
	if filter.Stage != "" {
		args = append(args, filter.Stage)
		where += fmt.Sprintf(` AND %s = $%d`, table.Stage, len(args))
	}

	var total int
	countQuery := `SELECT count(*) FROM ` + table.Table + where
	if err := journal.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_attempts", resourceAttempt)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY %s DESC LIMIT $`, table.Select(), table.Table, where, table.StartedAt) +
		strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := journal.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_attempts", resourceAttempt)
	}
	defer rows.Close()

	attempts := make([]*Attempt, 0, limit)
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_attempt", resourceAttempt)
		}
		attempts = append(attempts, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "list_attempts", resourceAttempt)
	}

	return attempts, total, nil
}

func scanAttempt(row pgx.Row) (*Attempt, error) {
	var (
		attempt Attempt
		answers []byte
		outcome *string
	)

	err := row.Scan(
		&attempt.ID, &attempt.CandidateID, &attempt.Stage, &attempt.Track, &attempt.Status,
		&answers, &attempt.Score, &outcome, &attempt.StartedAt, &attempt.DeadlineAt, &attempt.FinishedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &attempt.Answers); err != nil {
			return nil, fmt.Errorf("decode answers: %w", err)
		}
	}
	if outcome != nil {
		attempt.Outcome = Outcome(*outcome)
	}
	return &attempt, nil
}

func encodeAnswers(answers map[string]string) ([]byte, error) {
	if answers == nil {
		answers = map[string]string{}
	}
	payload, err := json.Marshal(answers)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}
	return payload, nil
}
