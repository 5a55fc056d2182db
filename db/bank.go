package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"qpgen-server/models"
)

// BankStore reads the question bank for the generation engine. Question
// authoring and CRUD live in the main ERP service; this store only consumes.
type BankStore struct {
	pool *pgxpool.Pool
}

func NewBankStore(pool *pgxpool.Pool) *BankStore {
	return &BankStore{pool: pool}
}

// FetchActiveQuestions returns all active questions for a course with their
// flattened unit/CO/bloom/difficulty labels.
func (s *BankStore) FetchActiveQuestions(ctx context.Context, courseID int64) ([]models.QuestionRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, course_id, question_text, marks, unit_number, co_label,
		       bloom_level, difficulty, status, usage_count, last_used_at
		FROM questions
		WHERE course_id = $1 AND status = 'active'
		ORDER BY id
	`, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions for course %d: %w", courseID, err)
	}
	defer rows.Close()

	var questions []models.QuestionRecord
	for rows.Next() {
		var q models.QuestionRecord
		if err := rows.Scan(
			&q.ID, &q.CourseID, &q.QuestionText, &q.Marks, &q.UnitNumber,
			&q.CourseOutcome, &q.BloomLevel, &q.Difficulty, &q.Status,
			&q.UsageCount, &q.LastUsedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan question row: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// TouchUsage bumps usage metadata for the given questions. The increment is
// a single SQL statement, so concurrent generations cannot lose updates.
func (s *BankStore) TouchUsage(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		UPDATE questions
		SET usage_count = usage_count + 1, last_used_at = CURRENT_TIMESTAMP
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to update question usage metadata: %w", err)
	}
	return nil
}

// UsageStats returns per-question usage metadata for a course, most used
// first. Backs the admin usage view.
func (s *BankStore) UsageStats(ctx context.Context, courseID int64) ([]models.QuestionUsageStat, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, question_text, unit_number, marks, usage_count, last_used_at
		FROM questions
		WHERE course_id = $1
		ORDER BY usage_count DESC, id
	`, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage stats for course %d: %w", courseID, err)
	}
	defer rows.Close()

	var stats []models.QuestionUsageStat
	for rows.Next() {
		var st models.QuestionUsageStat
		if err := rows.Scan(&st.QuestionID, &st.QuestionText, &st.UnitNumber, &st.Marks, &st.UsageCount, &st.LastUsedAt); err != nil {
			return nil, fmt.Errorf("failed to scan usage stat row: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}
