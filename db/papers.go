package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"qpgen-server/models"
)

// ErrPaperNotFound is returned when a paper id does not exist.
var ErrPaperNotFound = errors.New("question paper not found")

// PaperStore persists generated papers and their question mappings.
type PaperStore struct {
	pool *pgxpool.Pool
}

func NewPaperStore(pool *pgxpool.Pool) *PaperStore {
	return &PaperStore{pool: pool}
}

// SavePaper writes the paper row and all its mappings in one transaction.
// Either the whole paper persists or nothing does; callers never observe a
// paper without its questions.
func (s *PaperStore) SavePaper(ctx context.Context, paper *models.GeneratedPaper, mappings []models.GeneratedQuestionMapping) (int64, error) {
	paramsJSON, err := json.Marshal(paper.GenerationParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal generation params: %w", err)
	}
	unitJSON, err := json.Marshal(paper.UnitCoverage)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal unit coverage: %w", err)
	}
	bloomJSON, err := json.Marshal(paper.BloomDistribution)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal bloom distribution: %w", err)
	}
	difficultyJSON, err := json.Marshal(paper.DifficultyDistribution)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal difficulty distribution: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var paperID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO generated_papers
			(course_id, faculty_id, title, exam_type, total_marks, generation_params,
			 question_count, unit_coverage, bloom_distribution, difficulty_distribution,
			 source, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`, paper.CourseID, paper.FacultyID, paper.Title, paper.ExamType, paper.TotalMarks,
		paramsJSON, paper.QuestionCount, unitJSON, bloomJSON, difficultyJSON,
		paper.Source, paper.Status).Scan(&paperID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert generated paper: %w", err)
	}

	for _, m := range mappings {
		_, err := tx.Exec(ctx, `
			INSERT INTO generated_questions
				(paper_id, question_id, section, question_number, marks, is_compulsory)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, paperID, m.QuestionID, m.Section, m.QuestionNumber, m.Marks, m.IsCompulsory)
		if err != nil {
			return 0, fmt.Errorf("failed to insert question mapping %d for paper %d: %w", m.QuestionID, paperID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit paper transaction: %w", err)
	}
	return paperID, nil
}

// GetHistory returns a page of paper summaries, newest first. courseID and
// facultyID of 0 mean unfiltered.
func (s *PaperStore) GetHistory(ctx context.Context, courseID, facultyID int64, page, pageSize int) (*models.PaperHistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	where := ` WHERE ($1 = 0 OR course_id = $1) AND ($2 = 0 OR faculty_id = $2)`

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM generated_papers`+where, courseID, facultyID).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count papers: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, course_id, faculty_id, COALESCE(title, ''), COALESCE(exam_type, ''),
		       total_marks, generation_params, question_count,
		       COALESCE(unit_coverage, '{}'), COALESCE(bloom_distribution, '{}'),
		       COALESCE(difficulty_distribution, '{}'), source, status, created_at, updated_at
		FROM generated_papers`+where+`
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, courseID, facultyID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to query paper history: %w", err)
	}
	defer rows.Close()

	items := []models.GeneratedPaper{}
	for rows.Next() {
		paper, err := scanPaper(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *paper)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &models.PaperHistoryPage{Items: items, Total: total, Page: page, PerPage: pageSize}, nil
}

// GetPaperDetails returns a paper with its mappings joined to the bank
// questions, ordered by section and question number.
func (s *PaperStore) GetPaperDetails(ctx context.Context, paperID int64) (*models.PaperWithQuestions, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, course_id, faculty_id, COALESCE(title, ''), COALESCE(exam_type, ''),
		       total_marks, generation_params, question_count,
		       COALESCE(unit_coverage, '{}'), COALESCE(bloom_distribution, '{}'),
		       COALESCE(difficulty_distribution, '{}'), source, status, created_at, updated_at
		FROM generated_papers
		WHERE id = $1
	`, paperID)
	paper, err := scanPaper(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaperNotFound
		}
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT gq.id, gq.paper_id, gq.question_id, gq.section, gq.question_number,
		       gq.marks, gq.is_compulsory, gq.created_at,
		       q.question_text, q.unit_number, q.co_label, q.bloom_level, q.difficulty
		FROM generated_questions gq
		JOIN questions q ON gq.question_id = q.id
		WHERE gq.paper_id = $1
		ORDER BY gq.section, gq.question_number
	`, paperID)
	if err != nil {
		return nil, fmt.Errorf("failed to query paper questions: %w", err)
	}
	defer rows.Close()

	var questions []models.MappedQuestion
	for rows.Next() {
		var mq models.MappedQuestion
		if err := rows.Scan(
			&mq.ID, &mq.PaperID, &mq.QuestionID, &mq.Section, &mq.QuestionNumber,
			&mq.Marks, &mq.IsCompulsory, &mq.CreatedAt,
			&mq.QuestionText, &mq.UnitNumber, &mq.CourseOutcome, &mq.BloomLevel, &mq.Difficulty,
		); err != nil {
			return nil, fmt.Errorf("failed to scan paper question row: %w", err)
		}
		questions = append(questions, mq)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &models.PaperWithQuestions{GeneratedPaper: *paper, Questions: questions}, nil
}

func scanPaper(row pgx.Row) (*models.GeneratedPaper, error) {
	var p models.GeneratedPaper
	var paramsJSON, unitJSON, bloomJSON, difficultyJSON []byte
	if err := row.Scan(
		&p.ID, &p.CourseID, &p.FacultyID, &p.Title, &p.ExamType, &p.TotalMarks,
		&paramsJSON, &p.QuestionCount, &unitJSON, &bloomJSON, &difficultyJSON,
		&p.Source, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan paper row: %w", err)
	}
	if err := json.Unmarshal(paramsJSON, &p.GenerationParams); err != nil {
		return nil, fmt.Errorf("failed to unmarshal generation params for paper %d: %w", p.ID, err)
	}
	if err := json.Unmarshal(unitJSON, &p.UnitCoverage); err != nil {
		return nil, fmt.Errorf("failed to unmarshal unit coverage for paper %d: %w", p.ID, err)
	}
	if err := json.Unmarshal(bloomJSON, &p.BloomDistribution); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bloom distribution for paper %d: %w", p.ID, err)
	}
	if err := json.Unmarshal(difficultyJSON, &p.DifficultyDistribution); err != nil {
		return nil, fmt.Errorf("failed to unmarshal difficulty distribution for paper %d: %w", p.ID, err)
	}
	return &p, nil
}
