package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"qpgen-server/models"
)

// InitDB initializes the PostgreSQL database connection pool
func InitDB(connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Ping the database to verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to PostgreSQL database!")
	return pool, nil
}

// CreateSchema sets up the tables the paper generator reads and writes.
// Curricular metadata (programs, branches, regulations, units, outcome and
// taxonomy tables) and question CRUD are owned by the main ERP service; the
// questions table here carries the flattened labels the engine needs.
// In a production environment, use a proper migration tool (e.g., golang-migrate).
func CreateSchema(pool *pgxpool.Pool) error {
	schemaSQL := `
	CREATE TABLE IF NOT EXISTS courses (
		id SERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		course_code VARCHAR(50) NOT NULL UNIQUE,
		semester INT,
		regulation VARCHAR(50)
	);

	CREATE TABLE IF NOT EXISTS questions (
		id SERIAL PRIMARY KEY,
		course_id INT NOT NULL,
		question_text TEXT NOT NULL,
		marks INT NOT NULL CHECK (marks > 0),
		unit_number INT NOT NULL DEFAULT 0,
		co_label VARCHAR(20) NOT NULL DEFAULT '',
		bloom_level VARCHAR(50) NOT NULL DEFAULT '',
		difficulty VARCHAR(50) NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		usage_count INT NOT NULL DEFAULT 0,
		last_used_at TIMESTAMP WITH TIME ZONE,
		FOREIGN KEY (course_id) REFERENCES courses(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_questions_course_status ON questions (course_id, status);
	CREATE INDEX IF NOT EXISTS idx_questions_marks ON questions (marks);

	CREATE TABLE IF NOT EXISTS generated_papers (
		id SERIAL PRIMARY KEY,
		course_id INT NOT NULL,
		faculty_id INT NOT NULL,
		title VARCHAR(300),
		exam_type VARCHAR(50),
		total_marks INT NOT NULL,
		generation_params JSONB NOT NULL,
		question_count INT NOT NULL,
		unit_coverage JSONB,
		bloom_distribution JSONB,
		difficulty_distribution JSONB,
		source VARCHAR(20) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'finalized',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (course_id) REFERENCES courses(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_papers_course ON generated_papers (course_id);
	CREATE INDEX IF NOT EXISTS idx_papers_faculty ON generated_papers (faculty_id);
	CREATE INDEX IF NOT EXISTS idx_papers_created ON generated_papers (created_at);

	CREATE TABLE IF NOT EXISTS generated_questions (
		id SERIAL PRIMARY KEY,
		paper_id INT NOT NULL,
		question_id INT NOT NULL,
		section VARCHAR(50) NOT NULL,
		question_number INT NOT NULL,
		marks INT NOT NULL,
		is_compulsory BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (paper_id) REFERENCES generated_papers(id) ON DELETE CASCADE,
		FOREIGN KEY (question_id) REFERENCES questions(id) ON DELETE CASCADE,
		UNIQUE (paper_id, question_id),
		UNIQUE (paper_id, section, question_number)
	);

	CREATE TABLE IF NOT EXISTS generation_events (
		id SERIAL PRIMARY KEY,
		timestamp TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		course_id INT,
		event VARCHAR(100) NOT NULL,
		detail TEXT
	);
	`
	_, err := pool.Exec(context.Background(), schemaSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}
	return nil
}

// EventLog persists operational events from the generation pipeline so that
// absorbed failures (fallback switches, rejected AI output, relaxed
// exclusions) stay visible to admins.
type EventLog struct {
	pool *pgxpool.Pool
}

func NewEventLog(pool *pgxpool.Pool) *EventLog {
	return &EventLog{pool: pool}
}

// Log records one event. Logging must never fail a generation request, so
// insert errors are only written to the server log.
func (l *EventLog) Log(ctx context.Context, courseID int64, event, detail string) {
	_, err := l.pool.Exec(ctx, `
		INSERT INTO generation_events (course_id, event, detail)
		VALUES ($1, $2, $3)
	`, courseID, event, detail)
	if err != nil {
		log.Printf("ERROR: Failed to log generation event %q: %v. Detail: %s", event, err, detail)
	}
}

// ListEvents returns the most recent generation events, newest first.
func (l *EventLog) ListEvents(ctx context.Context, limit int) ([]models.GenerationEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := l.pool.Query(ctx, `
		SELECT id, timestamp, COALESCE(course_id, 0), event, COALESCE(detail, '')
		FROM generation_events
		ORDER BY timestamp DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query generation events: %w", err)
	}
	defer rows.Close()

	var events []models.GenerationEvent
	for rows.Next() {
		var e models.GenerationEvent
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.CourseID, &e.Event, &e.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan generation event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
