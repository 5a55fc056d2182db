package models

import (
	"time"
)

// QuestionRecord is a flattened, read-only view of a question bank entry as
// the generation engine sees it. Rows are filtered to status = 'active' and
// treated as immutable for the duration of one generation call.
type QuestionRecord struct {
	ID            int64      `json:"id"`
	CourseID      int64      `json:"course_id"`
	QuestionText  string     `json:"question_text"`
	Marks         int        `json:"marks"`
	UnitNumber    int        `json:"unit"`
	CourseOutcome string     `json:"co"`
	BloomLevel    string     `json:"bloom"`
	Difficulty    string     `json:"difficulty"`
	Status        string     `json:"status"`
	UsageCount    int        `json:"usage_count"`
	LastUsedAt    *time.Time `json:"last_used_at"`
}

// SectionRequirement describes one section of the requested paper layout.
// Select > 0 means "answer Select of QuestionCount" (choice sections).
type SectionRequirement struct {
	Name             string `json:"name" yaml:"name"`
	MarksPerQuestion int    `json:"marks_per_question" yaml:"marks_per_question"`
	QuestionCount    int    `json:"total_questions" yaml:"total_questions"`
	Select           int    `json:"select,omitempty" yaml:"select,omitempty"`
}

// GenerateRequest is the raw constraint payload for one generation call. It
// is stored verbatim on the resulting paper for audit. Coverage maps are
// label -> target percentage and are advisory for the AI path only.
type GenerateRequest struct {
	CourseID   int64  `json:"course_id" binding:"required"`
	Title      string `json:"title"`
	Program    string `json:"program"`
	Branch     string `json:"branch"`
	Course     string `json:"course"`
	CourseCode string `json:"course_code"`
	Regulation string `json:"regulation"`
	Semester   int    `json:"semester"`
	ExamType   string `json:"assessment_type"`
	Pattern    string `json:"pattern,omitempty"`

	TotalMarks int                  `json:"total_marks"`
	Sections   []SectionRequirement `json:"sections"`

	UnitCoverage           map[string]float64 `json:"unit_coverage,omitempty"`
	COCoverage             map[string]float64 `json:"co_coverage,omitempty"`
	BloomDistribution      map[string]float64 `json:"bloom_distribution,omitempty"`
	DifficultyDistribution map[string]float64 `json:"difficulty_distribution,omitempty"`

	PreviouslyUsedIDs []int64 `json:"previously_used_ids,omitempty"`
	Seed              int64   `json:"seed,omitempty"`
}

// GeneratedPaper is the durable record of one successful generation call.
// Generation parameters are write-once; the coverage fields hold realized
// (post-hoc) analytics, not the requested targets.
type GeneratedPaper struct {
	ID         int64  `json:"id"`
	CourseID   int64  `json:"course_id"`
	FacultyID  int64  `json:"faculty_id"`
	Title      string `json:"title"`
	ExamType   string `json:"exam_type"`
	TotalMarks int    `json:"total_marks"`

	GenerationParams GenerateRequest `json:"generation_params"`

	QuestionCount          int            `json:"question_count"`
	UnitCoverage           map[string]int `json:"unit_coverage"`
	BloomDistribution      map[string]int `json:"bloom_distribution"`
	DifficultyDistribution map[string]int `json:"difficulty_distribution"`
	Source                 string         `json:"source"` // gemini or fallback

	Status    string    `json:"status"` // draft, finalized, used
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GeneratedQuestionMapping links a paper to one bank question. A question
// appears in at most one mapping per paper; (section, question_number) is
// unique within a paper.
type GeneratedQuestionMapping struct {
	ID             int64     `json:"id"`
	PaperID        int64     `json:"paper_id"`
	QuestionID     int64     `json:"question_id"`
	Section        string    `json:"section"`
	QuestionNumber int       `json:"question_number"`
	Marks          int       `json:"marks"`
	IsCompulsory   bool      `json:"is_compulsory"`
	CreatedAt      time.Time `json:"created_at"`
}

// MappedQuestion is a mapping joined with its bank question for paper views.
type MappedQuestion struct {
	GeneratedQuestionMapping
	QuestionText  string `json:"question_text"`
	UnitNumber    int    `json:"unit"`
	CourseOutcome string `json:"co"`
	BloomLevel    string `json:"bloom"`
	Difficulty    string `json:"difficulty"`
}

// PaperWithQuestions is the full paper view returned by generate and
// get-details calls.
type PaperWithQuestions struct {
	GeneratedPaper
	Questions []MappedQuestion `json:"questions"`
}

// PaperHistoryPage is the paginated history envelope.
type PaperHistoryPage struct {
	Items   []GeneratedPaper `json:"items"`
	Total   int              `json:"total"`
	Page    int              `json:"page"`
	PerPage int              `json:"per_page"`
}

// GenerationEvent records an operational event from the generation pipeline
// (fallback engaged, exclusion relaxed, AI output rejected, usage-touch
// failure). Visibility records only, never request failures.
type GenerationEvent struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	CourseID  int64     `json:"course_id"`
	Event     string    `json:"event"`
	Detail    string    `json:"detail"`
}

// QuestionUsageStat is the admin view of per-question usage metadata.
type QuestionUsageStat struct {
	QuestionID   int64      `json:"question_id"`
	QuestionText string     `json:"question_text"`
	UnitNumber   int        `json:"unit"`
	Marks        int        `json:"marks"`
	UsageCount   int        `json:"usage_count"`
	LastUsedAt   *time.Time `json:"last_used_at"`
}
