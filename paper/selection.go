package paper

// Selection sources.
const (
	SourceGemini   = "gemini"
	SourceFallback = "fallback"
)

// PlacedQuestion is one question placed into a section of a candidate paper.
type PlacedQuestion struct {
	Section        string
	QuestionNumber int // 1-based, unique within the section
	QuestionID     int64
	Marks          int
	IsCompulsory   bool
}

// Selection is a transient candidate paper produced by either the AI path or
// the fallback engine. It is consumed immediately by the assembler.
type Selection struct {
	Source string
	Placed []PlacedQuestion
}

// Count returns the number of placed questions.
func (s *Selection) Count() int { return len(s.Placed) }

// Empty reports whether nothing usable was selected.
func (s *Selection) Empty() bool { return s == nil || len(s.Placed) == 0 }
