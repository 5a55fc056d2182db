package paper

import (
	"fmt"

	"qpgen-server/models"
)

// ValidateRequest checks a generation request for structural validity. Pure
// data validation, no side effects. Coverage targets are advisory and only
// checked for shape (flat label -> percentage maps with sane values).
func ValidateRequest(req *models.GenerateRequest) error {
	if req.CourseID <= 0 {
		return fmt.Errorf("course_id must be a positive integer")
	}
	if req.TotalMarks <= 0 {
		return fmt.Errorf("total_marks must be a positive integer")
	}
	if len(req.Sections) == 0 {
		return fmt.Errorf("at least one section is required")
	}
	for i, sec := range req.Sections {
		if sec.Name == "" {
			return fmt.Errorf("section %d: name is required", i+1)
		}
		if sec.MarksPerQuestion <= 0 {
			return fmt.Errorf("section %d: marks_per_question must be positive", i+1)
		}
		if sec.QuestionCount <= 0 {
			return fmt.Errorf("section %d: total_questions must be positive", i+1)
		}
		if sec.Select < 0 || sec.Select > sec.QuestionCount {
			return fmt.Errorf("section %d: select must be between 0 and total_questions", i+1)
		}
	}

	coverages := map[string]map[string]float64{
		"unit_coverage":           req.UnitCoverage,
		"co_coverage":             req.COCoverage,
		"bloom_distribution":      req.BloomDistribution,
		"difficulty_distribution": req.DifficultyDistribution,
	}
	for name, m := range coverages {
		for label, pct := range m {
			if label == "" {
				return fmt.Errorf("%s: empty label", name)
			}
			if pct < 0 || pct > 100 {
				return fmt.Errorf("%s: percentage for %q must be between 0 and 100", name, label)
			}
		}
	}
	return nil
}

// TotalRequestedQuestions sums the section question counts. It is also the
// viable-minimum pool size used when deciding whether to relax the
// previously-used exclusion set.
func TotalRequestedQuestions(req *models.GenerateRequest) int {
	total := 0
	for _, sec := range req.Sections {
		total += sec.QuestionCount
	}
	if total < 1 {
		total = 1
	}
	return total
}
