// Package patterns loads authored exam-pattern presets. A pattern is a named
// section layout (e.g., the institution's standard semester paper) that a
// generation request can reference instead of spelling out sections.
package patterns

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"qpgen-server/models"
)

// Pattern is one preset paper layout.
type Pattern struct {
	Name       string                      `yaml:"name" json:"name"`
	ExamType   string                      `yaml:"assessment_type" json:"assessment_type"`
	TotalMarks int                         `yaml:"total_marks" json:"total_marks"`
	Sections   []models.SectionRequirement `yaml:"sections" json:"sections"`
}

type patternsFile struct {
	Patterns []Pattern `yaml:"patterns"`
}

// Set holds the loaded presets, preserving file order for listings.
type Set struct {
	byName map[string]Pattern
	order  []string
}

// Load reads the presets file. A missing file is not an error: generation
// works without presets, requests just have to carry explicit sections.
func Load(path string) (*Set, error) {
	set := &Set{byName: make(map[string]Pattern)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return set, nil
		}
		return nil, fmt.Errorf("failed to read patterns file %s: %w", path, err)
	}

	var file patternsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse patterns file %s: %w", path, err)
	}

	for _, p := range file.Patterns {
		if p.Name == "" {
			return nil, fmt.Errorf("patterns file %s: pattern without a name", path)
		}
		if _, dup := set.byName[p.Name]; dup {
			return nil, fmt.Errorf("patterns file %s: duplicate pattern %q", path, p.Name)
		}
		if len(p.Sections) == 0 {
			return nil, fmt.Errorf("patterns file %s: pattern %q has no sections", path, p.Name)
		}
		total := 0
		for _, sec := range p.Sections {
			count := sec.QuestionCount
			if sec.Select > 0 && sec.Select < count {
				count = sec.Select
			}
			total += count * sec.MarksPerQuestion
		}
		if p.TotalMarks == 0 {
			p.TotalMarks = total
		} else if p.TotalMarks != total {
			return nil, fmt.Errorf("patterns file %s: pattern %q declares %d marks but sections sum to %d",
				path, p.Name, p.TotalMarks, total)
		}
		set.byName[p.Name] = p
		set.order = append(set.order, p.Name)
	}
	return set, nil
}

// Get returns a pattern by name.
func (s *Set) Get(name string) (Pattern, bool) {
	p, ok := s.byName[name]
	return p, ok
}

// List returns all patterns in file order.
func (s *Set) List() []Pattern {
	out := make([]Pattern, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.byName[name])
	}
	return out
}

// Apply fills a request's layout from the named pattern. Explicit sections
// on the request always win; the pattern only fills gaps.
func (s *Set) Apply(req *models.GenerateRequest) error {
	if req.Pattern == "" {
		return nil
	}
	p, ok := s.Get(req.Pattern)
	if !ok {
		return fmt.Errorf("unknown exam pattern: %s", req.Pattern)
	}
	if len(req.Sections) == 0 {
		req.Sections = p.Sections
	}
	if req.TotalMarks == 0 {
		req.TotalMarks = p.TotalMarks
	}
	if req.ExamType == "" {
		req.ExamType = p.ExamType
	}
	return nil
}
