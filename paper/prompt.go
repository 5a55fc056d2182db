package paper

import (
	"encoding/json"
	"fmt"
	"strings"

	"qpgen-server/models"
)

// bankEntry is the compact question representation embedded in the prompt.
type bankEntry struct {
	QID          int64  `json:"qid"`
	QuestionText string `json:"question_text"`
	Marks        int    `json:"marks"`
	Unit         int    `json:"unit"`
	CO           string `json:"co"`
	Bloom        string `json:"bloom"`
	Difficulty   string `json:"difficulty"`
}

// BuildSystemPrompt defines the model's behavior and strict rules.
func BuildSystemPrompt() string {
	return "You are an expert Academic Examination Controller. Your task is to generate a professional " +
		"university question paper.\n\n" +
		"STRICT RULES:\n" +
		"1. ONLY use questions from the provided 'Question Bank' JSON.\n" +
		"2. DO NOT invent new questions.\n" +
		"3. Enforce the requested CO coverage, Bloom's distribution, and Difficulty mix.\n" +
		"4. Ensure Unit coverage is balanced as per requirements.\n" +
		"5. Never place the same question in more than one section.\n" +
		"6. The output MUST be a single clean JSON object matching the schema exactly.\n" +
		"7. DO NOT include any markdown formatting, backticks, or explanatory text. Return ONLY JSON."
}

// BuildRuntimePrompt embeds the constraint request and the full snapshot as
// structured data, followed by the required output schema.
func BuildRuntimePrompt(req *models.GenerateRequest, snap *Snapshot) string {
	bank := make([]bankEntry, 0, len(snap.Questions))
	for _, q := range snap.Questions {
		bank = append(bank, bankEntry{
			QID:          q.ID,
			QuestionText: q.QuestionText,
			Marks:        q.Marks,
			Unit:         q.UnitNumber,
			CO:           q.CourseOutcome,
			Bloom:        q.BloomLevel,
			Difficulty:   q.Difficulty,
		})
	}
	bankJSON, _ := json.Marshal(bank)
	sectionsJSON, _ := json.Marshal(req.Sections)

	var sb strings.Builder
	sb.WriteString("Generate a question paper for:\n")
	fmt.Fprintf(&sb, "- Program: %s\n", req.Program)
	fmt.Fprintf(&sb, "- Branch: %s\n", req.Branch)
	fmt.Fprintf(&sb, "- Course: %s\n", req.Course)
	fmt.Fprintf(&sb, "- Code: %s\n", req.CourseCode)
	fmt.Fprintf(&sb, "- Regulation: %s\n", req.Regulation)
	fmt.Fprintf(&sb, "- Semester: %d\n", req.Semester)
	fmt.Fprintf(&sb, "- Assessment Type: %s\n", req.ExamType)
	fmt.Fprintf(&sb, "- Total Marks: %d\n\n", req.TotalMarks)

	sb.WriteString("REQUIREMENTS:\n")
	fmt.Fprintf(&sb, "- Sections: %s\n", sectionsJSON)
	fmt.Fprintf(&sb, "- CO Coverage: %s\n", marshalCoverage(req.COCoverage))
	fmt.Fprintf(&sb, "- Bloom Distribution: %s\n", marshalCoverage(req.BloomDistribution))
	fmt.Fprintf(&sb, "- Difficulty Mix: %s\n", marshalCoverage(req.DifficultyDistribution))
	fmt.Fprintf(&sb, "- Unit Coverage: %s\n\n", marshalCoverage(req.UnitCoverage))

	sb.WriteString("QUESTION BANK:\n")
	sb.Write(bankJSON)
	sb.WriteString("\n\nOUTPUT SCHEMA:\n")
	sb.WriteString(`{
  "paper": {
    "course": "...",
    "course_code": "...",
    "assessment_type": "...",
    "total_marks": 0,
    "sections": [
      {
        "section": "Section A",
        "instructions": "Answer all questions",
        "questions": [
          {"qid": "id from bank", "marks": 0}
        ]
      }
    ]
  }
}`)
	return sb.String()
}

// BuildPrompt joins the system and runtime segments into the single prompt
// sent to the provider.
func BuildPrompt(req *models.GenerateRequest, snap *Snapshot) string {
	return BuildSystemPrompt() + "\n\n" + BuildRuntimePrompt(req, snap)
}

func marshalCoverage(m map[string]float64) []byte {
	if m == nil {
		m = map[string]float64{}
	}
	data, _ := json.Marshal(m)
	return data
}
