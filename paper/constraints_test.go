package paper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qpgen-server/models"
)

func validRequest() *models.GenerateRequest {
	return &models.GenerateRequest{
		CourseID:   1,
		TotalMarks: 100,
		Sections: []models.SectionRequirement{
			{Name: "Part A", MarksPerQuestion: 2, QuestionCount: 10},
			{Name: "Part B", MarksPerQuestion: 10, QuestionCount: 8, Select: 5},
		},
	}
}

func TestValidateRequestAcceptsWellFormed(t *testing.T) {
	req := validRequest()
	req.UnitCoverage = map[string]float64{"1": 40, "2": 60}
	req.BloomDistribution = map[string]float64{"Remember": 30, "Apply": 70}
	require.NoError(t, ValidateRequest(req))
}

func TestValidateRequestRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*models.GenerateRequest)
	}{
		{"zero course id", func(r *models.GenerateRequest) { r.CourseID = 0 }},
		{"negative total marks", func(r *models.GenerateRequest) { r.TotalMarks = -10 }},
		{"no sections", func(r *models.GenerateRequest) { r.Sections = nil }},
		{"unnamed section", func(r *models.GenerateRequest) { r.Sections[0].Name = "" }},
		{"zero marks per question", func(r *models.GenerateRequest) { r.Sections[1].MarksPerQuestion = 0 }},
		{"zero question count", func(r *models.GenerateRequest) { r.Sections[0].QuestionCount = 0 }},
		{"negative select", func(r *models.GenerateRequest) { r.Sections[1].Select = -1 }},
		{"select above question count", func(r *models.GenerateRequest) { r.Sections[1].Select = 9 }},
		{"empty coverage label", func(r *models.GenerateRequest) { r.UnitCoverage = map[string]float64{"": 50} }},
		{"coverage above 100", func(r *models.GenerateRequest) { r.DifficultyDistribution = map[string]float64{"easy": 120} }},
		{"negative coverage", func(r *models.GenerateRequest) { r.COCoverage = map[string]float64{"CO1": -5} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(req)
			assert.Error(t, ValidateRequest(req))
		})
	}
}

func TestTotalRequestedQuestions(t *testing.T) {
	assert.Equal(t, 18, TotalRequestedQuestions(validRequest()))
	assert.Equal(t, 1, TotalRequestedQuestions(&models.GenerateRequest{}), "floor is one")
}
