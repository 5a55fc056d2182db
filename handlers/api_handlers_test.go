package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qpgen-server/db"
	"qpgen-server/models"
	"qpgen-server/paper"
	"qpgen-server/patterns"
)

type stubBank struct {
	questions []models.QuestionRecord
}

func (s *stubBank) FetchActiveQuestions(ctx context.Context, courseID int64) ([]models.QuestionRecord, error) {
	return s.questions, nil
}

func (s *stubBank) TouchUsage(ctx context.Context, ids []int64) error { return nil }

type stubPapers struct {
	history    *models.PaperHistoryPage
	details    *models.PaperWithQuestions
	detailsErr error

	historyCourseID  int64
	historyFacultyID int64
}

func (s *stubPapers) SavePaper(ctx context.Context, p *models.GeneratedPaper, m []models.GeneratedQuestionMapping) (int64, error) {
	return 101, nil
}

func (s *stubPapers) GetHistory(ctx context.Context, courseID, facultyID int64, page, pageSize int) (*models.PaperHistoryPage, error) {
	s.historyCourseID = courseID
	s.historyFacultyID = facultyID
	if s.history != nil {
		return s.history, nil
	}
	return &models.PaperHistoryPage{Page: page, PerPage: pageSize}, nil
}

func (s *stubPapers) GetPaperDetails(ctx context.Context, paperID int64) (*models.PaperWithQuestions, error) {
	if s.detailsErr != nil {
		return nil, s.detailsErr
	}
	return s.details, nil
}

func authStub(facultyID int64, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("faculty_id", facultyID)
		c.Set("user_roles", roles)
		c.Next()
	}
}

func testRouter(bank paper.BankStore, papers paper.PaperStore, presets *patterns.Set, facultyID int64, roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := paper.NewService(bank, papers, nil, nil, time.Second)
	r := gin.New()
	r.Use(authStub(facultyID, roles...))
	r.POST("/papers/generate", GeneratePaper(svc, presets))
	r.GET("/papers", ListPapers(svc))
	r.GET("/papers/:paper_id", GetPaperDetails(svc))
	r.GET("/patterns", ListPatterns(presets))
	return r
}

func emptyPresets(t *testing.T) *patterns.Set {
	t.Helper()
	set, err := patterns.Load("/nonexistent/patterns.yaml")
	require.NoError(t, err)
	return set
}

func bankQuestions() []models.QuestionRecord {
	qs := make([]models.QuestionRecord, 0, 6)
	for i := int64(1); i <= 6; i++ {
		qs = append(qs, models.QuestionRecord{
			ID: i, CourseID: 1, QuestionText: "Explain concept", Marks: 2,
			UnitNumber: int(i%3) + 1, CourseOutcome: "CO1", BloomLevel: "Apply", Difficulty: "medium",
		})
	}
	return qs
}

func TestGeneratePaperCreatesPaper(t *testing.T) {
	papers := &stubPapers{}
	router := testRouter(&stubBank{questions: bankQuestions()}, papers, emptyPresets(t), 4, "faculty")

	body := `{"course_id":1,"total_marks":8,"sections":[{"name":"Part A","marks_per_question":2,"total_questions":4}],"seed":11}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/papers/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Message string                    `json:"message"`
		Paper   models.PaperWithQuestions `json:"paper"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Paper generated successfully", resp.Message)
	assert.Equal(t, int64(101), resp.Paper.ID)
	assert.Equal(t, int64(4), resp.Paper.FacultyID)
	assert.Len(t, resp.Paper.Questions, 4)
}

func TestGeneratePaperRejectsMalformedBody(t *testing.T) {
	router := testRouter(&stubBank{}, &stubPapers{}, emptyPresets(t), 4, "faculty")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/papers/generate", strings.NewReader(`{"total_marks":10}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code, "course_id is required")
}

func TestGeneratePaperEmptyBankIsClientError(t *testing.T) {
	router := testRouter(&stubBank{}, &stubPapers{}, emptyPresets(t), 4, "faculty")

	body := `{"course_id":1,"total_marks":8,"sections":[{"name":"Part A","marks_per_question":2,"total_questions":4}]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/papers/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "empty")
}

func TestGeneratePaperUnknownPattern(t *testing.T) {
	router := testRouter(&stubBank{questions: bankQuestions()}, &stubPapers{}, emptyPresets(t), 4, "faculty")

	body := `{"course_id":1,"pattern":"semester-100"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/papers/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown exam pattern")
}

func TestListPapersScopesFacultyToTheirOwn(t *testing.T) {
	papers := &stubPapers{}
	router := testRouter(&stubBank{}, papers, emptyPresets(t), 4, "faculty")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/papers?course_id=3&page=2", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(3), papers.historyCourseID)
	assert.Equal(t, int64(4), papers.historyFacultyID)
}

func TestListPapersAdminSeesAll(t *testing.T) {
	papers := &stubPapers{}
	router := testRouter(&stubBank{}, papers, emptyPresets(t), 4, "admin")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/papers", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(0), papers.historyFacultyID, "admin listing is unscoped")
}

func TestGetPaperDetails(t *testing.T) {
	papers := &stubPapers{details: &models.PaperWithQuestions{
		GeneratedPaper: models.GeneratedPaper{ID: 55, Title: "Semester Exam"},
	}}
	router := testRouter(&stubBank{}, papers, emptyPresets(t), 4, "faculty")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/papers/55", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Semester Exam")
}

func TestGetPaperDetailsNotFound(t *testing.T) {
	papers := &stubPapers{detailsErr: db.ErrPaperNotFound}
	router := testRouter(&stubBank{}, papers, emptyPresets(t), 4, "faculty")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/papers/99", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetPaperDetailsBadID(t *testing.T) {
	router := testRouter(&stubBank{}, &stubPapers{}, emptyPresets(t), 4, "faculty")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/papers/abc", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPaperDetailsStoreFailure(t *testing.T) {
	papers := &stubPapers{detailsErr: errors.New("connection refused")}
	router := testRouter(&stubBank{}, papers, emptyPresets(t), 4, "faculty")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/papers/99", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
