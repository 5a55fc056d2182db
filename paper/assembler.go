package paper

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"qpgen-server/models"
)

// PaperStore is the persistence collaborator for generated papers. SavePaper
// must be atomic: the paper row and every mapping commit together or not at
// all.
type PaperStore interface {
	SavePaper(ctx context.Context, paper *models.GeneratedPaper, mappings []models.GeneratedQuestionMapping) (int64, error)
	GetHistory(ctx context.Context, courseID, facultyID int64, page, pageSize int) (*models.PaperHistoryPage, error)
	GetPaperDetails(ctx context.Context, paperID int64) (*models.PaperWithQuestions, error)
}

// Assemble converts a selection into the persisted paper and mappings. It is
// the single path to durable state: it re-validates the no-duplicate and
// referential-integrity invariants regardless of which path produced the
// selection, computes realized coverage analytics, and writes everything in
// one atomic store call.
func Assemble(ctx context.Context, store PaperStore, snap *Snapshot, sel *Selection, facultyID int64, req *models.GenerateRequest) (*models.GeneratedPaper, []models.GeneratedQuestionMapping, error) {
	if sel.Empty() {
		return nil, nil, fmt.Errorf("%w: selection is empty", ErrInvariantViolation)
	}

	type slot struct {
		section string
		number  int
	}
	seen := make(map[int64]bool, len(sel.Placed))
	seenSlot := make(map[slot]bool, len(sel.Placed))
	unitCoverage := make(map[string]int)
	bloomDist := make(map[string]int)
	difficultyDist := make(map[string]int)

	mappings := make([]models.GeneratedQuestionMapping, 0, len(sel.Placed))
	for _, pq := range sel.Placed {
		if seen[pq.QuestionID] {
			return nil, nil, fmt.Errorf("%w: duplicate question id %d", ErrInvariantViolation, pq.QuestionID)
		}
		seen[pq.QuestionID] = true

		pos := slot{pq.Section, pq.QuestionNumber}
		if seenSlot[pos] {
			return nil, nil, fmt.Errorf("%w: duplicate position %d in section %q", ErrInvariantViolation, pq.QuestionNumber, pq.Section)
		}
		seenSlot[pos] = true

		record, ok := snap.Lookup(pq.QuestionID)
		if !ok {
			return nil, nil, fmt.Errorf("%w: question id %d not in snapshot", ErrInvariantViolation, pq.QuestionID)
		}

		unitCoverage[strconv.Itoa(record.UnitNumber)]++
		if record.BloomLevel != "" {
			bloomDist[record.BloomLevel]++
		}
		if record.Difficulty != "" {
			difficultyDist[record.Difficulty]++
		}

		mappings = append(mappings, models.GeneratedQuestionMapping{
			QuestionID:     pq.QuestionID,
			Section:        pq.Section,
			QuestionNumber: pq.QuestionNumber,
			Marks:          pq.Marks,
			IsCompulsory:   pq.IsCompulsory,
		})
	}

	title := req.Title
	if title == "" {
		title = fmt.Sprintf("Generated-Paper-%s", time.Now().Format("200601021504"))
	}
	examType := req.ExamType
	if examType == "" {
		examType = "semester"
	}

	paper := &models.GeneratedPaper{
		CourseID:               snap.CourseID,
		FacultyID:              facultyID,
		Title:                  title,
		ExamType:               examType,
		TotalMarks:             req.TotalMarks,
		GenerationParams:       *req,
		QuestionCount:          len(mappings),
		UnitCoverage:           unitCoverage,
		BloomDistribution:      bloomDist,
		DifficultyDistribution: difficultyDist,
		Source:                 sel.Source,
		Status:                 "finalized",
	}

	paperID, err := store.SavePaper(ctx, paper, mappings)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to save paper: %w", err)
	}
	paper.ID = paperID
	for i := range mappings {
		mappings[i].PaperID = paperID
	}
	return paper, mappings, nil
}
