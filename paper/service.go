package paper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"qpgen-server/models"
)

// EventSink receives operational events from the pipeline (fallback engaged,
// AI output rejected, exclusion relaxed). Sinks must never fail the request.
type EventSink interface {
	Log(ctx context.Context, courseID int64, event, detail string)
}

// Service orchestrates one generation request: snapshot, AI attempt,
// validation, fallback, assembly. Every collaborator is injected so tests
// can substitute doubles.
type Service struct {
	bank      BankStore
	papers    PaperStore
	model     Generator // nil disables the AI path
	events    EventSink // nil disables the durable event log
	aiTimeout time.Duration
}

func NewService(bank BankStore, papers PaperStore, model Generator, events EventSink, aiTimeout time.Duration) *Service {
	if aiTimeout <= 0 {
		aiTimeout = 45 * time.Second
	}
	return &Service{
		bank:      bank,
		papers:    papers,
		model:     model,
		events:    events,
		aiTimeout: aiTimeout,
	}
}

// Generate runs the full pipeline and returns the persisted paper with its
// questions. Only two failures surface to callers after validation: an empty
// question bank, and a persistence failure during assembly. Every AI-path
// failure is absorbed by switching to the fallback engine.
func (s *Service) Generate(ctx context.Context, facultyID int64, req models.GenerateRequest) (*models.PaperWithQuestions, error) {
	if err := ValidateRequest(&req); err != nil {
		return nil, err
	}

	snap, err := BuildSnapshot(ctx, s.bank, req.CourseID, req.PreviouslyUsedIDs, TotalRequestedQuestions(&req))
	if err != nil {
		return nil, err
	}
	if snap.ExclusionRelaxed {
		log.Printf("Eligible question bank for course %d is below the viable minimum; prior-use exclusion relaxed", req.CourseID)
		s.logEvent(ctx, req.CourseID, "exclusion_relaxed",
			fmt.Sprintf("pool of %d after exclusion was below requested %d questions", snap.Size(), TotalRequestedQuestions(&req)))
	}

	var paper *models.GeneratedPaper
	var mappings []models.GeneratedQuestionMapping

	if s.model != nil {
		if sel, ok := s.tryGemini(ctx, &req, snap); ok {
			paper, mappings, err = Assemble(ctx, s.papers, snap, sel, facultyID, &req)
			switch {
			case err == nil:
				// AI selection persisted.
			case errors.Is(err, ErrInvariantViolation):
				// The model produced a structurally invalid selection
				// (duplicates across sections). Absorb and fall back.
				log.Printf("AI selection for course %d rejected by assembler: %v", req.CourseID, err)
				s.logEvent(ctx, req.CourseID, "ai_selection_rejected", err.Error())
				paper, mappings = nil, nil
			default:
				return nil, err
			}
		}
	}

	if paper == nil {
		log.Printf("Falling back to deterministic generation for course %d", req.CourseID)
		seed := req.Seed
		if seed == 0 {
			seed = DeriveSeed(req.CourseID, facultyID, time.Now())
		}
		rng := rand.New(rand.NewSource(seed))
		sel := SelectFallback(snap, req.Sections, rng)
		if sel.Empty() {
			return nil, fmt.Errorf("no active questions match the requested section marks for course %d", req.CourseID)
		}
		s.logEvent(ctx, req.CourseID, "fallback_used", fmt.Sprintf("seed %d, %d questions placed", seed, sel.Count()))
		paper, mappings, err = Assemble(ctx, s.papers, snap, sel, facultyID, &req)
		if err != nil {
			return nil, err
		}
	}

	// Usage metadata is a best-effort side channel; failures are visible in
	// the event log but never fail the generation.
	ids := make([]int64, 0, len(mappings))
	for _, m := range mappings {
		ids = append(ids, m.QuestionID)
	}
	if err := s.bank.TouchUsage(ctx, ids); err != nil {
		log.Printf("Failed to update usage metadata for paper %d: %v", paper.ID, err)
		s.logEvent(ctx, req.CourseID, "usage_touch_failed", err.Error())
	}

	return paperView(snap, paper, mappings), nil
}

// tryGemini runs the AI attempt under its own deadline. It never returns an
// error: quota exhaustion, transport failures, timeouts, and unusable output
// all come back as ok = false.
func (s *Service) tryGemini(ctx context.Context, req *models.GenerateRequest, snap *Snapshot) (*Selection, bool) {
	actx, cancel := context.WithTimeout(ctx, s.aiTimeout)
	defer cancel()

	log.Printf("Calling Gemini for paper generation: course %d", req.CourseID)
	raw, err := s.model.Generate(actx, BuildPrompt(req, snap))
	if err != nil {
		var rec *RecoverableError
		if errors.As(err, &rec) {
			log.Printf("Gemini generation failed (%s) for course %d: %v", rec.Reason, req.CourseID, rec.Err)
			s.logEvent(ctx, req.CourseID, "ai_call_failed", rec.Error())
		} else {
			log.Printf("Gemini generation failed for course %d: %v", req.CourseID, err)
			s.logEvent(ctx, req.CourseID, "ai_call_failed", err.Error())
		}
		return nil, false
	}

	sel, ok := ParseSelection(raw, snap)
	if !ok {
		log.Printf("Gemini response for course %d yielded no usable questions", req.CourseID)
		s.logEvent(ctx, req.CourseID, "ai_output_rejected", "response was unparseable or referenced no known questions")
		return nil, false
	}
	return sel, true
}

// History returns a page of paper summaries.
func (s *Service) History(ctx context.Context, courseID, facultyID int64, page, pageSize int) (*models.PaperHistoryPage, error) {
	return s.papers.GetHistory(ctx, courseID, facultyID, page, pageSize)
}

// PaperDetails returns a full paper with its ordered question mappings.
func (s *Service) PaperDetails(ctx context.Context, paperID int64) (*models.PaperWithQuestions, error) {
	return s.papers.GetPaperDetails(ctx, paperID)
}

func (s *Service) logEvent(ctx context.Context, courseID int64, event, detail string) {
	if s.events != nil {
		s.events.Log(ctx, courseID, event, detail)
	}
}

// paperView joins the persisted mappings with the snapshot records so the
// generate call can return the full paper without a re-read.
func paperView(snap *Snapshot, paper *models.GeneratedPaper, mappings []models.GeneratedQuestionMapping) *models.PaperWithQuestions {
	view := &models.PaperWithQuestions{GeneratedPaper: *paper}
	for _, m := range mappings {
		record, _ := snap.Lookup(m.QuestionID)
		view.Questions = append(view.Questions, models.MappedQuestion{
			GeneratedQuestionMapping: m,
			QuestionText:             record.QuestionText,
			UnitNumber:               record.UnitNumber,
			CourseOutcome:            record.CourseOutcome,
			BloomLevel:               record.BloomLevel,
			Difficulty:               record.Difficulty,
		})
	}
	return view
}
