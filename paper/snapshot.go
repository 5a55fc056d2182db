package paper

import (
	"context"

	"qpgen-server/models"
)

// Snapshot is the request-scoped copy of the eligible question bank for one
// generation call. It is never mutated after construction.
type Snapshot struct {
	CourseID  int64
	Questions []models.QuestionRecord

	// ExclusionRelaxed is set when the previously-used exclusion set would
	// have shrunk the pool below the viable minimum and was ignored.
	ExclusionRelaxed bool

	byID map[int64]models.QuestionRecord
}

// BankStore is the question-bank collaborator the snapshot reads from.
type BankStore interface {
	FetchActiveQuestions(ctx context.Context, courseID int64) ([]models.QuestionRecord, error)
	TouchUsage(ctx context.Context, ids []int64) error
}

// BuildSnapshot fetches the active bank for a course and applies the
// exclusion set. If the bank is empty this returns ErrEmptyBank. If the
// exclusion would leave fewer than minViable questions, the exclusion is
// dropped and the full bank is used instead.
func BuildSnapshot(ctx context.Context, bank BankStore, courseID int64, excluded []int64, minViable int) (*Snapshot, error) {
	all, err := bank.FetchActiveQuestions(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, ErrEmptyBank
	}

	snap := &Snapshot{CourseID: courseID}
	if len(excluded) > 0 {
		skip := make(map[int64]struct{}, len(excluded))
		for _, id := range excluded {
			skip[id] = struct{}{}
		}
		eligible := make([]models.QuestionRecord, 0, len(all))
		for _, q := range all {
			if _, ok := skip[q.ID]; !ok {
				eligible = append(eligible, q)
			}
		}
		if len(eligible) < minViable {
			snap.ExclusionRelaxed = true
			snap.Questions = all
		} else {
			snap.Questions = eligible
		}
	} else {
		snap.Questions = all
	}

	snap.byID = make(map[int64]models.QuestionRecord, len(snap.Questions))
	for _, q := range snap.Questions {
		snap.byID[q.ID] = q
	}
	return snap, nil
}

// Lookup returns the snapshot question with the given id.
func (s *Snapshot) Lookup(id int64) (models.QuestionRecord, bool) {
	q, ok := s.byID[id]
	return q, ok
}

// Size returns the number of eligible questions.
func (s *Snapshot) Size() int { return len(s.Questions) }
