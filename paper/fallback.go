package paper

import (
	"crypto/sha256"
	"fmt"
	"math/rand"
	"time"

	"qpgen-server/models"
	"qpgen-server/utils"
)

// SelectFallback draws questions for each section by random sampling from
// the snapshot, partitioned by exact marks value. Sections are processed in
// request order; a question placed in an earlier section is never reused.
// When a pool is smaller than the requested count the section is silently
// under-filled. Coverage targets are not balanced here: this is a
// correctness-preserving sampler, not an optimizer.
func SelectFallback(snap *Snapshot, sections []models.SectionRequirement, rng *rand.Rand) *Selection {
	byMarks := make(map[int][]models.QuestionRecord)
	for _, q := range snap.Questions {
		byMarks[q.Marks] = append(byMarks[q.Marks], q)
	}

	sel := &Selection{Source: SourceFallback}
	used := make(map[int64]bool)

	for _, sp := range sections {
		pool := make([]models.QuestionRecord, 0, len(byMarks[sp.MarksPerQuestion]))
		for _, q := range byMarks[sp.MarksPerQuestion] {
			if !used[q.ID] {
				pool = append(pool, q)
			}
		}
		rng.Shuffle(len(pool), func(i, j int) {
			pool[i], pool[j] = pool[j], pool[i]
		})

		count := sp.QuestionCount
		if len(pool) < count {
			count = len(pool)
		}
		compulsory := sp.Select == 0 || sp.Select >= sp.QuestionCount
		for i := 0; i < count; i++ {
			q := pool[i]
			sel.Placed = append(sel.Placed, PlacedQuestion{
				Section:        sp.Name,
				QuestionNumber: i + 1,
				QuestionID:     q.ID,
				Marks:          q.Marks,
				IsCompulsory:   compulsory,
			})
			used[q.ID] = true
		}
	}
	return sel
}

// DeriveSeed builds a deterministic seed for one generation call. Callers
// that need exact reproducibility pass their own seed instead.
func DeriveSeed(courseID, facultyID int64, at time.Time) int64 {
	seedStr := fmt.Sprintf("%d:%d:%d", courseID, facultyID, at.UnixNano())
	hasher := sha256.New()
	hasher.Write([]byte(seedStr))
	return utils.BytesToInt(hasher.Sum(nil))
}
