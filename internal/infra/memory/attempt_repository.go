package memory

import (
	"context"
	"sort"
	"sync"

	"medicohub-assessment-service/internal/domain"
)

// AttemptRepository is an in-memory append-only attempt log.
type AttemptRepository struct {
	mu       sync.RWMutex
	attempts []domain.Attempt
}

func NewAttemptRepository() *AttemptRepository {
	return &AttemptRepository{}
}

func (r *AttemptRepository) SaveAttempt(_ context.Context, attempt domain.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, attempt)
	return nil
}

func (r *AttemptRepository) TopAttempts(_ context.Context, typ domain.AssessmentType, targetID string, limit int) ([]domain.Attempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]domain.Attempt, 0)
	for _, a := range r.attempts {
		if a.Type == typ && a.TargetID == targetID {
			matched = append(matched, a)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Score != matched[j].Score {
			return matched[i].Score > matched[j].Score
		}
		return matched[i].DurationSec < matched[j].DurationSec
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Count reports the number of stored attempts; test helper.
func (r *AttemptRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.attempts)
}
