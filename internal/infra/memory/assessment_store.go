package memory

import (
	"context"
	"sort"
	"sync"

	"medicohub-assessment-service/internal/domain"
)

// AssessmentStore is an in-memory assessment backing store, used when no
// Postgres URL is configured and as the loader behind caches in tests.
type AssessmentStore struct {
	mu   sync.RWMutex
	byID map[string]domain.Assessment
}

func NewAssessmentStore() *AssessmentStore {
	return &AssessmentStore{byID: make(map[string]domain.Assessment)}
}

// Seed inserts assessments without error handling; demo/test wiring only.
func (s *AssessmentStore) Seed(assessments ...domain.Assessment) *AssessmentStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range assessments {
		s.byID[a.ID] = a
	}
	return s
}

func (s *AssessmentStore) CreateAssessment(_ context.Context, a domain.Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[a.ID] = a
	return nil
}

func (s *AssessmentStore) ListAssessments(_ context.Context, typ domain.AssessmentType) ([]domain.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Assessment, 0)
	for _, a := range s.byID {
		if a.Type == typ {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// LoadAssessment satisfies the cache loader interfaces.
func (s *AssessmentStore) LoadAssessment(_ context.Context, id string) (domain.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.byID[id]; ok {
		return a, nil
	}
	return domain.Assessment{}, domain.ErrAssessmentNotFound
}

// GetAssessment lets the store double as an uncached reader.
func (s *AssessmentStore) GetAssessment(ctx context.Context, id string) (domain.Assessment, error) {
	return s.LoadAssessment(ctx, id)
}
