package memory

import (
	"context"
	"sync"

	"medicohub-assessment-service/internal/domain"
)

// CompetitionRepository keeps competitions and their group tallies in
// memory. Result updates run under the lock, so concurrent attempts for
// the same group cannot lose increments.
type CompetitionRepository struct {
	mu      sync.RWMutex
	comps   map[string]domain.Competition
	results map[string][]domain.GroupResult
}

func NewCompetitionRepository() *CompetitionRepository {
	return &CompetitionRepository{
		comps:   make(map[string]domain.Competition),
		results: make(map[string][]domain.GroupResult),
	}
}

func (r *CompetitionRepository) CreateCompetition(_ context.Context, c domain.Competition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.comps[c.ID] = c
	return nil
}

func (r *CompetitionRepository) GetCompetition(_ context.Context, id string) (domain.Competition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.comps[id]
	if !ok {
		return domain.Competition{}, domain.ErrCompetitionNotFound
	}
	c.Results = append([]domain.GroupResult(nil), r.results[id]...)
	return c, nil
}

func (r *CompetitionRepository) ApplyResult(_ context.Context, competitionID, groupID, userID string, score int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comps[competitionID]; !ok {
		return domain.ErrCompetitionNotFound
	}

	results := r.results[competitionID]
	idx := -1
	for i := range results {
		if results[i].GroupID == groupID {
			idx = i
			break
		}
	}
	if idx == -1 {
		results = append(results, domain.GroupResult{GroupID: groupID, Participants: []string{}})
		idx = len(results) - 1
	}

	results[idx].Score += score
	seen := false
	for _, p := range results[idx].Participants {
		if p == userID {
			seen = true
			break
		}
	}
	if !seen {
		results[idx].Participants = append(results[idx].Participants, userID)
	}
	r.results[competitionID] = results
	return nil
}

func (r *CompetitionRepository) Results(_ context.Context, competitionID string) ([]domain.GroupResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.GroupResult(nil), r.results[competitionID]...), nil
}
