package memory

import (
	"context"
	"sync"

	"medicohub-assessment-service/internal/domain"
)

// GroupRepository is an in-memory group store with set-semantics membership.
type GroupRepository struct {
	mu     sync.RWMutex
	groups map[string]domain.Group
}

func NewGroupRepository() *GroupRepository {
	return &GroupRepository{groups: make(map[string]domain.Group)}
}

func (r *GroupRepository) CreateGroup(_ context.Context, g domain.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[g.ID] = g
	return nil
}

func (r *GroupRepository) GetGroup(_ context.Context, id string) (domain.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.groups[id]
	if !ok {
		return domain.Group{}, domain.ErrGroupNotFound
	}
	return g, nil
}

func (r *GroupRepository) AddMember(_ context.Context, groupID, userID string) (domain.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[groupID]
	if !ok {
		return domain.Group{}, domain.ErrGroupNotFound
	}
	for _, m := range g.Members {
		if m == userID {
			return g, nil
		}
	}
	g.Members = append(g.Members, userID)
	r.groups[groupID] = g
	return g, nil
}

func (r *GroupRepository) GetGroups(_ context.Context, ids []string) ([]domain.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Group, 0, len(ids))
	for _, id := range ids {
		if g, ok := r.groups[id]; ok {
			out = append(out, g)
		}
	}
	return out, nil
}
