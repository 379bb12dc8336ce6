package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"medicohub-assessment-service/internal/domain"
)

// LeaderboardStore keeps per-user XP records in memory. The mutex
// serializes credits, so concurrent submissions cannot lose updates.
type LeaderboardStore struct {
	mu      sync.RWMutex
	entries map[string]domain.LeaderboardEntry
	clock   func() time.Time
}

func NewLeaderboardStore() *LeaderboardStore {
	return &LeaderboardStore{
		entries: make(map[string]domain.LeaderboardEntry),
		clock:   time.Now,
	}
}

func (s *LeaderboardStore) CreditXP(_ context.Context, userID, name string, amount int) (domain.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	entry, ok := s.entries[userID]
	if !ok {
		if name == "" {
			name = "Unknown"
		}
		entry = domain.LeaderboardEntry{
			UserID: userID,
			Name:   name,
			XP:     amount,
			Streak: 1,
		}
	} else {
		entry.XP += amount
	}
	entry.LastActive = now
	s.entries[userID] = entry
	return entry, nil
}

func (s *LeaderboardStore) TopN(_ context.Context, n int) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.LeaderboardEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].XP > out[j].XP
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}
