package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"medicohub-assessment-service/internal/domain"
)

// Leaderboard key layout:
//
//	ZINCRBY leaderboard:xp      {amount} {userID}
//	HSET    leaderboard:names   {userID} {name}
//	HSETNX  leaderboard:streaks {userID} 1
//	HSET    leaderboard:active  {userID} {unix}
const (
	xpKey     = "leaderboard:xp"
	nameKey   = "leaderboard:names"
	streakKey = "leaderboard:streaks"
	activeKey = "leaderboard:active"
)

// LeaderboardStore keeps the global XP board in Redis. ZINCRBY makes the
// credit atomic, so concurrent submissions for the same user cannot lose
// updates the way a read-then-save document store does.
type LeaderboardStore struct {
	client *redis.Client
	clock  func() time.Time
}

func NewLeaderboardStore(client *redis.Client) *LeaderboardStore {
	return &LeaderboardStore{client: client, clock: time.Now}
}

func (s *LeaderboardStore) CreditXP(ctx context.Context, userID, name string, amount int) (domain.LeaderboardEntry, error) {
	now := s.clock()

	pipe := s.client.TxPipeline()
	xp := pipe.ZIncrBy(ctx, xpKey, float64(amount), userID)
	if name != "" {
		pipe.HSet(ctx, nameKey, userID, name)
	} else {
		pipe.HSetNX(ctx, nameKey, userID, "Unknown")
	}
	pipe.HSetNX(ctx, streakKey, userID, 1)
	pipe.HSet(ctx, activeKey, userID, now.Unix())
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.LeaderboardEntry{}, err
	}

	entry := domain.LeaderboardEntry{
		UserID:     userID,
		XP:         int(xp.Val()),
		Streak:     1,
		LastActive: now,
	}
	if n, err := s.client.HGet(ctx, nameKey, userID).Result(); err == nil {
		entry.Name = n
	}
	if raw, err := s.client.HGet(ctx, streakKey, userID).Result(); err == nil {
		if streak, err := strconv.Atoi(raw); err == nil {
			entry.Streak = streak
		}
	}
	return entry, nil
}

func (s *LeaderboardStore) TopN(ctx context.Context, n int) ([]domain.LeaderboardEntry, error) {
	if n <= 0 {
		return []domain.LeaderboardEntry{}, nil
	}
	members, err := s.client.ZRevRangeWithScores(ctx, xpKey, 0, int64(n)-1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]domain.LeaderboardEntry, 0, len(members))
	for _, m := range members {
		userID, _ := m.Member.(string)
		entry := domain.LeaderboardEntry{
			UserID: userID,
			XP:     int(m.Score),
			Streak: 1,
		}
		if name, err := s.client.HGet(ctx, nameKey, userID).Result(); err == nil {
			entry.Name = name
		}
		if raw, err := s.client.HGet(ctx, streakKey, userID).Result(); err == nil {
			if streak, err := strconv.Atoi(raw); err == nil {
				entry.Streak = streak
			}
		}
		if raw, err := s.client.HGet(ctx, activeKey, userID).Result(); err == nil {
			if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
				entry.LastActive = time.Unix(unix, 0)
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
