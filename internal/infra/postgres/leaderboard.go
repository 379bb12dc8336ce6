package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"medicohub-assessment-service/internal/domain"
)

type leaderboardRow struct {
	bun.BaseModel `bun:"table:leaderboard"`

	UserID     string    `bun:"user_id,pk"`
	Name       string    `bun:"name"`
	XP         int       `bun:"xp"`
	Streak     int       `bun:"streak"`
	LastActive time.Time `bun:"last_active"`
}

// LeaderboardStore keeps per-user XP in Postgres. The credit is a single
// upsert with an in-database increment, so concurrent submissions for
// the same user cannot lose updates.
type LeaderboardStore struct {
	db    *bun.DB
	clock func() time.Time
}

func NewLeaderboardStore(db *bun.DB) *LeaderboardStore {
	return &LeaderboardStore{db: db, clock: time.Now}
}

func (s *LeaderboardStore) CreditXP(ctx context.Context, userID, name string, amount int) (domain.LeaderboardEntry, error) {
	if name == "" {
		name = "Unknown"
	}
	row := leaderboardRow{
		UserID:     userID,
		Name:       name,
		XP:         amount,
		Streak:     1,
		LastActive: s.clock(),
	}
	// Name and streak are only written at creation, matching the credit
	// contract: existing entries keep their values.
	_, err := s.db.NewInsert().Model(&row).
		On("CONFLICT (user_id) DO UPDATE").
		Set("xp = leaderboard.xp + EXCLUDED.xp").
		Set("last_active = EXCLUDED.last_active").
		Exec(ctx)
	if err != nil {
		return domain.LeaderboardEntry{}, fmt.Errorf("credit xp: %w", err)
	}

	var updated leaderboardRow
	err = s.db.NewSelect().Model(&updated).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		return domain.LeaderboardEntry{}, fmt.Errorf("read back entry: %w", err)
	}
	return entryFromRow(updated), nil
}

func (s *LeaderboardStore) TopN(ctx context.Context, n int) ([]domain.LeaderboardEntry, error) {
	var rows []leaderboardRow
	err := s.db.NewSelect().Model(&rows).
		Order("xp DESC").
		Limit(n).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("top entries: %w", err)
	}
	entries := make([]domain.LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, entryFromRow(row))
	}
	return entries, nil
}

func entryFromRow(row leaderboardRow) domain.LeaderboardEntry {
	return domain.LeaderboardEntry{
		UserID:     row.UserID,
		Name:       row.Name,
		XP:         row.XP,
		Streak:     row.Streak,
		LastActive: row.LastActive,
	}
}
