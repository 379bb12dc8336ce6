package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"medicohub-assessment-service/internal/domain"
)

type attemptRow struct {
	bun.BaseModel `bun:"table:attempts"`

	ID          string    `bun:"id,pk"`
	UserID      string    `bun:"user_id"`
	UserName    string    `bun:"user_name"`
	Kind        string    `bun:"kind"`
	TargetID    string    `bun:"target_id"`
	Answers     []byte    `bun:"answers"`
	Score       int       `bun:"score"`
	DurationSec int       `bun:"duration_sec"`
	CreatedAt   time.Time `bun:"created_at"`
}

// AttemptRepository is the bun-backed append-only attempt log.
type AttemptRepository struct {
	db *bun.DB
}

func NewAttemptRepository(db *bun.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

func (r *AttemptRepository) SaveAttempt(ctx context.Context, attempt domain.Attempt) error {
	answers, err := json.Marshal(attempt.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	row := attemptRow{
		ID:          attempt.ID,
		UserID:      attempt.UserID,
		UserName:    attempt.UserName,
		Kind:        string(attempt.Type),
		TargetID:    attempt.TargetID,
		Answers:     answers,
		Score:       attempt.Score,
		DurationSec: attempt.DurationSec,
		CreatedAt:   attempt.CreatedAt,
	}
	if _, err := r.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (r *AttemptRepository) TopAttempts(ctx context.Context, typ domain.AssessmentType, targetID string, limit int) ([]domain.Attempt, error) {
	var rows []attemptRow
	err := r.db.NewSelect().Model(&rows).
		Where("kind = ?", string(typ)).
		Where("target_id = ?", targetID).
		OrderExpr("score DESC, duration_sec ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("top attempts: %w", err)
	}

	out := make([]domain.Attempt, 0, len(rows))
	for _, row := range rows {
		var answers []domain.AnswerRecord
		if len(row.Answers) > 0 {
			if err := json.Unmarshal(row.Answers, &answers); err != nil {
				return nil, fmt.Errorf("unmarshal answers %s: %w", row.ID, err)
			}
		}
		out = append(out, domain.Attempt{
			ID:          row.ID,
			UserID:      row.UserID,
			UserName:    row.UserName,
			Type:        domain.AssessmentType(row.Kind),
			TargetID:    row.TargetID,
			Answers:     answers,
			Score:       row.Score,
			DurationSec: row.DurationSec,
			CreatedAt:   row.CreatedAt,
		})
	}
	return out, nil
}
