package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"medicohub-assessment-service/internal/domain"
)

type competitionRow struct {
	bun.BaseModel `bun:"table:competitions"`

	ID        string    `bun:"id,pk"`
	Title     string    `bun:"title"`
	Kind      string    `bun:"kind"`
	TargetID  string    `bun:"target_id"`
	GroupIDs  []byte    `bun:"group_ids"`
	StartDate time.Time `bun:"start_date,nullzero"`
	EndDate   time.Time `bun:"end_date,nullzero"`
	CreatedAt time.Time `bun:"created_at"`
}

type competitionResultRow struct {
	bun.BaseModel `bun:"table:competition_results"`

	CompetitionID string `bun:"competition_id,pk"`
	GroupID       string `bun:"group_id,pk"`
	Score         int    `bun:"score"`
}

type competitionParticipantRow struct {
	bun.BaseModel `bun:"table:competition_participants"`

	CompetitionID string `bun:"competition_id,pk"`
	GroupID       string `bun:"group_id,pk"`
	UserID        string `bun:"user_id,pk"`
}

// CompetitionRepository stores competitions with their running tallies
// in separate rows. Score updates are in-database increments and the
// participant insert is idempotent, so concurrent attempts for the same
// group cannot lose updates or double-count a user.
type CompetitionRepository struct {
	db *bun.DB
}

func NewCompetitionRepository(db *bun.DB) *CompetitionRepository {
	return &CompetitionRepository{db: db}
}

func (r *CompetitionRepository) CreateCompetition(ctx context.Context, c domain.Competition) error {
	groupIDs, err := json.Marshal(c.GroupIDs)
	if err != nil {
		return fmt.Errorf("marshal group ids: %w", err)
	}
	row := competitionRow{
		ID:        c.ID,
		Title:     c.Title,
		Kind:      string(c.Type),
		TargetID:  c.TargetID,
		GroupIDs:  groupIDs,
		StartDate: c.StartDate,
		EndDate:   c.EndDate,
		CreatedAt: c.CreatedAt,
	}
	if _, err := r.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert competition: %w", err)
	}
	return nil
}

func (r *CompetitionRepository) GetCompetition(ctx context.Context, id string) (domain.Competition, error) {
	var row competitionRow
	err := r.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Competition{}, domain.ErrCompetitionNotFound
	}
	if err != nil {
		return domain.Competition{}, fmt.Errorf("select competition: %w", err)
	}

	var groupIDs []string
	if len(row.GroupIDs) > 0 {
		if err := json.Unmarshal(row.GroupIDs, &groupIDs); err != nil {
			return domain.Competition{}, fmt.Errorf("unmarshal group ids: %w", err)
		}
	}
	results, err := r.Results(ctx, id)
	if err != nil {
		return domain.Competition{}, err
	}
	return domain.Competition{
		ID:        row.ID,
		Title:     row.Title,
		Type:      domain.AssessmentType(row.Kind),
		TargetID:  row.TargetID,
		GroupIDs:  groupIDs,
		StartDate: row.StartDate,
		EndDate:   row.EndDate,
		Results:   results,
		CreatedAt: row.CreatedAt,
	}, nil
}

func (r *CompetitionRepository) ApplyResult(ctx context.Context, competitionID, groupID, userID string, score int) error {
	result := competitionResultRow{
		CompetitionID: competitionID,
		GroupID:       groupID,
		Score:         score,
	}
	_, err := r.db.NewInsert().Model(&result).
		On("CONFLICT (competition_id, group_id) DO UPDATE").
		Set("score = competition_results.score + EXCLUDED.score").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("apply result: %w", err)
	}

	participant := competitionParticipantRow{
		CompetitionID: competitionID,
		GroupID:       groupID,
		UserID:        userID,
	}
	_, err = r.db.NewInsert().Model(&participant).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("record participant: %w", err)
	}
	return nil
}

func (r *CompetitionRepository) Results(ctx context.Context, competitionID string) ([]domain.GroupResult, error) {
	var resultRows []competitionResultRow
	err := r.db.NewSelect().Model(&resultRows).
		Where("competition_id = ?", competitionID).
		Order("group_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select results: %w", err)
	}

	var participantRows []competitionParticipantRow
	err = r.db.NewSelect().Model(&participantRows).
		Where("competition_id = ?", competitionID).
		Order("user_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select participants: %w", err)
	}
	byGroup := make(map[string][]string)
	for _, p := range participantRows {
		byGroup[p.GroupID] = append(byGroup[p.GroupID], p.UserID)
	}

	results := make([]domain.GroupResult, 0, len(resultRows))
	for _, row := range resultRows {
		participants := byGroup[row.GroupID]
		if participants == nil {
			participants = []string{}
		}
		results = append(results, domain.GroupResult{
			GroupID:      row.GroupID,
			Score:        row.Score,
			Participants: participants,
		})
	}
	return results, nil
}
