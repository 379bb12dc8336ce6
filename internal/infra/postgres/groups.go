package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"medicohub-assessment-service/internal/domain"
)

type groupRow struct {
	bun.BaseModel `bun:"table:groups"`

	ID   string `bun:"id,pk"`
	Name string `bun:"name"`
}

type groupMemberRow struct {
	bun.BaseModel `bun:"table:group_members"`

	GroupID string `bun:"group_id,pk"`
	UserID  string `bun:"user_id,pk"`
}

// GroupRepository stores groups with membership in a join table; the
// primary key gives set semantics for free.
type GroupRepository struct {
	db *bun.DB
}

func NewGroupRepository(db *bun.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) CreateGroup(ctx context.Context, g domain.Group) error {
	row := groupRow{ID: g.ID, Name: g.Name}
	if _, err := r.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	for _, member := range g.Members {
		if err := r.insertMember(ctx, g.ID, member); err != nil {
			return err
		}
	}
	return nil
}

func (r *GroupRepository) GetGroup(ctx context.Context, id string) (domain.Group, error) {
	var row groupRow
	err := r.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Group{}, domain.ErrGroupNotFound
	}
	if err != nil {
		return domain.Group{}, fmt.Errorf("select group: %w", err)
	}

	members, err := r.members(ctx, id)
	if err != nil {
		return domain.Group{}, err
	}
	return domain.Group{ID: row.ID, Name: row.Name, Members: members}, nil
}

func (r *GroupRepository) AddMember(ctx context.Context, groupID, userID string) (domain.Group, error) {
	if _, err := r.GetGroup(ctx, groupID); err != nil {
		return domain.Group{}, err
	}
	if err := r.insertMember(ctx, groupID, userID); err != nil {
		return domain.Group{}, err
	}
	return r.GetGroup(ctx, groupID)
}

func (r *GroupRepository) GetGroups(ctx context.Context, ids []string) ([]domain.Group, error) {
	if len(ids) == 0 {
		return []domain.Group{}, nil
	}
	var rows []groupRow
	err := r.db.NewSelect().Model(&rows).
		Where("id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select groups: %w", err)
	}

	out := make([]domain.Group, 0, len(rows))
	for _, row := range rows {
		members, err := r.members(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Group{ID: row.ID, Name: row.Name, Members: members})
	}
	return out, nil
}

func (r *GroupRepository) insertMember(ctx context.Context, groupID, userID string) error {
	row := groupMemberRow{GroupID: groupID, UserID: userID}
	_, err := r.db.NewInsert().Model(&row).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

func (r *GroupRepository) members(ctx context.Context, groupID string) ([]string, error) {
	var rows []groupMemberRow
	err := r.db.NewSelect().Model(&rows).
		Where("group_id = ?", groupID).
		Order("user_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select members: %w", err)
	}
	members := make([]string, 0, len(rows))
	for _, row := range rows {
		members = append(members, row.UserID)
	}
	return members, nil
}
