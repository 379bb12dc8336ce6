package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/uptrace/bun"

	"medicohub-assessment-service/internal/domain"
)

type assessmentRow struct {
	bun.BaseModel `bun:"table:assessments"`

	ID        string    `bun:"id,pk"`
	Kind      string    `bun:"kind"`
	Data      []byte    `bun:"data"`
	CreatedAt time.Time `bun:"created_at"`
}

// AssessmentRepository is the bun-backed write/list side of assessment
// storage. The document is kept whole as JSONB; reads on the submission
// path go through AssessmentLoader instead.
type AssessmentRepository struct {
	db *bun.DB
}

func NewAssessmentRepository(db *bun.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

func (r *AssessmentRepository) CreateAssessment(ctx context.Context, a domain.Assessment) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}
	row := assessmentRow{
		ID:        a.ID,
		Kind:      string(a.Type),
		Data:      data,
		CreatedAt: a.CreatedAt,
	}
	if _, err := r.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

func (r *AssessmentRepository) ListAssessments(ctx context.Context, typ domain.AssessmentType) ([]domain.Assessment, error) {
	var rows []assessmentRow
	err := r.db.NewSelect().Model(&rows).
		Where("kind = ?", string(typ)).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}

	out := make([]domain.Assessment, 0, len(rows))
	for _, row := range rows {
		var a domain.Assessment
		if err := json.Unmarshal(row.Data, &a); err != nil {
			return nil, fmt.Errorf("unmarshal assessment %s: %w", row.ID, err)
		}
		out = append(out, a)
	}
	return out, nil
}

// AssessmentLoader reads assessment JSONB from Postgres on the
// submission hot path, behind the cache.
type AssessmentLoader struct {
	pool *pgxpool.Pool
}

func NewAssessmentLoader(pool *pgxpool.Pool) *AssessmentLoader {
	return &AssessmentLoader{pool: pool}
}

func (l *AssessmentLoader) LoadAssessment(ctx context.Context, id string) (domain.Assessment, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM assessments WHERE id=$1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return domain.Assessment{}, domain.ErrAssessmentNotFound
	}
	if err != nil {
		return domain.Assessment{}, fmt.Errorf("load assessment: %w", err)
	}
	var assessment domain.Assessment
	if err := json.Unmarshal(raw, &assessment); err != nil {
		return domain.Assessment{}, fmt.Errorf("unmarshal assessment: %w", err)
	}
	return assessment, nil
}
