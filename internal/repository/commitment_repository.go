package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/study-planner-api/internal/models"
)

// CommitmentRepository stores fixed learner appointments.
type CommitmentRepository struct {
	db *sqlx.DB
}

// NewCommitmentRepository constructs repository.
func NewCommitmentRepository(db *sqlx.DB) *CommitmentRepository {
	return &CommitmentRepository{db: db}
}

func (r *CommitmentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a commitment.
func (r *CommitmentRepository) Create(ctx context.Context, commitment *models.Commitment) error {
	if commitment == nil {
		return fmt.Errorf("commitment payload is nil")
	}
	if !commitment.StartsAt.Before(commitment.EndsAt) {
		return fmt.Errorf("commitment must end after it starts")
	}
	if commitment.ID == "" {
		commitment.ID = uuid.NewString()
	}
	if commitment.CreatedAt.IsZero() {
		commitment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO study_commitments (id, learner_id, label, starts_at, ends_at, priority, created_at)
VALUES (:id, :learner_id, :label, :starts_at, :ends_at, :priority, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, commitment); err != nil {
		return fmt.Errorf("insert commitment: %w", err)
	}
	return nil
}

// ListOverlapping returns the learner's commitments intersecting [from, to).
// Zero bounds are open.
func (r *CommitmentRepository) ListOverlapping(ctx context.Context, exec sqlx.ExtContext, learnerID string, from, to time.Time) ([]models.Commitment, error) {
	query := `SELECT id, learner_id, label, starts_at, ends_at, priority, created_at FROM study_commitments WHERE learner_id = $1`
	args := []interface{}{learnerID}
	if !to.IsZero() {
		args = append(args, to)
		query += fmt.Sprintf(` AND starts_at < $%d`, len(args))
	}
	if !from.IsZero() {
		args = append(args, from)
		query += fmt.Sprintf(` AND ends_at > $%d`, len(args))
	}
	query += ` ORDER BY starts_at`

	commitments := make([]models.Commitment, 0)
	if err := sqlx.SelectContext(ctx, r.exec(exec), &commitments, query, args...); err != nil {
		return nil, fmt.Errorf("list commitments: %w", err)
	}
	return commitments, nil
}
