package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/study-planner-api/internal/models"
)

const studyScheduleColumns = `id, learner_id, version, status, seed, fitness, blocks, meta, created_at, updated_at`

// StudyScheduleFilter narrows schedule listings.
type StudyScheduleFilter struct {
	Status models.StudyScheduleStatus
	Limit  int
	Offset int
}

// StudyScheduleRepository persists versioned study schedules per learner.
type StudyScheduleRepository struct {
	db *sqlx.DB
}

// NewStudyScheduleRepository constructs repository.
func NewStudyScheduleRepository(db *sqlx.DB) *StudyScheduleRepository {
	return &StudyScheduleRepository{db: db}
}

// DB exposes the handle so services can open transactions.
func (r *StudyScheduleRepository) DB() *sqlx.DB {
	return r.db
}

func (r *StudyScheduleRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// CreateVersioned inserts a schedule assigning the learner's next version.
func (r *StudyScheduleRepository) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, schedule *models.StudySchedule) error {
	if schedule == nil {
		return fmt.Errorf("schedule payload is nil")
	}
	if schedule.LearnerID == "" {
		return fmt.Errorf("learner_id is required")
	}
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	if schedule.Status == "" {
		schedule.Status = models.StudyScheduleStatusDraft
	}
	if len(schedule.Blocks) == 0 {
		schedule.Blocks = types.JSONText(`{}`)
	}
	if len(schedule.Meta) == 0 {
		schedule.Meta = types.JSONText(`{}`)
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	target := r.exec(exec)

	const nextVersionQuery = `SELECT COALESCE(MAX(version), 0) + 1 FROM study_schedules WHERE learner_id = $1`
	if err := sqlx.GetContext(ctx, target, &schedule.Version, nextVersionQuery, schedule.LearnerID); err != nil {
		return fmt.Errorf("compute next study schedule version: %w", err)
	}

	const insertQuery = `INSERT INTO study_schedules (` + studyScheduleColumns + `)
VALUES (:id, :learner_id, :version, :status, :seed, :fitness, :blocks, :meta, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, insertQuery, schedule); err != nil {
		return fmt.Errorf("insert study schedule: %w", err)
	}
	return nil
}

// ArchivePublished moves every published schedule of the learner to ARCHIVED.
func (r *StudyScheduleRepository) ArchivePublished(ctx context.Context, exec sqlx.ExtContext, learnerID string) (int64, error) {
	const query = `UPDATE study_schedules SET status = $1, updated_at = $2 WHERE learner_id = $3 AND status = $4`
	result, err := r.exec(exec).ExecContext(ctx, query, models.StudyScheduleStatusArchived, time.Now().UTC(), learnerID, models.StudyScheduleStatusPublished)
	if err != nil {
		return 0, fmt.Errorf("archive published study schedules: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("archive rows affected: %w", err)
	}
	return affected, nil
}

// ListByLearner returns the learner's schedules, newest version first, and the total count.
func (r *StudyScheduleRepository) ListByLearner(ctx context.Context, learnerID string, filter StudyScheduleFilter) ([]models.StudySchedule, int, error) {
	where := `WHERE learner_id = $1`
	args := []interface{}{learnerID}
	if filter.Status != "" {
		where += ` AND status = $2`
		args = append(args, filter.Status)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM study_schedules `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count study schedules: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM study_schedules %s ORDER BY version DESC LIMIT %d OFFSET %d`, studyScheduleColumns, where, limit, filter.Offset)
	schedules := make([]models.StudySchedule, 0)
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list study schedules: %w", err)
	}
	return schedules, total, nil
}

// FindByID loads a schedule owned by the learner.
func (r *StudyScheduleRepository) FindByID(ctx context.Context, learnerID, id string) (*models.StudySchedule, error) {
	query := `SELECT ` + studyScheduleColumns + ` FROM study_schedules WHERE id = $1 AND learner_id = $2`
	var schedule models.StudySchedule
	if err := r.db.GetContext(ctx, &schedule, query, id, learnerID); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// Delete removes a stored schedule version owned by the learner.
func (r *StudyScheduleRepository) Delete(ctx context.Context, learnerID, id string) error {
	const query = `DELETE FROM study_schedules WHERE id = $1 AND learner_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, learnerID)
	if err != nil {
		return fmt.Errorf("delete study schedule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("study schedule rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
