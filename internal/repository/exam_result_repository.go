package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/study-planner-api/internal/models"
)

const examResultColumns = `id, learner_id, subject, total_questions, correct, wrong, empty, net, efficiency, penalty, created_at`

// ExamResultFilter narrows result listings.
type ExamResultFilter struct {
	Subject string
	Limit   int
	Offset  int
}

// ExamResultRepository stores scored exam attempts.
type ExamResultRepository struct {
	db *sqlx.DB
}

// NewExamResultRepository constructs repository.
func NewExamResultRepository(db *sqlx.DB) *ExamResultRepository {
	return &ExamResultRepository{db: db}
}

// Create inserts a scored attempt.
func (r *ExamResultRepository) Create(ctx context.Context, result *models.ExamResult) error {
	if result == nil {
		return fmt.Errorf("exam result payload is nil")
	}
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO exam_results (` + examResultColumns + `)
VALUES (:id, :learner_id, :subject, :total_questions, :correct, :wrong, :empty, :net, :efficiency, :penalty, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("insert exam result: %w", err)
	}
	return nil
}

// List returns the learner's results, newest first, and the total count.
func (r *ExamResultRepository) List(ctx context.Context, learnerID string, filter ExamResultFilter) ([]models.ExamResult, int, error) {
	where := `WHERE learner_id = $1`
	args := []interface{}{learnerID}
	if filter.Subject != "" {
		where += ` AND subject = $2`
		args = append(args, filter.Subject)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM exam_results `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count exam results: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM exam_results %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, examResultColumns, where, limit, filter.Offset)
	results := make([]models.ExamResult, 0)
	if err := r.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list exam results: %w", err)
	}
	return results, total, nil
}

// LatestPerSubject returns the most recent result of every subject the learner sat.
func (r *ExamResultRepository) LatestPerSubject(ctx context.Context, learnerID string) ([]models.ExamResult, error) {
	query := `SELECT DISTINCT ON (subject) ` + examResultColumns + ` FROM exam_results WHERE learner_id = $1 ORDER BY subject, created_at DESC`
	results := make([]models.ExamResult, 0)
	if err := r.db.SelectContext(ctx, &results, query, learnerID); err != nil {
		return nil, fmt.Errorf("latest exam results: %w", err)
	}
	return results, nil
}
