package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/study-planner-api/internal/models"
)

// StudyPreferenceRepository keeps one preferences document per learner.
type StudyPreferenceRepository struct {
	db *sqlx.DB
}

// NewStudyPreferenceRepository constructs repository.
func NewStudyPreferenceRepository(db *sqlx.DB) *StudyPreferenceRepository {
	return &StudyPreferenceRepository{db: db}
}

// FindByLearner returns the learner's stored preferences or sql.ErrNoRows.
func (r *StudyPreferenceRepository) FindByLearner(ctx context.Context, learnerID string) (*models.StudyPreference, error) {
	const query = `SELECT id, learner_id, preferences, created_at, updated_at FROM study_preferences WHERE learner_id = $1`
	var pref models.StudyPreference
	if err := r.db.GetContext(ctx, &pref, query, learnerID); err != nil {
		return nil, err
	}
	return &pref, nil
}

// Upsert inserts or replaces the learner's preferences document.
func (r *StudyPreferenceRepository) Upsert(ctx context.Context, pref *models.StudyPreference) error {
	if pref == nil || pref.LearnerID == "" {
		return fmt.Errorf("preference learner_id is required")
	}
	if pref.ID == "" {
		pref.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if pref.CreatedAt.IsZero() {
		pref.CreatedAt = now
	}
	pref.UpdatedAt = now

	const query = `INSERT INTO study_preferences (id, learner_id, preferences, created_at, updated_at)
VALUES (:id, :learner_id, :preferences, :created_at, :updated_at)
ON CONFLICT (learner_id) DO UPDATE SET preferences = EXCLUDED.preferences, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, pref); err != nil {
		return fmt.Errorf("upsert study preferences: %w", err)
	}
	return nil
}
