package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/study-planner-api/internal/models"
)

func TestStudyPreferenceRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudyPreferenceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (learner_id) DO UPDATE SET preferences = EXCLUDED.preferences")).
		WithArgs(sqlmock.AnyArg(), "learner-1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	pref := &models.StudyPreference{LearnerID: "learner-1", Preferences: types.JSONText(`{"maxSessionMinutes":60}`)}
	require.NoError(t, repo.Upsert(context.Background(), pref))
	assert.NotEmpty(t, pref.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudyPreferenceRepositoryUpsertRequiresLearner(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()

	assert.Error(t, NewStudyPreferenceRepository(db).Upsert(context.Background(), &models.StudyPreference{}))
}

func TestStudyPreferenceRepositoryFindByLearner(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudyPreferenceRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, learner_id, preferences, created_at, updated_at FROM study_preferences WHERE learner_id = $1")).
		WithArgs("learner-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "learner_id", "preferences", "created_at", "updated_at"}).
			AddRow("p-1", "learner-1", []byte(`{"maxSessionMinutes":60}`), now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM study_preferences WHERE learner_id = $1")).
		WithArgs("learner-2").
		WillReturnError(sql.ErrNoRows)

	pref, err := repo.FindByLearner(context.Background(), "learner-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"maxSessionMinutes":60}`, string(pref.Preferences))

	_, err = repo.FindByLearner(context.Background(), "learner-2")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
