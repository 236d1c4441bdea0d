package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/study-planner-api/internal/models"
)

var examResultRowColumns = []string{"id", "learner_id", "subject", "total_questions", "correct", "wrong", "empty", "net", "efficiency", "penalty", "created_at"}

func TestExamResultRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExamResultRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO exam_results")).
		WithArgs(sqlmock.AnyArg(), "learner-1", "math", 40, 30, 6, 4, 28.5, sqlmock.AnyArg(), 0.25, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	result := &models.ExamResult{LearnerID: "learner-1", Subject: "math", Total: 40, Correct: 30, Wrong: 6, Empty: 4, Net: 28.5, Efficiency: 83.3, Penalty: 0.25}
	require.NoError(t, repo.Create(context.Background(), result))
	assert.NotEmpty(t, result.ID)
	assert.False(t, result.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamResultRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExamResultRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM exam_results WHERE learner_id = $1 AND subject = $2")).
		WithArgs("learner-1", "math").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM exam_results WHERE learner_id = $1 AND subject = $2 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("learner-1", "math").
		WillReturnRows(sqlmock.NewRows(examResultRowColumns).
			AddRow("r-1", "learner-1", "math", 40, 30, 6, 4, 28.5, 83.3, 0.25, time.Now()))

	results, total, err := repo.List(context.Background(), "learner-1", ExamResultFilter{Subject: "math"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, results, 1)
	assert.Equal(t, 40, results[0].Total)
	assert.True(t, results[0].Score().EfficiencyDefined)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamResultRepositoryLatestPerSubject(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT ON (subject)")).
		WithArgs("learner-1").
		WillReturnRows(sqlmock.NewRows(examResultRowColumns).
			AddRow("r-1", "learner-1", "math", 40, 30, 6, 4, 28.5, 83.3, 0.25, time.Now()).
			AddRow("r-2", "learner-1", "physics", 20, 5, 10, 5, 2.5, 33.3, 0.25, time.Now()))

	results, err := NewExamResultRepository(db).LatestPerSubject(context.Background(), "learner-1")
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
