package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/study-planner-api/internal/dto"
	"github.com/noah-isme/study-planner-api/internal/models"
)

type examScorerMock struct {
	learnerID string
	req       dto.ScoreExamRequest
	query     dto.ExamResultQuery
}

func (m *examScorerMock) Score(_ context.Context, learnerID string, req dto.ScoreExamRequest) (*dto.ScoreExamResponse, error) {
	m.learnerID = learnerID
	m.req = req
	return &dto.ScoreExamResponse{Score: models.NetScore{Correct: 1}}, nil
}

func (m *examScorerMock) ListResults(_ context.Context, learnerID string, query dto.ExamResultQuery) ([]models.ExamResult, *models.Pagination, error) {
	m.learnerID = learnerID
	m.query = query
	return []models.ExamResult{}, &models.Pagination{Page: query.Page, PageSize: 20}, nil
}

func TestExamHandlerScore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &examScorerMock{}
	h := &ExamHandler{service: mock}
	router := gin.New()
	router.Use(withClaims("learner-1", models.RoleLearner))
	router.POST("/exams/score", h.Score)

	body := `{"subject":"math","totalQuestions":3,"answers":[{"isCorrect":true,"selectedAnswer":"A"},{"isCorrect":false,"selectedAnswer":"C"},{"isCorrect":false}],"wrongPenalty":0.25}`
	req := httptest.NewRequest(http.MethodPost, "/exams/score", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "learner-1", mock.learnerID)
	require.Len(t, mock.req.Answers, 3)
	assert.Nil(t, mock.req.Answers[2].SelectedAnswer)
	require.NotNil(t, mock.req.WrongPenalty)
}

func TestExamHandlerResultsBindsQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &examScorerMock{}
	h := &ExamHandler{service: mock}
	router := gin.New()
	router.Use(withClaims("learner-1", models.RoleLearner))
	router.GET("/exams/results", h.Results)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/exams/results?subject=physics&page=2&page_size=5", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "physics", mock.query.Subject)
	assert.Equal(t, 2, mock.query.Page)
	assert.Equal(t, 5, mock.query.PageSize)
	assert.Contains(t, w.Body.String(), `"pagination"`)
}
