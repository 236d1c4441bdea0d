package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/study-planner-api/internal/dto"
	internalmiddleware "github.com/noah-isme/study-planner-api/internal/middleware"
	"github.com/noah-isme/study-planner-api/internal/models"
	"github.com/noah-isme/study-planner-api/internal/service"
	appErrors "github.com/noah-isme/study-planner-api/pkg/errors"
)

type studyPlannerMock struct {
	learnerID string
	optimize  dto.OptimizeRequest
	save      dto.SaveProposalRequest
	saveErr   error
}

func (m *studyPlannerMock) Optimize(_ context.Context, learnerID string, req dto.OptimizeRequest) (*dto.OptimizeResponse, error) {
	m.learnerID = learnerID
	m.optimize = req
	return &dto.OptimizeResponse{ProposalID: "proposal-1", Schedule: &models.OptimizedSchedule{}}, nil
}

func (m *studyPlannerMock) DetectConflicts(_ context.Context, learnerID string, _ dto.ConflictsRequest) (*dto.ConflictsResponse, error) {
	m.learnerID = learnerID
	return &dto.ConflictsResponse{}, nil
}

func (m *studyPlannerMock) AvailableSlots(_ context.Context, learnerID string, _ dto.SlotsRequest) (*dto.SlotsResponse, error) {
	m.learnerID = learnerID
	return &dto.SlotsResponse{}, nil
}

func (m *studyPlannerMock) SaveProposal(_ context.Context, learnerID, proposalID string, req dto.SaveProposalRequest) (*dto.StudyScheduleResponse, error) {
	m.learnerID = learnerID
	m.save = req
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	return &dto.StudyScheduleResponse{ID: "sch-" + proposalID, Version: 1}, nil
}

func (m *studyPlannerMock) ListSchedules(_ context.Context, learnerID string, _ dto.StudyScheduleQuery) ([]dto.StudyScheduleResponse, *models.Pagination, error) {
	m.learnerID = learnerID
	return []dto.StudyScheduleResponse{}, &models.Pagination{Page: 1, PageSize: 20}, nil
}

func (m *studyPlannerMock) GetSchedule(_ context.Context, learnerID, id string) (*dto.StudyScheduleResponse, error) {
	m.learnerID = learnerID
	return &dto.StudyScheduleResponse{ID: id}, nil
}

func (m *studyPlannerMock) DeleteSchedule(_ context.Context, learnerID, _ string) error {
	m.learnerID = learnerID
	return nil
}

func (m *studyPlannerMock) ExportSchedule(_ context.Context, learnerID, _ string) (*service.ScheduleExport, error) {
	m.learnerID = learnerID
	return &service.ScheduleExport{Filename: "study-schedule-v2.csv", ContentType: "text/csv; charset=utf-8", Data: []byte("date\n")}, nil
}

func (m *studyPlannerMock) GetPreferences(_ context.Context, learnerID string) (*dto.PreferencesRequest, error) {
	m.learnerID = learnerID
	return &dto.PreferencesRequest{}, nil
}

func (m *studyPlannerMock) UpdatePreferences(_ context.Context, learnerID string, req dto.PreferencesRequest) (*dto.PreferencesRequest, error) {
	m.learnerID = learnerID
	return &req, nil
}

func (m *studyPlannerMock) ListCommitments(_ context.Context, learnerID string, _ dto.CommitmentQuery) ([]models.Commitment, error) {
	m.learnerID = learnerID
	return nil, nil
}

func (m *studyPlannerMock) CreateCommitment(_ context.Context, learnerID string, req dto.CommitmentRequest) (*models.Commitment, error) {
	m.learnerID = learnerID
	return &models.Commitment{LearnerID: learnerID, Label: req.Label}, nil
}

func withClaims(userID string, role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{UserID: userID, Role: role})
		c.Next()
	}
}

func plannerRouter(mock *studyPlannerMock, userID string, role models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &PlannerHandler{service: mock}
	router := gin.New()
	router.Use(withClaims(userID, role))
	router.POST("/planner/optimize", h.Optimize)
	router.POST("/planner/proposals/:id/save", h.SaveProposal)
	router.GET("/planner/schedules/:id/export", h.ExportSchedule)
	delegated := router.Group("/learners/:learnerID", internalmiddleware.RBAC(string(models.RoleTutor), "SELF"))
	delegated.POST("/planner/optimize", h.Optimize)
	return router
}

func TestPlannerHandlerOptimizeActsOnCaller(t *testing.T) {
	mock := &studyPlannerMock{}
	router := plannerRouter(mock, "learner-1", models.RoleLearner)

	body := `{"constraints":{"startDate":"2025-03-03","dayStart":"09:00","dayEnd":"17:00","horizonDays":5},"seed":7}`
	req := httptest.NewRequest(http.MethodPost, "/planner/optimize", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "learner-1", mock.learnerID)
	assert.Equal(t, 5, mock.optimize.Constraints.HorizonDays)
	require.NotNil(t, mock.optimize.Seed)
	assert.EqualValues(t, 7, *mock.optimize.Seed)

	var envelope struct {
		Data dto.OptimizeResponse `json:"data"`
		Meta map[string]string    `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "proposal-1", envelope.Data.ProposalID)
	assert.Equal(t, "preview", envelope.Meta["mode"])
}

func TestPlannerHandlerDelegatedRoutes(t *testing.T) {
	mock := &studyPlannerMock{}
	tutor := plannerRouter(mock, "tutor-1", models.RoleTutor)

	req := httptest.NewRequest(http.MethodPost, "/learners/learner-9/planner/optimize", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	tutor.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "learner-9", mock.learnerID)

	other := plannerRouter(&studyPlannerMock{}, "learner-1", models.RoleLearner)
	req = httptest.NewRequest(http.MethodPost, "/learners/learner-9/planner/optimize", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	other.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPlannerHandlerOptimizeMalformedJSON(t *testing.T) {
	router := plannerRouter(&studyPlannerMock{}, "learner-1", models.RoleLearner)

	req := httptest.NewRequest(http.MethodPost, "/planner/optimize", bytes.NewBufferString(`{"constraints":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlannerHandlerSaveProposal(t *testing.T) {
	mock := &studyPlannerMock{}
	router := plannerRouter(mock, "learner-1", models.RoleLearner)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/planner/proposals/p-1/save", nil))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, mock.save.Status)

	req := httptest.NewRequest(http.MethodPost, "/planner/proposals/p-1/save", bytes.NewBufferString(`{"status":"PUBLISHED"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "PUBLISHED", mock.save.Status)

	mock.saveErr = appErrors.Clone(appErrors.ErrConflict, "proposal overlaps 1 stored commitment(s)")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/planner/proposals/p-1/save", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "CONFLICT")
}

func TestPlannerHandlerExportSchedule(t *testing.T) {
	router := plannerRouter(&studyPlannerMock{}, "learner-1", models.RoleLearner)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/planner/schedules/sch-1/export", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="study-schedule-v2.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "date\n", w.Body.String())
}

func TestPlannerHandlerRequiresIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &PlannerHandler{service: &studyPlannerMock{}}
	router := gin.New()
	router.GET("/planner/preferences", h.GetPreferences)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/planner/preferences", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
