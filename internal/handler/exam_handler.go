package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/study-planner-api/internal/dto"
	"github.com/noah-isme/study-planner-api/internal/models"
	"github.com/noah-isme/study-planner-api/internal/service"
	appErrors "github.com/noah-isme/study-planner-api/pkg/errors"
	"github.com/noah-isme/study-planner-api/pkg/response"
)

type examScorer interface {
	Score(ctx context.Context, learnerID string, req dto.ScoreExamRequest) (*dto.ScoreExamResponse, error)
	ListResults(ctx context.Context, learnerID string, query dto.ExamResultQuery) ([]models.ExamResult, *models.Pagination, error)
}

// ExamHandler exposes exam scoring endpoints.
type ExamHandler struct {
	service examScorer
}

// NewExamHandler constructs the handler.
func NewExamHandler(svc *service.ExamScoreService) *ExamHandler {
	return &ExamHandler{service: svc}
}

// Score godoc
// @Summary Score an exam attempt
// @Description Computes the net score with the wrong-answer penalty and queues subject weight feedback.
// @Tags Exams
// @Accept json
// @Produce json
// @Param payload body dto.ScoreExamRequest true "Exam attempt"
// @Success 201 {object} response.Envelope
// @Router /exams/score [post]
func (h *ExamHandler) Score(c *gin.Context) {
	learnerID, err := learnerFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ScoreExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid exam payload"))
		return
	}
	result, err := h.service.Score(c.Request.Context(), learnerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Results godoc
// @Summary List scored exam results
// @Tags Exams
// @Produce json
// @Param subject query string false "Subject filter"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /exams/results [get]
func (h *ExamHandler) Results(c *gin.Context) {
	learnerID, err := learnerFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var query dto.ExamResultQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	items, pagination, err := h.service.ListResults(c.Request.Context(), learnerID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}
