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

type studyPlanner interface {
	Optimize(ctx context.Context, learnerID string, req dto.OptimizeRequest) (*dto.OptimizeResponse, error)
	DetectConflicts(ctx context.Context, learnerID string, req dto.ConflictsRequest) (*dto.ConflictsResponse, error)
	AvailableSlots(ctx context.Context, learnerID string, req dto.SlotsRequest) (*dto.SlotsResponse, error)
	SaveProposal(ctx context.Context, learnerID, proposalID string, req dto.SaveProposalRequest) (*dto.StudyScheduleResponse, error)
	ListSchedules(ctx context.Context, learnerID string, query dto.StudyScheduleQuery) ([]dto.StudyScheduleResponse, *models.Pagination, error)
	GetSchedule(ctx context.Context, learnerID, id string) (*dto.StudyScheduleResponse, error)
	DeleteSchedule(ctx context.Context, learnerID, id string) error
	ExportSchedule(ctx context.Context, learnerID, id string) (*service.ScheduleExport, error)
	GetPreferences(ctx context.Context, learnerID string) (*dto.PreferencesRequest, error)
	UpdatePreferences(ctx context.Context, learnerID string, req dto.PreferencesRequest) (*dto.PreferencesRequest, error)
	ListCommitments(ctx context.Context, learnerID string, query dto.CommitmentQuery) ([]models.Commitment, error)
	CreateCommitment(ctx context.Context, learnerID string, req dto.CommitmentRequest) (*models.Commitment, error)
}

// PlannerHandler exposes study planning endpoints.
type PlannerHandler struct {
	service studyPlanner
}

// NewPlannerHandler constructs the handler.
func NewPlannerHandler(svc *service.StudyPlannerService) *PlannerHandler {
	return &PlannerHandler{service: svc}
}

// Optimize godoc
// @Summary Optimize a study schedule
// @Description Runs the genetic optimizer and returns a proposal that can be saved before it expires.
// @Tags Planner
// @Accept json
// @Produce json
// @Param payload body dto.OptimizeRequest true "Optimize payload"
// @Success 200 {object} response.Envelope
// @Router /planner/optimize [post]
func (h *PlannerHandler) Optimize(c *gin.Context) {
	learnerID, err := learnerFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid optimize payload"))
		return
	}
	result, err := h.service.Optimize(c.Request.Context(), learnerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, map[string]interface{}{"mode": "preview"})
}

// Conflicts godoc
// @Summary Detect conflicts between a schedule and existing blocks
// @Tags Planner
// @Accept json
// @Produce json
// @Param payload body dto.ConflictsRequest true "Conflict check payload"
// @Success 200 {object} response.Envelope
// @Router /planner/conflicts [post]
func (h *PlannerHandler) Conflicts(c *gin.Context) {
	learnerID, err := learnerFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ConflictsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid conflicts payload"))
		return
	}
	result, err := h.service.DetectConflicts(c.Request.Context(), learnerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Slots godoc
// @Summary List available study slots
// @Tags Planner
// @Accept json
// @Produce json
// @Param payload body dto.SlotsRequest true "Slots payload"
// @Success 200 {object} response.Envelope
// @Router /planner/slots [post]
func (h *PlannerHandler) Slots(c *gin.Context) {
	learnerID, err := learnerFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.SlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid slots payload"))
		return
	}
	result, err := h.service.AvailableSlots(c.Request.Context(), learnerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// SaveProposal godoc
// @Summary Save an optimized proposal as a new schedule version
// @Tags Planner
// @Accept json
// @Produce json
// @Param id path string true "Proposal ID"
// @Param payload body dto.SaveProposalRequest false "Save payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /planner/proposals/{id}/save [post]
func (h *PlannerHandler) SaveProposal(c *gin.Context) {
	learnerID, err := learnerFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.SaveProposalRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid save payload"))
			return
		}
	}
	result, err := h.service.SaveProposal(c.Request.Context(), learnerID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// ListSchedules godoc
// @Summary List saved study schedules
// @Tags Planner
// @Produce json
// @Param status query string false "DRAFT, PUBLISHED or ARCHIVED"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /planner/schedules [get]
func (h *PlannerHandler) ListSchedules(c *gin.Context) {
	learnerID, err := learnerFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var query dto.StudyScheduleQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	items, pagination, err := h.service.ListSchedules(c.Request.Context(), learnerID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// GetSchedule godoc
// @Summary Get a saved study schedule
// @Tags Planner
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /planner/schedules/{id} [get]
func (h *PlannerHandler) GetSchedule(c *gin.Context) {
	learnerID, err := learnerFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.GetSchedule(c.Request.Context(), learnerID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// DeleteSchedule godoc
// @Summary Delete a saved study schedule
// @Tags Planner
// @Param id path string true "Schedule ID"
// @Success 204
// @Router /planner/schedules/{id} [delete]
func (h *PlannerHandler) DeleteSchedule(c *gin.Context) {
	learnerID, err := learnerFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.DeleteSchedule(c.Request.Context(), learnerID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ExportSchedule godoc
// @Summary Download a saved study schedule as CSV
// @Tags Planner
// @Produce text/csv
// @Param id path string true "Schedule ID"
// @Success 200 {file} file
// @Router /planner/schedules/{id}/export [get]
func (h *PlannerHandler) ExportSchedule(c *gin.Context) {
	learnerID, err := learnerFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.service.ExportSchedule(c.Request.Context(), learnerID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

// GetPreferences godoc
// @Summary Get stored study preferences
// @Tags Planner
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /planner/preferences [get]
func (h *PlannerHandler) GetPreferences(c *gin.Context) {
	learnerID, err := learnerFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.GetPreferences(c.Request.Context(), learnerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// UpdatePreferences godoc
// @Summary Replace stored study preferences
// @Tags Planner
// @Accept json
// @Produce json
// @Param payload body dto.PreferencesRequest true "Preferences"
// @Success 200 {object} response.Envelope
// @Router /planner/preferences [put]
func (h *PlannerHandler) UpdatePreferences(c *gin.Context) {
	learnerID, err := learnerFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid preferences payload"))
		return
	}
	result, err := h.service.UpdatePreferences(c.Request.Context(), learnerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ListCommitments godoc
// @Summary List fixed commitments
// @Tags Planner
// @Produce json
// @Param from query string false "RFC3339 lower bound"
// @Param to query string false "RFC3339 upper bound"
// @Success 200 {object} response.Envelope
// @Router /planner/commitments [get]
func (h *PlannerHandler) ListCommitments(c *gin.Context) {
	learnerID, err := learnerFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var query dto.CommitmentQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	items, err := h.service.ListCommitments(c.Request.Context(), learnerID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// CreateCommitment godoc
// @Summary Register a fixed commitment
// @Tags Planner
// @Accept json
// @Produce json
// @Param payload body dto.CommitmentRequest true "Commitment"
// @Success 201 {object} response.Envelope
// @Router /planner/commitments [post]
func (h *PlannerHandler) CreateCommitment(c *gin.Context) {
	learnerID, err := learnerFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CommitmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid commitment payload"))
		return
	}
	result, err := h.service.CreateCommitment(c.Request.Context(), learnerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
