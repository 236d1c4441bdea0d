package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/study-planner-api/internal/dto"
	"github.com/noah-isme/study-planner-api/internal/models"
	"github.com/noah-isme/study-planner-api/internal/planner"
	"github.com/noah-isme/study-planner-api/internal/repository"
	appErrors "github.com/noah-isme/study-planner-api/pkg/errors"
	"github.com/noah-isme/study-planner-api/pkg/export"
)

var scheduleExportHeaders = []string{"date", "start", "end", "minutes", "kind", "subject"}

// ScheduleExport is a rendered schedule download.
type ScheduleExport struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ListSchedules pages through the learner's saved schedules.
func (s *StudyPlannerService) ListSchedules(ctx context.Context, learnerID string, query dto.StudyScheduleQuery) ([]dto.StudyScheduleResponse, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule query")
	}
	page, size := normalizePage(query.Page, query.PageSize)
	records, total, err := s.schedules.ListByLearner(ctx, learnerID, repository.StudyScheduleFilter{
		Status: models.StudyScheduleStatus(query.Status),
		Limit:  size,
		Offset: (page - 1) * size,
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list study schedules")
	}

	items := make([]dto.StudyScheduleResponse, 0, len(records))
	for _, record := range records {
		schedule, err := decodeSchedule(record.Blocks)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode study schedule")
		}
		items = append(items, *scheduleResponse(record, schedule))
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// GetSchedule loads one saved schedule of the learner.
func (s *StudyPlannerService) GetSchedule(ctx context.Context, learnerID, id string) (*dto.StudyScheduleResponse, error) {
	record, err := s.schedules.FindByID(ctx, learnerID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "study schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load study schedule")
	}
	schedule, err := decodeSchedule(record.Blocks)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode study schedule")
	}
	return scheduleResponse(*record, schedule), nil
}

// DeleteSchedule removes a saved schedule version.
func (s *StudyPlannerService) DeleteSchedule(ctx context.Context, learnerID, id string) error {
	if err := s.schedules.Delete(ctx, learnerID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "study schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete study schedule")
	}
	return nil
}

// ExportSchedule renders a saved schedule as CSV, one row per time block.
func (s *StudyPlannerService) ExportSchedule(ctx context.Context, learnerID, id string) (*ScheduleExport, error) {
	saved, err := s.GetSchedule(ctx, learnerID, id)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]string, 0)
	if saved.Schedule != nil {
		for _, block := range saved.Schedule.TimeBlocks {
			subject := block.Label
			if block.Kind == models.BlockKindBreak {
				subject = ""
			}
			rows = append(rows, map[string]string{
				"date":    block.Start.Format("2006-01-02"),
				"start":   block.Start.Format("15:04"),
				"end":     block.End.Format("15:04"),
				"minutes": strconv.Itoa(int(block.Duration() / time.Minute)),
				"kind":    string(block.Kind),
				"subject": subject,
			})
		}
	}

	data, err := export.NewCSVExporter().Render(export.Dataset{Headers: scheduleExportHeaders, Rows: rows})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render schedule export")
	}
	return &ScheduleExport{
		Filename:    fmt.Sprintf("study-schedule-v%d.csv", saved.Version),
		ContentType: export.ContentTypeCSV,
		Data:        data,
	}, nil
}

// GetPreferences returns the learner's stored preferences.
func (s *StudyPlannerService) GetPreferences(ctx context.Context, learnerID string) (*dto.PreferencesRequest, error) {
	prefs, err := loadPreferences(ctx, s.prefs, learnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "preferences not set")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load preferences")
	}
	return prefs, nil
}

// UpdatePreferences validates and stores the learner's preferences. Cached
// optimizations of the learner are dropped.
func (s *StudyPlannerService) UpdatePreferences(ctx context.Context, learnerID string, req dto.PreferencesRequest) (*dto.PreferencesRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preferences payload")
	}
	if err := planner.ValidatePreferences(req.ToModel()); err != nil {
		return nil, plannerError(err, "invalid preferences")
	}
	if err := storePreferences(ctx, s.prefs, learnerID, req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store preferences")
	}
	s.invalidate(ctx, learnerID)
	return &req, nil
}

// ListCommitments returns the learner's commitments intersecting the query range.
func (s *StudyPlannerService) ListCommitments(ctx context.Context, learnerID string, query dto.CommitmentQuery) ([]models.Commitment, error) {
	if !query.From.IsZero() && !query.To.IsZero() && !query.From.Before(query.To) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from must be before to")
	}
	items, err := s.commitments.ListOverlapping(ctx, nil, learnerID, query.From, query.To)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list commitments")
	}
	return items, nil
}

// CreateCommitment stores a fixed appointment for the learner.
func (s *StudyPlannerService) CreateCommitment(ctx context.Context, learnerID string, req dto.CommitmentRequest) (*models.Commitment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid commitment payload")
	}
	commitment := &models.Commitment{
		LearnerID: learnerID,
		Label:     req.Label,
		StartsAt:  req.Start.UTC(),
		EndsAt:    req.End.UTC(),
		Priority:  req.Priority,
	}
	if err := s.commitments.Create(ctx, commitment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create commitment")
	}
	s.invalidate(ctx, learnerID)
	return commitment, nil
}

func (s *StudyPlannerService) invalidate(ctx context.Context, learnerID string) {
	if err := s.cache.InvalidateLearner(ctx, learnerID); err != nil {
		s.logger.Warn("invalidate optimization cache failed", zap.String("learner_id", learnerID), zap.Error(err))
	}
}

func loadPreferences(ctx context.Context, store preferenceStore, learnerID string) (*dto.PreferencesRequest, error) {
	if store == nil {
		return nil, sql.ErrNoRows
	}
	record, err := store.FindByLearner(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	var prefs dto.PreferencesRequest
	if err := json.Unmarshal(record.Preferences, &prefs); err != nil {
		return nil, fmt.Errorf("decode stored preferences: %w", err)
	}
	return &prefs, nil
}

func storePreferences(ctx context.Context, store preferenceStore, learnerID string, prefs dto.PreferencesRequest) error {
	payload, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	return store.Upsert(ctx, &models.StudyPreference{LearnerID: learnerID, Preferences: types.JSONText(payload)})
}

func decodeSchedule(raw types.JSONText) (*models.OptimizedSchedule, error) {
	schedule := &models.OptimizedSchedule{}
	if len(raw) == 0 {
		return schedule, nil
	}
	if err := json.Unmarshal(raw, schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

func scheduleResponse(record models.StudySchedule, schedule *models.OptimizedSchedule) *dto.StudyScheduleResponse {
	return &dto.StudyScheduleResponse{
		ID:        record.ID,
		Version:   record.Version,
		Status:    record.Status,
		Seed:      record.Seed,
		Fitness:   record.Fitness,
		Schedule:  schedule,
		CreatedAt: record.CreatedAt,
	}
}

func normalizePage(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return page, size
}
