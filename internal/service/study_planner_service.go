package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/study-planner-api/internal/dto"
	"github.com/noah-isme/study-planner-api/internal/models"
	"github.com/noah-isme/study-planner-api/internal/planner"
	"github.com/noah-isme/study-planner-api/internal/repository"
	"github.com/noah-isme/study-planner-api/pkg/config"
	appErrors "github.com/noah-isme/study-planner-api/pkg/errors"
	"github.com/noah-isme/study-planner-api/pkg/events"
	"github.com/noah-isme/study-planner-api/pkg/logger"
)

type studyScheduleStore interface {
	CreateVersioned(ctx context.Context, exec sqlx.ExtContext, schedule *models.StudySchedule) error
	ArchivePublished(ctx context.Context, exec sqlx.ExtContext, learnerID string) (int64, error)
	ListByLearner(ctx context.Context, learnerID string, filter repository.StudyScheduleFilter) ([]models.StudySchedule, int, error)
	FindByID(ctx context.Context, learnerID, id string) (*models.StudySchedule, error)
	Delete(ctx context.Context, learnerID, id string) error
}

type commitmentStore interface {
	Create(ctx context.Context, commitment *models.Commitment) error
	ListOverlapping(ctx context.Context, exec sqlx.ExtContext, learnerID string, from, to time.Time) ([]models.Commitment, error)
}

type preferenceStore interface {
	FindByLearner(ctx context.Context, learnerID string) (*models.StudyPreference, error)
	Upsert(ctx context.Context, pref *models.StudyPreference) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// StudyPlannerConfig governs optimizer tuning and proposal lifetime.
type StudyPlannerConfig struct {
	Engine      planner.Config
	ProposalTTL time.Duration
	CacheTTL    time.Duration
}

// StudyPlannerConfigFrom maps application config onto the service config.
func StudyPlannerConfigFrom(cfg config.PlannerConfig) StudyPlannerConfig {
	return StudyPlannerConfig{
		Engine: planner.Config{
			PopulationSize:   cfg.PopulationSize,
			Generations:      cfg.Generations,
			MutationRate:     cfg.MutationRate,
			TournamentSize:   cfg.TournamentSize,
			EliteCount:       cfg.EliteCount,
			StallGenerations: cfg.StallGenerations,
			Workers:          cfg.Workers,
			Utilization:      cfg.Utilization,
			Weights: planner.FitnessWeights{
				Energy:     cfg.FitnessWeights.Energy,
				Allocation: cfg.FitnessWeights.Allocation,
				Constraint: cfg.FitnessWeights.Constraint,
			},
			MinSlotLength:  cfg.MinSlotLength,
			MinFocusLength: cfg.MinFocusLength,
			TimeBudget:     cfg.TimeBudget,
		},
		ProposalTTL: cfg.ProposalTTL,
		CacheTTL:    cfg.CacheTTL,
	}
}

// StudyPlannerService runs the optimizer for learners and manages saved schedules.
type StudyPlannerService struct {
	schedules   studyScheduleStore
	commitments commitmentStore
	prefs       preferenceStore
	tx          txProvider
	cache       *CacheService
	metrics     *MetricsService
	publisher   events.Publisher
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         StudyPlannerConfig
	store       *proposalStore
}

// NewStudyPlannerService wires planner dependencies.
func NewStudyPlannerService(
	schedules studyScheduleStore,
	commitments commitmentStore,
	prefs preferenceStore,
	tx txProvider,
	cache *CacheService,
	metrics *MetricsService,
	publisher events.Publisher,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg StudyPlannerConfig,
) *StudyPlannerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	return &StudyPlannerService{
		schedules:   schedules,
		commitments: commitments,
		prefs:       prefs,
		tx:          tx,
		cache:       cache,
		metrics:     metrics,
		publisher:   publisher,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		store:       newProposalStore(cfg.ProposalTTL),
	}
}

type optimizeInput struct {
	Preferences dto.PreferencesRequest       `json:"preferences"`
	Constraints models.SchedulingConstraints `json:"constraints"`
	Seed        int64                        `json:"seed"`
}

type cachedOptimization struct {
	Schedule *models.OptimizedSchedule `json:"schedule"`
	Stats    dto.OptimizeStats         `json:"stats"`
}

// Optimize builds a schedule proposal for the learner. Without an explicit
// seed the seed is derived from the request, so identical requests return
// identical proposals and can be served from cache.
func (s *StudyPlannerService) Optimize(ctx context.Context, learnerID string, req dto.OptimizeRequest) (*dto.OptimizeResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid optimize payload")
	}

	prefsReq, err := s.resolvePreferences(ctx, learnerID, req.Preferences)
	if err != nil {
		return nil, err
	}
	constraints, err := s.resolveConstraints(ctx, learnerID, req.Constraints)
	if err != nil {
		return nil, err
	}

	input := optimizeInput{Preferences: *prefsReq, Constraints: constraints}
	if req.Seed != nil {
		input.Seed = *req.Seed
	} else if input.Seed, err = deriveSeed(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to derive seed")
	}

	key, err := OptimizeKey(learnerID, input)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build cache key")
	}

	var cached cachedOptimization
	if hit, _ := s.cache.Get(ctx, key, &cached); hit && cached.Schedule != nil {
		s.metrics.ObserveOptimization(OptimizationOutcomeCached, 0, cached.Stats.Fitness, cached.Stats.Generations)
		return s.propose(learnerID, input.Seed, cached, true), nil
	}

	cfg := s.cfg.Engine
	cfg.Seed = input.Seed
	start := time.Now()
	result, err := planner.Optimize(ctx, prefsReq.ToModel(), constraints, cfg)
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.ObserveOptimization(OptimizationOutcomeFailed, elapsed, 0, 0)
		return nil, plannerError(err, "failed to optimize schedule")
	}

	outcome := optimizationOutcome(result)
	s.metrics.ObserveOptimization(outcome, elapsed, result.Fitness, result.Generations)
	logger.WithRequest(ctx, s.logger).Info("schedule optimized",
		zap.String("learner_id", learnerID),
		zap.Int64("seed", input.Seed),
		zap.Int("slots", result.SlotCount),
		zap.Int("generations", result.Generations),
		zap.Float64("fitness", result.Fitness),
		zap.String("outcome", outcome),
		zap.Duration("duration", elapsed),
	)

	computed := cachedOptimization{
		Schedule: result.Schedule,
		Stats: dto.OptimizeStats{
			SlotCount:   result.SlotCount,
			Generations: result.Generations,
			Fitness:     result.Fitness,
			Stalled:     result.Stalled,
			Aborted:     result.Aborted,
			DurationMs:  elapsed.Milliseconds(),
		},
	}
	// an aborted search depends on wall time, so it is not reproducible
	if !result.Aborted {
		_ = s.cache.Set(ctx, key, computed, s.cfg.CacheTTL)
	}
	return s.propose(learnerID, input.Seed, computed, false), nil
}

func (s *StudyPlannerService) propose(learnerID string, seed int64, result cachedOptimization, cached bool) *dto.OptimizeResponse {
	proposal := studyProposal{
		ID:          uuid.NewString(),
		LearnerID:   learnerID,
		Seed:        seed,
		Schedule:    result.Schedule,
		Stats:       result.Stats,
		RequestedAt: time.Now().UTC(),
	}
	s.store.Save(proposal)
	return &dto.OptimizeResponse{
		ProposalID: proposal.ID,
		ExpiresAt:  proposal.RequestedAt.Add(s.store.ttl),
		Seed:       seed,
		Cached:     cached,
		Schedule:   result.Schedule,
		Stats:      result.Stats,
	}
}

// DetectConflicts reports overlaps between a proposed schedule and existing blocks.
func (s *StudyPlannerService) DetectConflicts(ctx context.Context, learnerID string, req dto.ConflictsRequest) (*dto.ConflictsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflicts payload")
	}
	schedule := dto.Blocks(req.Schedule, models.BlockKindStudy)
	existing := dto.Blocks(req.Existing, models.BlockKindCommitment)
	if err := planner.ValidateBlocks(schedule); err != nil {
		return nil, plannerError(err, "invalid schedule block")
	}
	if err := planner.ValidateBlocks(existing); err != nil {
		return nil, plannerError(err, "invalid existing block")
	}

	if req.UseStoredCommitments {
		from, to := blockSpan(schedule)
		stored, err := s.storedCommitments(ctx, nil, learnerID, from, to)
		if err != nil {
			return nil, err
		}
		existing = append(existing, stored...)
	}

	conflicts := planner.DetectConflicts(schedule, existing)
	resp := &dto.ConflictsResponse{Conflicts: conflicts, Count: len(conflicts)}
	for _, c := range conflicts {
		resp.MaxSeverity = math.Max(resp.MaxSeverity, c.Severity)
	}
	return resp, nil
}

// AvailableSlots lists the free slots of the requested horizon.
func (s *StudyPlannerService) AvailableSlots(ctx context.Context, learnerID string, req dto.SlotsRequest) (*dto.SlotsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slots payload")
	}
	constraints, err := s.resolveConstraints(ctx, learnerID, req.Constraints)
	if err != nil {
		return nil, err
	}
	if err := planner.ValidateConstraints(constraints); err != nil {
		return nil, plannerError(err, "invalid constraints")
	}

	slots := planner.FindAvailableSlots(constraints, planner.SlotOptions{
		MaxLength: time.Duration(req.MaxSlotMinutes) * time.Minute,
		MinLength: s.cfg.Engine.MinSlotLength,
	})
	resp := &dto.SlotsResponse{Slots: slots}
	for _, slot := range slots {
		resp.TotalMinutes += int(slot.Duration() / time.Minute)
	}
	return resp, nil
}

// SaveProposal persists a proposal as the learner's next schedule version.
// Publishing archives the previously published versions in the same transaction.
func (s *StudyPlannerService) SaveProposal(ctx context.Context, learnerID, proposalID string, req dto.SaveProposalRequest) (*dto.StudyScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save proposal payload")
	}
	proposal, ok := s.store.Get(proposalID)
	if !ok || proposal.LearnerID != learnerID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	if proposal.Schedule.IsEmpty() {
		return nil, appErrors.Clone(appErrors.ErrUnprocessable, "proposal contains no study blocks")
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	blocks, marshalErr := json.Marshal(proposal.Schedule)
	if marshalErr != nil {
		return nil, appErrors.Wrap(marshalErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode schedule")
	}
	meta, marshalErr := json.Marshal(map[string]any{
		"stats":      proposal.Stats,
		"proposalId": proposal.ID,
		"generated":  proposal.RequestedAt,
		"algorithm":  "genetic_v1",
	})
	if marshalErr != nil {
		return nil, appErrors.Wrap(marshalErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode schedule metadata")
	}

	status := models.StudyScheduleStatusDraft
	if req.Status != "" {
		status = models.StudyScheduleStatus(req.Status)
	}
	record := &models.StudySchedule{
		LearnerID: learnerID,
		Status:    status,
		Seed:      proposal.Seed,
		Fitness:   proposal.Stats.Fitness,
		Blocks:    types.JSONText(blocks),
		Meta:      types.JSONText(meta),
	}

	started := time.Now()
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	from, to := blockSpan(proposal.Schedule.TimeBlocks)
	var commitments []models.TimeBlock
	if commitments, err = s.storedCommitments(ctx, tx, learnerID, from, to); err != nil {
		return nil, err
	}
	if conflicts := planner.DetectConflicts(proposal.Schedule.TimeBlocks, commitments); len(conflicts) > 0 {
		err = appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("proposal overlaps %d stored commitment(s)", len(conflicts)))
		return nil, err
	}

	if status == models.StudyScheduleStatusPublished {
		if _, err = s.schedules.ArchivePublished(ctx, tx, learnerID); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive published schedules")
			return nil, err
		}
	}
	if err = s.schedules.CreateVersioned(ctx, tx, record); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create study schedule")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit schedule transaction")
		return nil, err
	}
	s.metrics.ObserveDBQuery("study_schedule.save", time.Since(started))
	s.store.Delete(proposalID)

	if pubErr := s.publisher.Publish(ctx, events.Event{
		Type:      events.TypeStudyScheduleSaved,
		LearnerID: learnerID,
		Payload: map[string]any{
			"scheduleId": record.ID,
			"version":    record.Version,
			"status":     record.Status,
			"fitness":    record.Fitness,
			"blocks":     len(proposal.Schedule.TimeBlocks),
		},
	}); pubErr != nil {
		s.logger.Warn("publish schedule saved event failed", zap.String("schedule_id", record.ID), zap.Error(pubErr))
	}

	logger.WithRequest(ctx, s.logger).Info("study schedule saved",
		zap.String("learner_id", learnerID),
		zap.String("schedule_id", record.ID),
		zap.Int("version", record.Version),
		zap.String("status", string(record.Status)),
	)
	return scheduleResponse(*record, proposal.Schedule), nil
}

func (s *StudyPlannerService) resolvePreferences(ctx context.Context, learnerID string, explicit *dto.PreferencesRequest) (*dto.PreferencesRequest, error) {
	prefs := explicit
	if prefs == nil {
		stored, err := loadPreferences(ctx, s.prefs, learnerID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no preferences supplied and none stored for learner")
		}
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load preferences")
		}
		prefs = stored
	}
	if err := s.validator.Struct(prefs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preferences")
	}
	return prefs, nil
}

func (s *StudyPlannerService) resolveConstraints(ctx context.Context, learnerID string, req dto.ConstraintsRequest) (models.SchedulingConstraints, error) {
	constraints, err := req.ToModel()
	if err != nil {
		return models.SchedulingConstraints{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if !req.UseStoredCommitments {
		return constraints, nil
	}
	from := constraints.StartDate
	to := from.AddDate(0, 0, constraints.HorizonDays+1)
	stored, err := s.storedCommitments(ctx, nil, learnerID, from, to)
	if err != nil {
		return models.SchedulingConstraints{}, err
	}
	constraints.ExistingCommitments = append(constraints.ExistingCommitments, stored...)
	return constraints, nil
}

func (s *StudyPlannerService) storedCommitments(ctx context.Context, exec sqlx.ExtContext, learnerID string, from, to time.Time) ([]models.TimeBlock, error) {
	if s.commitments == nil {
		return nil, nil
	}
	items, err := s.commitments.ListOverlapping(ctx, exec, learnerID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load commitments")
	}
	blocks := make([]models.TimeBlock, 0, len(items))
	for _, item := range items {
		blocks = append(blocks, item.Block())
	}
	return blocks, nil
}

func plannerError(err error, message string) error {
	if errors.Is(err, planner.ErrInvalidInput) || errors.Is(err, planner.ErrInvalidInterval) {
		return appErrors.WrapAs(err, appErrors.ErrValidation, err.Error())
	}
	return appErrors.WrapAs(err, appErrors.ErrInternal, message)
}

func optimizationOutcome(result *planner.Result) string {
	switch {
	case result.Schedule.IsEmpty():
		return OptimizationOutcomeEmpty
	case result.Aborted:
		return OptimizationOutcomeAborted
	case result.Stalled:
		return OptimizationOutcomeStalled
	default:
		return OptimizationOutcomeConverged
	}
}

func deriveSeed(input interface{}) (int64, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return 0, err
	}
	return planner.SeedFrom(payload), nil
}

func blockSpan(blocks []models.TimeBlock) (time.Time, time.Time) {
	var from, to time.Time
	for i, b := range blocks {
		if i == 0 || b.Start.Before(from) {
			from = b.Start
		}
		if i == 0 || b.End.After(to) {
			to = b.End
		}
	}
	return from, to
}

type studyProposal struct {
	ID          string
	LearnerID   string
	Seed        int64
	Schedule    *models.OptimizedSchedule
	Stats       dto.OptimizeStats
	RequestedAt time.Time
}

type proposalStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]studyProposal
}

func newProposalStore(ttl time.Duration) *proposalStore {
	return &proposalStore{
		ttl:   ttl,
		items: make(map[string]studyProposal),
	}
}

// Save stores the proposal and evicts expired ones.
func (s *proposalStore) Save(proposal studyProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, item := range s.items {
		if time.Since(item.RequestedAt) > s.ttl {
			delete(s.items, id)
		}
	}
	s.items[proposal.ID] = proposal
}

func (s *proposalStore) Get(id string) (studyProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return studyProposal{}, false
	}
	if time.Since(proposal.RequestedAt) > s.ttl {
		s.Delete(id)
		return studyProposal{}, false
	}
	return proposal, true
}

func (s *proposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
