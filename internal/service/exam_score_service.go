package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/study-planner-api/internal/dto"
	"github.com/noah-isme/study-planner-api/internal/models"
	"github.com/noah-isme/study-planner-api/internal/planner"
	"github.com/noah-isme/study-planner-api/internal/repository"
	appErrors "github.com/noah-isme/study-planner-api/pkg/errors"
	"github.com/noah-isme/study-planner-api/pkg/events"
	"github.com/noah-isme/study-planner-api/pkg/jobs"
)

// JobTypeSubjectWeights recomputes a learner's subject weights from exam results.
const JobTypeSubjectWeights = "subject_weights.recompute"

type examResultStore interface {
	Create(ctx context.Context, result *models.ExamResult) error
	List(ctx context.Context, learnerID string, filter repository.ExamResultFilter) ([]models.ExamResult, int, error)
	LatestPerSubject(ctx context.Context, learnerID string) ([]models.ExamResult, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// SubjectWeightsPayload identifies the learner and subject of a feedback job.
type SubjectWeightsPayload struct {
	LearnerID string
	Subject   string
}

// ExamScoreService scores exam attempts and feeds results back into preferences.
type ExamScoreService struct {
	results   examResultStore
	queue     jobEnqueuer
	publisher events.Publisher
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	penalty   float64
}

// NewExamScoreService wires exam scoring dependencies. A negative penalty
// falls back to the four-option default; zero disables the penalty.
func NewExamScoreService(results examResultStore, queue jobEnqueuer, publisher events.Publisher, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, penalty float64) *ExamScoreService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if penalty < 0 {
		penalty = planner.DefaultWrongAnswerPenalty
	}
	return &ExamScoreService{
		results:   results,
		queue:     queue,
		publisher: publisher,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		penalty:   penalty,
	}
}

// Score computes the net score, stores the result and queues the subject
// weight feedback. Feedback is best effort: a full queue does not fail scoring.
func (s *ExamScoreService) Score(ctx context.Context, learnerID string, req dto.ScoreExamRequest) (*dto.ScoreExamResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam payload")
	}

	penalty := s.penalty
	if req.WrongPenalty != nil {
		penalty = *req.WrongPenalty
	}
	attempt := models.ExamAttempt{TotalQuestions: req.TotalQuestions, Answers: make([]models.ExamAnswer, 0, len(req.Answers))}
	for _, answer := range req.Answers {
		attempt.Answers = append(attempt.Answers, models.ExamAnswer{IsCorrect: answer.IsCorrect, SelectedAnswer: answer.SelectedAnswer})
	}
	score, err := planner.NewNetScoreCalculator(penalty).Calculate(attempt)
	if err != nil {
		return nil, plannerError(err, "failed to score exam")
	}

	result := &models.ExamResult{
		LearnerID:  learnerID,
		Subject:    strings.TrimSpace(req.Subject),
		Total:      req.TotalQuestions,
		Correct:    score.Correct,
		Wrong:      score.Wrong,
		Empty:      score.Empty,
		Net:        score.Net,
		Efficiency: score.Efficiency,
		Penalty:    penalty,
	}
	if err := s.results.Create(ctx, result); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store exam result")
	}
	s.metrics.ObserveExamScored()

	if err := s.publisher.Publish(ctx, events.Event{
		Type:      events.TypeExamScored,
		LearnerID: learnerID,
		Payload: map[string]any{
			"resultId":   result.ID,
			"subject":    result.Subject,
			"net":        score.Net,
			"efficiency": score.Efficiency,
		},
	}); err != nil {
		s.logger.Warn("publish exam scored event failed", zap.String("result_id", result.ID), zap.Error(err))
	}

	queued := false
	if s.queue != nil && score.EfficiencyDefined {
		job := jobs.Job{
			ID:      uuid.NewString(),
			Type:    JobTypeSubjectWeights,
			Payload: SubjectWeightsPayload{LearnerID: learnerID, Subject: result.Subject},
		}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Warn("enqueue subject weight feedback failed", zap.String("learner_id", learnerID), zap.Error(err))
		} else {
			queued = true
		}
	}

	return &dto.ScoreExamResponse{Result: *result, Score: score, FeedbackQueued: queued}, nil
}

// ListResults pages through the learner's stored exam results.
func (s *ExamScoreService) ListResults(ctx context.Context, learnerID string, query dto.ExamResultQuery) ([]models.ExamResult, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam result query")
	}
	page, size := normalizePage(query.Page, query.PageSize)
	results, total, err := s.results.List(ctx, learnerID, repository.ExamResultFilter{
		Subject: query.Subject,
		Limit:   size,
		Offset:  (page - 1) * size,
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exam results")
	}
	return results, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// SubjectWeightWorker applies exam feedback to stored subject weights.
type SubjectWeightWorker struct {
	results examResultStore
	prefs   preferenceStore
	cache   *CacheService
	logger  *zap.Logger
}

// NewSubjectWeightWorker constructs the feedback worker.
func NewSubjectWeightWorker(results examResultStore, prefs preferenceStore, cache *CacheService, logger *zap.Logger) *SubjectWeightWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectWeightWorker{results: results, prefs: prefs, cache: cache, logger: logger}
}

// Handle nudges the weight of the job's subject using its latest result.
// Learners without stored preferences are skipped.
func (w *SubjectWeightWorker) Handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(SubjectWeightsPayload)
	if !ok || payload.LearnerID == "" {
		w.logger.Warn("discarding malformed feedback job", zap.String("job_id", job.ID))
		return nil
	}

	prefs, err := loadPreferences(ctx, w.prefs, payload.LearnerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}

	latest, err := w.results.LatestPerSubject(ctx, payload.LearnerID)
	if err != nil {
		return fmt.Errorf("load latest exam results: %w", err)
	}
	scores := make(map[string]models.NetScore, 1)
	for _, result := range latest {
		if result.Subject == payload.Subject {
			scores[result.Subject] = result.Score()
		}
	}
	if len(scores) == 0 {
		return nil
	}

	before := prefs.SubjectWeights[payload.Subject]
	prefs.SubjectWeights = planner.SuggestSubjectWeights(prefs.SubjectWeights, scores)
	if err := storePreferences(ctx, w.prefs, payload.LearnerID, *prefs); err != nil {
		return fmt.Errorf("store preferences: %w", err)
	}
	if err := w.cache.InvalidateLearner(ctx, payload.LearnerID); err != nil {
		w.logger.Warn("invalidate optimization cache failed", zap.String("learner_id", payload.LearnerID), zap.Error(err))
	}

	w.logger.Info("subject weight adjusted",
		zap.String("learner_id", payload.LearnerID),
		zap.String("subject", payload.Subject),
		zap.Float64("before", before),
		zap.Float64("after", prefs.SubjectWeights[payload.Subject]),
		zap.Int("attempt", job.Attempt),
	)
	return nil
}
