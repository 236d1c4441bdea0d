package dto

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/study-planner-api/internal/models"
)

// TimeBlockRequest is a dated interval supplied by the client.
type TimeBlockRequest struct {
	Start    time.Time `json:"start" toml:"start" validate:"required"`
	End      time.Time `json:"end" toml:"end" validate:"required,gtfield=Start"`
	Label    string    `json:"label" toml:"label" validate:"max=120"`
	Priority float64   `json:"priority" toml:"priority" validate:"min=0,max=1"`
}

// PreferencesRequest carries learner preferences with durations in minutes.
type PreferencesRequest struct {
	PreferredTimesOfDay []string           `json:"preferredTimesOfDay" toml:"preferred_times_of_day" validate:"omitempty,dive,oneof=early_morning morning afternoon evening night"`
	EnergyProfile       map[int]float64    `json:"energyProfile" toml:"-" validate:"omitempty,dive,keys,min=0,max=23,endkeys,min=0,max=1"`
	MaxSessionMinutes   int                `json:"maxSessionMinutes" toml:"max_session_minutes" validate:"required,min=1,max=720"`
	MinBreakMinutes     int                `json:"minBreakMinutes" toml:"min_break_minutes" validate:"min=0,max=240"`
	SubjectWeights      map[string]float64 `json:"subjectWeights" toml:"subject_weights" validate:"required,min=1,dive,keys,required,max=80,endkeys,min=0"`
}

// ConstraintsRequest describes the planning horizon. Day bounds are "HH:MM"
// wall clock times in Timezone; "24:00" denotes midnight at the day's end.
type ConstraintsRequest struct {
	StartDate            string             `json:"startDate" toml:"start_date" validate:"required,datetime=2006-01-02"`
	Timezone             string             `json:"timezone" toml:"timezone" validate:"omitempty,timezone"`
	DayStart             string             `json:"dayStart" toml:"day_start" validate:"required"`
	DayEnd               string             `json:"dayEnd" toml:"day_end" validate:"required"`
	HorizonDays          int                `json:"horizonDays" toml:"horizon_days" validate:"required,min=1,max=28"`
	BlackoutWindows      []TimeBlockRequest `json:"blackoutWindows" toml:"blackout_windows" validate:"omitempty,dive"`
	ExistingCommitments  []TimeBlockRequest `json:"existingCommitments" toml:"existing_commitments" validate:"omitempty,dive"`
	UseStoredCommitments bool               `json:"useStoredCommitments" toml:"-"`
}

// OptimizeRequest asks for an optimized schedule. Preferences falls back to
// the learner's stored preferences when omitted.
type OptimizeRequest struct {
	Preferences *PreferencesRequest `json:"preferences" toml:"preferences"`
	Constraints ConstraintsRequest  `json:"constraints" toml:"constraints"`
	Seed        *int64              `json:"seed,omitempty" toml:"seed"`
}

// OptimizeStats summarises the search.
type OptimizeStats struct {
	SlotCount   int     `json:"slotCount"`
	Generations int     `json:"generations"`
	Fitness     float64 `json:"fitness"`
	Stalled     bool    `json:"stalled"`
	Aborted     bool    `json:"aborted"`
	DurationMs  int64   `json:"durationMs"`
}

// OptimizeResponse returns a proposal that can later be saved.
type OptimizeResponse struct {
	ProposalID string                    `json:"proposalId"`
	ExpiresAt  time.Time                 `json:"expiresAt"`
	Seed       int64                     `json:"seed"`
	Cached     bool                      `json:"cached"`
	Schedule   *models.OptimizedSchedule `json:"schedule"`
	Stats      OptimizeStats             `json:"stats"`
}

// ConflictsRequest checks a proposed schedule against existing blocks.
type ConflictsRequest struct {
	Schedule             []TimeBlockRequest `json:"schedule" toml:"schedule" validate:"required,min=1,dive"`
	Existing             []TimeBlockRequest `json:"existing" toml:"existing" validate:"omitempty,dive"`
	UseStoredCommitments bool               `json:"useStoredCommitments" toml:"-"`
}

// ConflictsResponse lists detected conflicts.
type ConflictsResponse struct {
	Conflicts   []models.Conflict `json:"conflicts"`
	Count       int               `json:"count"`
	MaxSeverity float64           `json:"maxSeverity"`
}

// SlotsRequest asks for the free slots of a horizon.
type SlotsRequest struct {
	Constraints    ConstraintsRequest `json:"constraints"`
	MaxSlotMinutes int                `json:"maxSlotMinutes" validate:"omitempty,min=15,max=720"`
}

// SlotsResponse lists free slots.
type SlotsResponse struct {
	Slots        []models.TimeSlot `json:"slots"`
	TotalMinutes int               `json:"totalMinutes"`
}

// SaveProposalRequest persists a proposal as a new schedule version.
type SaveProposalRequest struct {
	Status string `json:"status" validate:"omitempty,oneof=DRAFT PUBLISHED"`
}

// StudyScheduleQuery pages through saved schedules.
type StudyScheduleQuery struct {
	Status   string `form:"status" validate:"omitempty,oneof=DRAFT PUBLISHED ARCHIVED"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"page_size" validate:"omitempty,min=1,max=100"`
}

// StudyScheduleResponse is a saved schedule with its decoded blocks.
type StudyScheduleResponse struct {
	ID        string                     `json:"id"`
	Version   int                        `json:"version"`
	Status    models.StudyScheduleStatus `json:"status"`
	Seed      int64                      `json:"seed"`
	Fitness   float64                    `json:"fitness"`
	Schedule  *models.OptimizedSchedule  `json:"schedule"`
	CreatedAt time.Time                  `json:"createdAt"`
}

// CommitmentRequest registers a fixed appointment.
type CommitmentRequest struct {
	Label    string    `json:"label" validate:"required,max=120"`
	Start    time.Time `json:"start" validate:"required"`
	End      time.Time `json:"end" validate:"required,gtfield=Start"`
	Priority float64   `json:"priority" validate:"min=0,max=1"`
}

// CommitmentQuery filters commitments by time range.
type CommitmentQuery struct {
	From time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To   time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

// ExamAnswerRequest is one answered or skipped question.
type ExamAnswerRequest struct {
	IsCorrect      bool    `json:"isCorrect" toml:"is_correct"`
	SelectedAnswer *string `json:"selectedAnswer" toml:"selected_answer"`
}

// ScoreExamRequest scores an exam attempt for a subject.
type ScoreExamRequest struct {
	Subject        string              `json:"subject" validate:"required,max=80"`
	TotalQuestions int                 `json:"totalQuestions" validate:"min=0,max=1000"`
	Answers        []ExamAnswerRequest `json:"answers" validate:"omitempty,dive"`
	WrongPenalty   *float64            `json:"wrongPenalty" validate:"omitempty,min=0,max=1"`
}

// ScoreExamResponse returns the stored result.
type ScoreExamResponse struct {
	Result         models.ExamResult `json:"result"`
	Score          models.NetScore   `json:"score"`
	FeedbackQueued bool              `json:"feedbackQueued"`
}

// ExamResultQuery filters stored exam results.
type ExamResultQuery struct {
	Subject  string `form:"subject"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"page_size" validate:"omitempty,min=1,max=100"`
}

// Block converts the request to a time block of the given kind.
func (r TimeBlockRequest) Block(kind models.BlockKind) models.TimeBlock {
	return models.TimeBlock{Start: r.Start, End: r.End, Label: r.Label, Kind: kind, Priority: r.Priority}
}

// Blocks converts a list of requests.
func Blocks(in []TimeBlockRequest, kind models.BlockKind) []models.TimeBlock {
	out := make([]models.TimeBlock, 0, len(in))
	for _, r := range in {
		out = append(out, r.Block(kind))
	}
	return out
}

// ToModel converts minutes to durations.
func (p PreferencesRequest) ToModel() models.UserPreferences {
	parts := make([]models.DayPart, 0, len(p.PreferredTimesOfDay))
	for _, part := range p.PreferredTimesOfDay {
		parts = append(parts, models.DayPart(part))
	}
	return models.UserPreferences{
		PreferredTimesOfDay: parts,
		EnergyProfile:       p.EnergyProfile,
		MaxSessionLength:    time.Duration(p.MaxSessionMinutes) * time.Minute,
		MinBreakLength:      time.Duration(p.MinBreakMinutes) * time.Minute,
		SubjectWeights:      p.SubjectWeights,
	}
}

// ToModel resolves the start date, timezone and day bounds.
func (c ConstraintsRequest) ToModel() (models.SchedulingConstraints, error) {
	loc := time.UTC
	if c.Timezone != "" {
		l, err := time.LoadLocation(c.Timezone)
		if err != nil {
			return models.SchedulingConstraints{}, fmt.Errorf("timezone %q: %w", c.Timezone, err)
		}
		loc = l
	}
	start, err := time.ParseInLocation("2006-01-02", c.StartDate, loc)
	if err != nil {
		return models.SchedulingConstraints{}, fmt.Errorf("startDate: %w", err)
	}
	dayStart, err := ParseClock(c.DayStart)
	if err != nil {
		return models.SchedulingConstraints{}, fmt.Errorf("dayStart: %w", err)
	}
	dayEnd, err := ParseClock(c.DayEnd)
	if err != nil {
		return models.SchedulingConstraints{}, fmt.Errorf("dayEnd: %w", err)
	}
	return models.SchedulingConstraints{
		StartDate:           start,
		DayStart:            dayStart,
		DayEnd:              dayEnd,
		HorizonDays:         c.HorizonDays,
		BlackoutWindows:     Blocks(c.BlackoutWindows, models.BlockKindBlackout),
		ExistingCommitments: Blocks(c.ExistingCommitments, models.BlockKindCommitment),
	}, nil
}

// ParseClock parses "HH:MM" into an offset from midnight. "24:00" is allowed.
func ParseClock(raw string) (time.Duration, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return 0, fmt.Errorf("expected HH:MM, got %q", raw)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("hour of %q: %w", raw, err)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("minute of %q: %w", raw, err)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("clock %q out of range", raw)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

// PreferencesFromModel converts stored preferences back to minutes.
func PreferencesFromModel(p models.UserPreferences) PreferencesRequest {
	parts := make([]string, 0, len(p.PreferredTimesOfDay))
	for _, part := range p.PreferredTimesOfDay {
		parts = append(parts, string(part))
	}
	return PreferencesRequest{
		PreferredTimesOfDay: parts,
		EnergyProfile:       p.EnergyProfile,
		MaxSessionMinutes:   int(p.MaxSessionLength / time.Minute),
		MinBreakMinutes:     int(p.MinBreakLength / time.Minute),
		SubjectWeights:      p.SubjectWeights,
	}
}
