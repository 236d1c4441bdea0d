package planner

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"

	"github.com/noah-isme/study-planner-api/internal/models"
)

// Result bundles the optimized schedule with the search outcome.
type Result struct {
	Schedule    *models.OptimizedSchedule `json:"schedule"`
	Assignments []models.SlotAssignment   `json:"assignments"`
	SlotCount   int                       `json:"slotCount"`
	Fitness     float64                   `json:"fitness"`
	Generations int                       `json:"generations"`
	Stalled     bool                      `json:"stalled"`
	Aborted     bool                      `json:"aborted"`
}

// SeedFrom derives a non-negative search seed from an encoded request, so
// identical requests search identically.
func SeedFrom(payload []byte) int64 {
	sum := sha256.Sum256(payload)
	return int64(binary.BigEndian.Uint64(sum[:8]) & math.MaxInt64)
}

// Optimize runs the full pipeline: free slots, genetic search, time blocking.
// An empty slot set yields an empty schedule rather than an error.
func Optimize(ctx context.Context, prefs models.UserPreferences, constraints models.SchedulingConstraints, cfg Config) (*Result, error) {
	if err := ValidatePreferences(prefs); err != nil {
		return nil, err
	}
	if err := ValidateConstraints(constraints); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()

	if cfg.TimeBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.TimeBudget)
		defer cancel()
	}

	slots := FindAvailableSlots(constraints, SlotOptions{
		MaxLength: prefs.MaxSessionLength,
		MinLength: cfg.MinSlotLength,
	})
	evolution, err := EvolveSchedule(ctx, slots, prefs, cfg)
	if err != nil {
		return nil, err
	}

	schedule := ApplyTimeBlocking(evolution.Assignments, BlockingOptions{
		MinBreakLength: prefs.MinBreakLength,
		MinFocusLength: cfg.MinFocusLength,
		DayEnd:         constraints.DayEnd,
		Busy:           BusyWindows(constraints),
	})
	return &Result{
		Schedule:    schedule,
		Assignments: evolution.Assignments,
		SlotCount:   len(slots),
		Fitness:     evolution.Fitness,
		Generations: evolution.Generations,
		Stalled:     evolution.Stalled,
		Aborted:     evolution.Aborted,
	}, nil
}

// OptimizeRoutine returns only the optimized schedule of Optimize.
func OptimizeRoutine(ctx context.Context, prefs models.UserPreferences, constraints models.SchedulingConstraints, cfg Config) (*models.OptimizedSchedule, error) {
	result, err := Optimize(ctx, prefs, constraints, cfg)
	if err != nil {
		return nil, err
	}
	return result.Schedule, nil
}
