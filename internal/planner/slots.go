package planner

import (
	"fmt"
	"time"

	"github.com/noah-isme/study-planner-api/internal/models"
)

// DefaultMinSlotLength is the shortest slot worth hosting a study session.
const DefaultMinSlotLength = 15 * time.Minute

// SlotOptions tunes how free time is cut into slots.
type SlotOptions struct {
	// MaxLength caps each slot; longer free windows are split. Zero disables splitting.
	MaxLength time.Duration
	// MinLength drops shorter remainders. Zero uses DefaultMinSlotLength.
	MinLength time.Duration
}

// ValidateConstraints checks the public invariants of scheduling constraints.
// Overlapping blackout windows or commitments are accepted; they are merged later.
func ValidateConstraints(c models.SchedulingConstraints) error {
	if c.HorizonDays < 1 {
		return fmt.Errorf("%w: horizonDays must be >= 1", ErrInvalidInput)
	}
	if c.StartDate.IsZero() {
		return fmt.Errorf("%w: startDate is required", ErrInvalidInput)
	}
	if c.DayStart < 0 || c.DayEnd > 24*time.Hour {
		return fmt.Errorf("%w: day bounds must lie within 00:00-24:00", ErrInvalidInput)
	}
	if c.DayStart >= c.DayEnd {
		return fmt.Errorf("%w: dayStart must be before dayEnd", ErrInvalidInterval)
	}
	if err := ValidateBlocks(c.BlackoutWindows); err != nil {
		return err
	}
	return ValidateBlocks(c.ExistingCommitments)
}

// BusyWindows merges blackout windows and commitments into one sorted,
// non-overlapping sequence.
func BusyWindows(c models.SchedulingConstraints) []models.TimeBlock {
	busy := make([]models.TimeBlock, 0, len(c.BlackoutWindows)+len(c.ExistingCommitments))
	busy = append(busy, c.BlackoutWindows...)
	busy = append(busy, c.ExistingCommitments...)
	return MergeBlocks(busy)
}

// DayWindow returns the schedulable window of the given day index.
func DayWindow(c models.SchedulingConstraints, day int) models.TimeBlock {
	return models.TimeBlock{
		Start: wallClock(c.StartDate, day, c.DayStart),
		End:   wallClock(c.StartDate, day, c.DayEnd),
	}
}

// FindAvailableSlots returns the free time of every day in the horizon, after
// subtracting blackout windows and commitments, cut into slots no longer than
// opts.MaxLength. Input must already be validated.
func FindAvailableSlots(c models.SchedulingConstraints, opts SlotOptions) []models.TimeSlot {
	minLength := opts.MinLength
	if minLength <= 0 {
		minLength = DefaultMinSlotLength
	}
	busy := BusyWindows(c)

	slots := make([]models.TimeSlot, 0)
	for day := 0; day < c.HorizonDays; day++ {
		window := DayWindow(c, day)
		for _, free := range subtract(window.Start, window.End, busy) {
			for _, piece := range split(free, opts.MaxLength) {
				if piece.Duration() < minLength {
					continue
				}
				slots = append(slots, models.TimeSlot{Start: piece.Start, End: piece.End, DayIndex: day})
			}
		}
	}
	return slots
}

func split(b models.TimeBlock, maxLength time.Duration) []models.TimeBlock {
	if maxLength <= 0 || b.Duration() <= maxLength {
		return []models.TimeBlock{b}
	}
	var pieces []models.TimeBlock
	for start := b.Start; start.Before(b.End); start = start.Add(maxLength) {
		end := start.Add(maxLength)
		if end.After(b.End) {
			end = b.End
		}
		pieces = append(pieces, models.TimeBlock{Start: start, End: end})
	}
	return pieces
}
