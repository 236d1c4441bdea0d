package models

import "time"

// BlockKind labels the role a time block plays in a schedule.
type BlockKind string

const (
	BlockKindStudy      BlockKind = "study"
	BlockKindFocus      BlockKind = "focus"
	BlockKindBreak      BlockKind = "break"
	BlockKindCommitment BlockKind = "commitment"
	BlockKindBlackout   BlockKind = "blackout"
)

// ConflictKindTime is the only conflict kind produced by the detector.
const ConflictKindTime = "time_conflict"

// TimeBlock is a dated half-open interval [Start, End) with a semantic label.
type TimeBlock struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Label    string    `json:"label"`
	Kind     BlockKind `json:"kind,omitempty"`
	Priority float64   `json:"priority,omitempty"`
}

// Duration returns End - Start.
func (b TimeBlock) Duration() time.Duration {
	return b.End.Sub(b.Start)
}

// Conflict pairs a proposed block with the existing block it overlaps.
type Conflict struct {
	NewBlock      TimeBlock `json:"newBlock"`
	ExistingBlock TimeBlock `json:"existingBlock"`
	Kind          string    `json:"kind"`
	Severity      float64   `json:"severity"`
}

// TimeSlot is an available interval produced by the slot finder.
type TimeSlot struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	DayIndex int       `json:"dayIndex"`
}

// Duration returns End - Start.
func (s TimeSlot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// SlotAssignment binds a subject to an available slot.
type SlotAssignment struct {
	Slot    TimeSlot `json:"slot"`
	Subject string   `json:"subject"`
}

// DayPart is a coarse section of the day used for preference ordering.
type DayPart string

const (
	DayPartEarlyMorning DayPart = "early_morning"
	DayPartMorning      DayPart = "morning"
	DayPartAfternoon    DayPart = "afternoon"
	DayPartEvening      DayPart = "evening"
	DayPartNight        DayPart = "night"
)

// DayPartForHour maps an hour of day (0-23) to its day part.
func DayPartForHour(hour int) DayPart {
	switch {
	case hour >= 5 && hour < 8:
		return DayPartEarlyMorning
	case hour >= 8 && hour < 12:
		return DayPartMorning
	case hour >= 12 && hour < 17:
		return DayPartAfternoon
	case hour >= 17 && hour < 21:
		return DayPartEvening
	default:
		return DayPartNight
	}
}

// UserPreferences are supplied by the caller and never mutated by the engine.
type UserPreferences struct {
	PreferredTimesOfDay []DayPart          `json:"preferredTimesOfDay"`
	EnergyProfile       map[int]float64    `json:"energyProfile"`
	MaxSessionLength    time.Duration      `json:"maxSessionLength"`
	MinBreakLength      time.Duration      `json:"minBreakLength"`
	SubjectWeights      map[string]float64 `json:"subjectWeights"`
}

// SchedulingConstraints describe the planning horizon and what is already taken.
// DayStart and DayEnd are offsets from local midnight of each day.
type SchedulingConstraints struct {
	StartDate           time.Time     `json:"startDate"`
	DayStart            time.Duration `json:"dayStart"`
	DayEnd              time.Duration `json:"dayEnd"`
	BlackoutWindows     []TimeBlock   `json:"blackoutWindows"`
	ExistingCommitments []TimeBlock   `json:"existingCommitments"`
	HorizonDays         int           `json:"horizonDays"`
}

// OptimizedSchedule is the output of the optimization pipeline.
type OptimizedSchedule struct {
	TimeBlocks    []TimeBlock `json:"timeBlocks"`
	FocusSessions []TimeBlock `json:"focusSessions"`
	BreakTimes    []TimeBlock `json:"breakTimes"`
}

// IsEmpty reports whether nothing was scheduled.
func (s *OptimizedSchedule) IsEmpty() bool {
	return s == nil || len(s.TimeBlocks) == 0
}
