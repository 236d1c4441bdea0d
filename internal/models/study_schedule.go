package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// StudyScheduleStatus represents lifecycle phases for saved study plans.
type StudyScheduleStatus string

const (
	StudyScheduleStatusDraft     StudyScheduleStatus = "DRAFT"
	StudyScheduleStatusPublished StudyScheduleStatus = "PUBLISHED"
	StudyScheduleStatusArchived  StudyScheduleStatus = "ARCHIVED"
)

// StudySchedule is a versioned optimized schedule for a learner.
// Blocks holds the JSON encoded OptimizedSchedule.
type StudySchedule struct {
	ID        string              `db:"id" json:"id"`
	LearnerID string              `db:"learner_id" json:"learner_id"`
	Version   int                 `db:"version" json:"version"`
	Status    StudyScheduleStatus `db:"status" json:"status"`
	Seed      int64               `db:"seed" json:"seed"`
	Fitness   float64             `db:"fitness" json:"fitness"`
	Blocks    types.JSONText      `db:"blocks" json:"blocks"`
	Meta      types.JSONText      `db:"meta" json:"meta"`
	CreatedAt time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt time.Time           `db:"updated_at" json:"updated_at"`
}

// StudyScheduleMeta is the lightweight list view of a saved schedule.
type StudyScheduleMeta struct {
	ID        string              `json:"id"`
	Version   int                 `json:"version"`
	Status    StudyScheduleStatus `json:"status"`
	Fitness   float64             `json:"fitness"`
	CreatedAt time.Time           `json:"created_at"`
}

// Commitment is a fixed, externally owned appointment of a learner.
type Commitment struct {
	ID        string    `db:"id" json:"id"`
	LearnerID string    `db:"learner_id" json:"learner_id"`
	Label     string    `db:"label" json:"label"`
	StartsAt  time.Time `db:"starts_at" json:"starts_at"`
	EndsAt    time.Time `db:"ends_at" json:"ends_at"`
	Priority  float64   `db:"priority" json:"priority"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Block converts the commitment to a time block.
func (c Commitment) Block() TimeBlock {
	return TimeBlock{Start: c.StartsAt, End: c.EndsAt, Label: c.Label, Kind: BlockKindCommitment, Priority: c.Priority}
}

// StudyPreference stores the JSON encoded UserPreferences of a learner.
type StudyPreference struct {
	ID          string         `db:"id" json:"id"`
	LearnerID   string         `db:"learner_id" json:"learner_id"`
	Preferences types.JSONText `db:"preferences" json:"preferences"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}
