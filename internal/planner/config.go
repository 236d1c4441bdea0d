package planner

import (
	"fmt"
	"time"
)

// FitnessWeights combine the three normalized fitness terms.
type FitnessWeights struct {
	Energy     float64 `json:"energy" toml:"energy"`
	Allocation float64 `json:"allocation" toml:"allocation"`
	Constraint float64 `json:"constraint" toml:"constraint"`
}

func (w FitnessWeights) sum() float64 {
	return w.Energy + w.Allocation + w.Constraint
}

// Config tunes the genetic search and the post-processing thresholds.
// Zero values fall back to DefaultConfig.
type Config struct {
	PopulationSize   int
	Generations      int
	MutationRate     float64
	TournamentSize   int
	EliteCount       int
	StallGenerations int
	Workers          int
	Utilization      float64
	Weights          FitnessWeights
	MinSlotLength    time.Duration
	MinFocusLength   time.Duration
	// TimeBudget aborts the search after the generation running when it expires.
	TimeBudget time.Duration
	Seed       int64
}

// DefaultConfig returns the tuning used when nothing else is configured.
func DefaultConfig() Config {
	return Config{
		PopulationSize:   60,
		Generations:      100,
		MutationRate:     0.1,
		TournamentSize:   3,
		EliteCount:       2,
		StallGenerations: 20,
		Workers:          4,
		Utilization:      0.8,
		Weights:          FitnessWeights{Energy: 0.4, Allocation: 0.4, Constraint: 0.2},
		MinSlotLength:    DefaultMinSlotLength,
		MinFocusLength:   DefaultMinFocusLength,
	}
}

// Validate rejects negative or out of range tuning values.
func (c Config) Validate() error {
	switch {
	case c.PopulationSize < 0:
		return fmt.Errorf("%w: population size must not be negative", ErrInvalidInput)
	case c.Generations < 0:
		return fmt.Errorf("%w: generations must not be negative", ErrInvalidInput)
	case c.MutationRate < 0 || c.MutationRate > 1:
		return fmt.Errorf("%w: mutation rate must be within [0,1]", ErrInvalidInput)
	case c.TournamentSize < 0 || c.EliteCount < 0 || c.StallGenerations < 0 || c.Workers < 0:
		return fmt.Errorf("%w: selection parameters must not be negative", ErrInvalidInput)
	case c.Utilization < 0 || c.Utilization > 1:
		return fmt.Errorf("%w: utilization must be within [0,1]", ErrInvalidInput)
	case c.Weights.Energy < 0 || c.Weights.Allocation < 0 || c.Weights.Constraint < 0:
		return fmt.Errorf("%w: fitness weights must not be negative", ErrInvalidInput)
	case c.MinSlotLength < 0 || c.MinFocusLength < 0 || c.TimeBudget < 0:
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidInput)
	}
	return nil
}

// WithDefaults fills zero fields from DefaultConfig. StallGenerations keeps
// zero only when Generations is also set, so callers can disable early stop.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.PopulationSize == 0 {
		c.PopulationSize = def.PopulationSize
	}
	if c.Generations == 0 {
		c.Generations = def.Generations
		if c.StallGenerations == 0 {
			c.StallGenerations = def.StallGenerations
		}
	}
	if c.MutationRate == 0 {
		c.MutationRate = def.MutationRate
	}
	if c.TournamentSize == 0 {
		c.TournamentSize = def.TournamentSize
	}
	if c.EliteCount == 0 {
		c.EliteCount = def.EliteCount
	}
	if c.EliteCount > c.PopulationSize {
		c.EliteCount = c.PopulationSize
	}
	if c.Workers == 0 {
		c.Workers = def.Workers
	}
	if c.Utilization == 0 {
		c.Utilization = def.Utilization
	}
	if c.Weights.sum() == 0 {
		c.Weights = def.Weights
	}
	if c.MinSlotLength == 0 {
		c.MinSlotLength = def.MinSlotLength
	}
	if c.MinFocusLength == 0 {
		c.MinFocusLength = def.MinFocusLength
	}
	return c
}
