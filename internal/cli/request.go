package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/noah-isme/study-planner-api/internal/dto"
	"github.com/noah-isme/study-planner-api/internal/planner"
)

// preferencesFile mirrors dto.PreferencesRequest. TOML keys are strings, so
// the energy profile is keyed by hour text.
type preferencesFile struct {
	dto.PreferencesRequest
	EnergyProfile map[string]float64 `toml:"energy_profile"`
}

type tuningFile struct {
	PopulationSize int                    `toml:"population_size"`
	Generations    int                    `toml:"generations"`
	Workers        int                    `toml:"workers"`
	Utilization    float64                `toml:"utilization"`
	TimeBudget     string                 `toml:"time_budget"`
	Weights        planner.FitnessWeights `toml:"weights"`
}

type optimizeFile struct {
	Seed        *int64                 `toml:"seed"`
	Preferences *preferencesFile       `toml:"preferences"`
	Constraints dto.ConstraintsRequest `toml:"constraints"`
	Tuning      tuningFile             `toml:"tuning"`
}

type slotsFile struct {
	MaxSlotMinutes int                    `toml:"max_slot_minutes"`
	Constraints    dto.ConstraintsRequest `toml:"constraints"`
}

func decodeFile(path string, dest interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (f *optimizeFile) request(validate *validator.Validate) (dto.OptimizeRequest, error) {
	if f.Preferences == nil {
		return dto.OptimizeRequest{}, fmt.Errorf("request has no [preferences] table")
	}
	prefs := f.Preferences.PreferencesRequest
	if len(f.Preferences.EnergyProfile) > 0 {
		prefs.EnergyProfile = make(map[int]float64, len(f.Preferences.EnergyProfile))
		for hour, level := range f.Preferences.EnergyProfile {
			h, err := strconv.Atoi(hour)
			if err != nil {
				return dto.OptimizeRequest{}, fmt.Errorf("energy_profile key %q: %w", hour, err)
			}
			prefs.EnergyProfile[h] = level
		}
	}
	req := dto.OptimizeRequest{Preferences: &prefs, Constraints: f.Constraints, Seed: f.Seed}
	if err := validate.Struct(prefs); err != nil {
		return dto.OptimizeRequest{}, fmt.Errorf("invalid preferences: %w", err)
	}
	if err := validate.Struct(req.Constraints); err != nil {
		return dto.OptimizeRequest{}, fmt.Errorf("invalid constraints: %w", err)
	}
	return req, nil
}

func (t tuningFile) config() (planner.Config, error) {
	cfg := planner.DefaultConfig()
	if t.PopulationSize > 0 {
		cfg.PopulationSize = t.PopulationSize
	}
	if t.Generations > 0 {
		cfg.Generations = t.Generations
	}
	if t.Workers > 0 {
		cfg.Workers = t.Workers
	}
	if t.Utilization > 0 {
		cfg.Utilization = t.Utilization
	}
	if t.Weights != (planner.FitnessWeights{}) {
		cfg.Weights = t.Weights
	}
	if t.TimeBudget != "" {
		budget, err := time.ParseDuration(t.TimeBudget)
		if err != nil {
			return planner.Config{}, fmt.Errorf("tuning.time_budget: %w", err)
		}
		cfg.TimeBudget = budget
	}
	return cfg, cfg.Validate()
}
