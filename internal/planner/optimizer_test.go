package planner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/study-planner-api/internal/models"
)

func weekConstraints() models.SchedulingConstraints {
	c := workdayConstraints(3)
	c.ExistingCommitments = []models.TimeBlock{
		{Start: at(1, 12, 0), End: at(1, 14, 0), Label: "seminar", Kind: models.BlockKindCommitment},
	}
	c.BlackoutWindows = []models.TimeBlock{
		{Start: at(2, 8, 30), End: at(2, 10, 0), Label: "commute", Kind: models.BlockKindBlackout},
	}
	return c
}

func TestOptimizeIsDeterministic(t *testing.T) {
	cfg := Config{PopulationSize: 30, Generations: 40, Seed: 42}

	first, err := OptimizeRoutine(context.Background(), twoSubjectPrefs(), weekConstraints(), cfg)
	require.NoError(t, err)
	second, err := OptimizeRoutine(context.Background(), twoSubjectPrefs(), weekConstraints(), cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestOptimizeProducesFeasibleSchedule(t *testing.T) {
	constraints := weekConstraints()
	cfg := Config{PopulationSize: 30, Generations: 40, Seed: 8}

	result, err := Optimize(context.Background(), twoSubjectPrefs(), constraints, cfg)
	require.NoError(t, err)
	require.NotEmpty(t, result.Schedule.TimeBlocks)

	assertTimeline(t, result.Schedule.TimeBlocks)
	assert.Empty(t, DetectConflicts(result.Schedule.TimeBlocks, BusyWindows(constraints)))
	for _, b := range result.Schedule.TimeBlocks {
		day := midnight(b.Start)
		assert.False(t, b.Start.Before(day.Add(constraints.DayStart)), "%s starts before the day window", b.Label)
		assert.False(t, b.End.After(day.Add(constraints.DayEnd)), "%s ends after the day window", b.Label)
	}
	for _, f := range result.Schedule.FocusSessions {
		assert.GreaterOrEqual(t, f.Duration(), DefaultMinFocusLength)
	}
	// 6 on day one, 4 around the seminar, 5 after the commute
	assert.Equal(t, 15, result.SlotCount)
}

func TestOptimizeFullyCommittedHorizon(t *testing.T) {
	constraints := workdayConstraints(1)
	constraints.ExistingCommitments = []models.TimeBlock{{Start: at(0, 0, 0), End: at(1, 0, 0), Label: "trip"}}

	result, err := Optimize(context.Background(), twoSubjectPrefs(), constraints, Config{Seed: 1})
	require.NoError(t, err)
	assert.Zero(t, result.SlotCount)
	assert.True(t, result.Schedule.IsEmpty())
	assert.Empty(t, result.Assignments)
}

func TestOptimizeRejectsInvalidInput(t *testing.T) {
	prefs := twoSubjectPrefs()
	prefs.MaxSessionLength = 0
	_, err := Optimize(context.Background(), prefs, weekConstraints(), Config{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	inverted := weekConstraints()
	inverted.DayStart, inverted.DayEnd = 18*time.Hour, 8*time.Hour
	_, err = Optimize(context.Background(), twoSubjectPrefs(), inverted, Config{})
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = Optimize(context.Background(), twoSubjectPrefs(), weekConstraints(), Config{MutationRate: 2})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestOptimizeReturnsBestSoFarWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := Optimize(ctx, twoSubjectPrefs(), weekConstraints(), Config{Seed: 3})
	require.NoError(t, err)
	assert.True(t, result.Aborted)
	assert.NotEmpty(t, result.Schedule.TimeBlocks)
}

func TestSeedFromIsStableAndNonNegative(t *testing.T) {
	payloads := [][]byte{nil, []byte(`{"seed":0}`), []byte(`{"subjects":["math","physics"]}`)}
	for _, payload := range payloads {
		seed := SeedFrom(payload)
		assert.GreaterOrEqual(t, seed, int64(0))
		assert.Equal(t, seed, SeedFrom(payload))
	}
	assert.NotEqual(t, SeedFrom(payloads[1]), SeedFrom(payloads[2]))
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{}.WithDefaults()
	assert.Equal(t, DefaultConfig(), cfg)

	custom := Config{Generations: 10, PopulationSize: 1}.WithDefaults()
	assert.Zero(t, custom.StallGenerations, "explicit generations keep early stop disabled")
	assert.Equal(t, 1, custom.EliteCount)

	assert.ErrorIs(t, Config{Utilization: 1.5}.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, Config{Workers: -1}.Validate(), ErrInvalidInput)
	assert.NoError(t, DefaultConfig().Validate())
}
