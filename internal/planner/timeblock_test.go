package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/study-planner-api/internal/models"
)

var monday = time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)

func at(day, hour, minute int) time.Time {
	return monday.AddDate(0, 0, day).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func block(start, end time.Time, label string) models.TimeBlock {
	return models.TimeBlock{Start: start, End: end, Label: label}
}

func TestOverlapsIsSymmetric(t *testing.T) {
	blocks := []models.TimeBlock{
		block(at(0, 9, 0), at(0, 10, 0), "a"),
		block(at(0, 9, 30), at(0, 11, 0), "b"),
		block(at(0, 10, 0), at(0, 12, 0), "c"),
		block(at(0, 8, 0), at(0, 13, 0), "d"),
		block(at(1, 9, 0), at(1, 10, 0), "e"),
	}
	for _, a := range blocks {
		for _, b := range blocks {
			assert.Equal(t, Overlaps(a, b), Overlaps(b, a), "%s vs %s", a.Label, b.Label)
		}
	}
}

func TestOverlapsTouchingBlocksDoNotOverlap(t *testing.T) {
	a := block(monday, monday.Add(10*time.Minute), "a")
	b := block(monday.Add(10*time.Minute), monday.Add(20*time.Minute), "b")

	assert.False(t, Overlaps(a, b))
	assert.Equal(t, time.Duration(0), OverlapDuration(a, b))
}

func TestOverlapDuration(t *testing.T) {
	a := block(at(0, 9, 0), at(0, 11, 0), "a")
	b := block(at(0, 10, 30), at(0, 12, 0), "b")
	inner := block(at(0, 9, 15), at(0, 9, 45), "inner")
	apart := block(at(0, 13, 0), at(0, 14, 0), "apart")

	assert.Equal(t, 30*time.Minute, OverlapDuration(a, b))
	assert.Equal(t, 30*time.Minute, OverlapDuration(a, inner))
	assert.Equal(t, time.Duration(0), OverlapDuration(a, apart))
}

func TestValidateBlockRejectsEmptyAndReversedIntervals(t *testing.T) {
	assert.NoError(t, ValidateBlock(block(at(0, 9, 0), at(0, 10, 0), "ok")))
	assert.ErrorIs(t, ValidateBlock(block(at(0, 9, 0), at(0, 9, 0), "empty")), ErrInvalidInterval)
	assert.ErrorIs(t, ValidateBlocks([]models.TimeBlock{
		block(at(0, 9, 0), at(0, 10, 0), "ok"),
		block(at(0, 11, 0), at(0, 10, 0), "reversed"),
	}), ErrInvalidInterval)
}

func TestMergeBlocksNormalisesOverlappingInput(t *testing.T) {
	merged := MergeBlocks([]models.TimeBlock{
		block(at(0, 14, 0), at(0, 15, 0), "gym"),
		block(at(0, 10, 0), at(0, 12, 0), "class"),
		block(at(0, 11, 0), at(0, 13, 0), "lab"),
		block(at(0, 13, 0), at(0, 13, 30), "lunch"),
	})

	require.Len(t, merged, 2)
	assert.Equal(t, at(0, 10, 0), merged[0].Start)
	assert.Equal(t, at(0, 13, 30), merged[0].End)
	assert.Equal(t, "class+lab+lunch", merged[0].Label)
	assert.Equal(t, at(0, 14, 0), merged[1].Start)
	assert.Nil(t, MergeBlocks(nil))
}
