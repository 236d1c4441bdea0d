package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/study-planner-api/internal/models"
)

func TestDetectConflictsContainedBlockIsUnusable(t *testing.T) {
	conflicts := DetectConflicts(
		[]models.TimeBlock{block(at(0, 10, 0), at(0, 11, 0), "math")},
		[]models.TimeBlock{block(at(0, 9, 0), at(0, 12, 0), "lecture")},
	)

	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictKindTime, conflicts[0].Kind)
	assert.Equal(t, 1.0, conflicts[0].Severity)
	assert.Equal(t, "math", conflicts[0].NewBlock.Label)
	assert.Equal(t, "lecture", conflicts[0].ExistingBlock.Label)
}

func TestDetectConflictsSliverOverlapIsNegotiable(t *testing.T) {
	conflicts := DetectConflicts(
		[]models.TimeBlock{block(at(0, 10, 0), at(0, 11, 0), "math")},
		[]models.TimeBlock{block(at(0, 10, 55), at(0, 12, 0), "bus")},
	)

	require.Len(t, conflicts, 1)
	assert.InDelta(t, 5.0/60.0, conflicts[0].Severity, 1e-9)
}

func TestDetectConflictsIsOrderedAndBounded(t *testing.T) {
	schedule := []models.TimeBlock{
		block(at(0, 9, 0), at(0, 11, 0), "a"),
		block(at(0, 10, 0), at(0, 12, 0), "b"),
		block(at(0, 15, 0), at(0, 16, 0), "free"),
	}
	existing := []models.TimeBlock{
		block(at(0, 10, 30), at(0, 11, 30), "x"),
		block(at(0, 8, 0), at(0, 10, 15), "y"),
	}

	conflicts := DetectConflicts(schedule, existing)

	require.Len(t, conflicts, 4)
	pairs := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		pairs = append(pairs, c.NewBlock.Label+c.ExistingBlock.Label)
		assert.GreaterOrEqual(t, c.Severity, 0.0)
		assert.LessOrEqual(t, c.Severity, 1.0)
	}
	assert.Equal(t, []string{"ax", "ay", "bx", "by"}, pairs)
}

func TestDetectConflictsTouchingBlocksAreFine(t *testing.T) {
	conflicts := DetectConflicts(
		[]models.TimeBlock{block(at(0, 10, 0), at(0, 11, 0), "math")},
		[]models.TimeBlock{block(at(0, 11, 0), at(0, 12, 0), "lecture")},
	)
	assert.NotNil(t, conflicts)
	assert.Empty(t, conflicts)
}
