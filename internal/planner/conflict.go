package planner

import (
	"github.com/noah-isme/study-planner-api/internal/models"
)

// DetectConflicts emits one conflict for every (scheduled, existing) pair that
// overlaps, ordered by schedule index then existing index.
//
// Severity is the share of the scheduled block covered by the existing one:
// 1 means the block is unusable, values near 0 are negotiable slivers.
func DetectConflicts(schedule, existing []models.TimeBlock) []models.Conflict {
	conflicts := make([]models.Conflict, 0)
	for _, block := range schedule {
		for _, other := range existing {
			if !Overlaps(block, other) {
				continue
			}
			conflicts = append(conflicts, models.Conflict{
				NewBlock:      block,
				ExistingBlock: other,
				Kind:          models.ConflictKindTime,
				Severity:      severity(block, other),
			})
		}
	}
	return conflicts
}

func severity(block, other models.TimeBlock) float64 {
	total := block.Duration()
	if total <= 0 {
		return 1
	}
	return clamp01(float64(OverlapDuration(block, other)) / float64(total))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
