package planner

import (
	"sort"
	"time"

	"github.com/noah-isme/study-planner-api/internal/models"
)

// DefaultMinFocusLength is the shortest block tagged as a focus session.
const DefaultMinFocusLength = 25 * time.Minute

const breakLabel = "break"

// BlockingOptions parameterise the time-blocking post-processor.
type BlockingOptions struct {
	MinBreakLength time.Duration
	MinFocusLength time.Duration
	// DayEnd is the hard end of each day as an offset from local midnight.
	// Zero means midnight of the following day.
	DayEnd time.Duration
	// Busy are windows no study or break may be moved into, sorted and merged.
	Busy []models.TimeBlock
}

type dayBlock struct {
	models.TimeBlock
	day int
}

// ApplyTimeBlocking turns slot assignments into contiguous study blocks, tags
// focus sessions and inserts breaks between focus sessions that sit too close.
// The returned TimeBlocks never overlap and are in chronological order.
func ApplyTimeBlocking(assignments []models.SlotAssignment, opts BlockingOptions) *models.OptimizedSchedule {
	if opts.MinFocusLength <= 0 {
		opts.MinFocusLength = DefaultMinFocusLength
	}
	blocks := groupSimilarTasks(assignments, opts)
	createFocusSessions(blocks, opts.MinFocusLength)
	timeline := optimizeBreakTimes(blocks, opts)

	schedule := &models.OptimizedSchedule{
		TimeBlocks:    make([]models.TimeBlock, 0, len(timeline)),
		FocusSessions: make([]models.TimeBlock, 0),
		BreakTimes:    make([]models.TimeBlock, 0),
	}
	for _, b := range timeline {
		schedule.TimeBlocks = append(schedule.TimeBlocks, b.TimeBlock)
		switch b.Kind {
		case models.BlockKindFocus:
			schedule.FocusSessions = append(schedule.FocusSessions, b.TimeBlock)
		case models.BlockKindBreak:
			schedule.BreakTimes = append(schedule.BreakTimes, b.TimeBlock)
		}
	}
	return schedule
}

// groupSimilarTasks merges same-subject assignments of one day whose gap is
// zero, or shorter than the minimum break and free of busy windows.
func groupSimilarTasks(assignments []models.SlotAssignment, opts BlockingOptions) []dayBlock {
	sorted := make([]models.SlotAssignment, len(assignments))
	copy(sorted, assignments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Slot.Start.Before(sorted[j].Slot.Start)
	})

	var blocks []dayBlock
	for _, a := range sorted {
		if n := len(blocks); n > 0 {
			last := &blocks[n-1]
			gap := a.Slot.Start.Sub(last.End)
			if last.Label == a.Subject && last.day == a.Slot.DayIndex && gap >= 0 &&
				(gap == 0 || (gap < opts.MinBreakLength && !busyWithin(last.End, a.Slot.Start, opts.Busy))) {
				if a.Slot.End.After(last.End) {
					last.End = a.Slot.End
				}
				continue
			}
		}
		blocks = append(blocks, dayBlock{
			TimeBlock: models.TimeBlock{Start: a.Slot.Start, End: a.Slot.End, Label: a.Subject, Kind: models.BlockKindStudy},
			day:       a.Slot.DayIndex,
		})
	}
	return blocks
}

func createFocusSessions(blocks []dayBlock, minFocus time.Duration) {
	for i := range blocks {
		if blocks[i].Duration() >= minFocus {
			blocks[i].Kind = models.BlockKindFocus
		}
	}
}

// optimizeBreakTimes walks the day timeline and enforces a full break between
// consecutive focus sessions. A session pushed later keeps its length unless
// that would cross the day end or the next busy window, where it is cut.
func optimizeBreakTimes(blocks []dayBlock, opts BlockingOptions) []dayBlock {
	timeline := make([]dayBlock, 0, len(blocks)*2)
	lastIdx := -1
	var frontier time.Time
	for _, b := range blocks {
		cur := b
		originalStart := cur.Start
		length := cur.Duration()
		insertBreak := false

		var last dayBlock
		if lastIdx >= 0 {
			last = timeline[lastIdx]
		}
		if lastIdx >= 0 && last.day == cur.day {
			gap := cur.Start.Sub(last.End)
			if last.Kind == models.BlockKindFocus && cur.Kind == models.BlockKindFocus &&
				gap < opts.MinBreakLength && !busyWithin(last.End, cur.Start, opts.Busy) {
				insertBreak = true
				cur.Start = last.End.Add(opts.MinBreakLength)
			} else if cur.Start.Before(frontier) {
				cur.Start = frontier
			}
		}
		if cur.Start.After(originalStart) {
			cur.End = cur.Start.Add(length)
			limit := hardLimit(originalStart, opts)
			if cur.End.After(limit) {
				cur.End = limit
			}
			if !cur.Start.Before(cur.End) {
				continue
			}
			if cur.Kind == models.BlockKindFocus && cur.Duration() < opts.MinFocusLength {
				cur.Kind = models.BlockKindStudy
			}
		}

		if insertBreak {
			timeline = append(timeline, dayBlock{
				TimeBlock: models.TimeBlock{Start: last.End, End: cur.Start, Label: breakLabel, Kind: models.BlockKindBreak},
				day:       cur.day,
			})
		}
		timeline = append(timeline, cur)
		lastIdx = len(timeline) - 1
		frontier = cur.End
	}
	return timeline
}

// hardLimit is the earliest of the day end and the first busy window starting
// at or after start.
func hardLimit(start time.Time, opts BlockingOptions) time.Time {
	dayEnd := opts.DayEnd
	if dayEnd <= 0 {
		dayEnd = 24 * time.Hour
	}
	limit := wallClock(start, 0, dayEnd)
	for _, b := range opts.Busy {
		if !b.Start.Before(start) {
			if b.Start.Before(limit) {
				limit = b.Start
			}
			break
		}
	}
	return limit
}

func busyWithin(start, end time.Time, busy []models.TimeBlock) bool {
	if !start.Before(end) {
		return false
	}
	gap := models.TimeBlock{Start: start, End: end}
	for _, b := range busy {
		if Overlaps(gap, b) {
			return true
		}
	}
	return false
}
