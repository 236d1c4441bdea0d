// Package planner implements the study-schedule optimization engine: interval
// arithmetic, conflict detection, free slot discovery, a genetic search over
// slot assignments, time-blocking of the result and exam net scoring.
//
// Every function in this package is pure with respect to its inputs. Callers
// own persistence, caching and delivery of the results.
package planner

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/study-planner-api/internal/models"
)

var (
	// ErrInvalidInterval reports a block or slot whose start is not before its end.
	ErrInvalidInterval = errors.New("invalid interval: start must be before end")
	// ErrInvalidInput reports malformed engine input other than intervals.
	ErrInvalidInput = errors.New("invalid planner input")
)

// Overlaps reports whether two half-open blocks share any instant.
// Touching endpoints do not overlap.
func Overlaps(a, b models.TimeBlock) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// OverlapDuration returns how long a and b overlap, never negative.
func OverlapDuration(a, b models.TimeBlock) time.Duration {
	start := a.Start
	if b.Start.After(start) {
		start = b.Start
	}
	end := a.End
	if b.End.Before(end) {
		end = b.End
	}
	if !end.After(start) {
		return 0
	}
	return end.Sub(start)
}

// ValidateBlock rejects blocks with Start >= End.
func ValidateBlock(b models.TimeBlock) error {
	if !b.Start.Before(b.End) {
		return fmt.Errorf("%w: %q [%s, %s)", ErrInvalidInterval, b.Label, b.Start.Format(time.RFC3339), b.End.Format(time.RFC3339))
	}
	return nil
}

// ValidateBlocks validates every block in order and returns the first failure.
func ValidateBlocks(blocks []models.TimeBlock) error {
	for _, b := range blocks {
		if err := ValidateBlock(b); err != nil {
			return err
		}
	}
	return nil
}

// MergeBlocks returns the blocks sorted by start with overlapping or touching
// windows merged. Labels of merged windows are joined with "+".
func MergeBlocks(blocks []models.TimeBlock) []models.TimeBlock {
	if len(blocks) == 0 {
		return nil
	}
	sorted := make([]models.TimeBlock, len(blocks))
	copy(sorted, blocks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := []models.TimeBlock{sorted[0]}
	for _, b := range sorted[1:] {
		last := &merged[len(merged)-1]
		if b.Start.After(last.End) {
			merged = append(merged, b)
			continue
		}
		if b.End.After(last.End) {
			last.End = b.End
		}
		if b.Label != "" && b.Label != last.Label {
			last.Label = last.Label + "+" + b.Label
		}
		if b.Priority > last.Priority {
			last.Priority = b.Priority
		}
	}
	return merged
}

// subtract removes every busy window from [start, end) and returns what is left
// in chronological order. busy must be sorted and merged.
func subtract(start, end time.Time, busy []models.TimeBlock) []models.TimeBlock {
	var free []models.TimeBlock
	cursor := start
	window := models.TimeBlock{Start: start, End: end}
	for _, b := range busy {
		if !Overlaps(window, b) {
			continue
		}
		if b.Start.After(cursor) {
			free = append(free, models.TimeBlock{Start: cursor, End: b.Start})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
		if !cursor.Before(end) {
			return free
		}
	}
	if cursor.Before(end) {
		free = append(free, models.TimeBlock{Start: cursor, End: end})
	}
	return free
}

func slotBlock(s models.TimeSlot) models.TimeBlock {
	return models.TimeBlock{Start: s.Start, End: s.End}
}

func midnight(t time.Time) time.Time {
	return wallClock(t, 0, 0)
}

// wallClock returns the local time offset after midnight of t's date shifted
// by days. The offset is read as a clock reading, so 08:00 stays 08:00 on
// days where the zone changes its UTC offset; 24h is the next midnight.
func wallClock(t time.Time, days int, offset time.Duration) time.Time {
	y, m, d := t.Date()
	d += days + int(offset/(24*time.Hour))
	offset %= 24 * time.Hour
	hour := int(offset / time.Hour)
	minute := int(offset % time.Hour / time.Minute)
	sec := int(offset % time.Minute / time.Second)
	nsec := int(offset % time.Second)
	return time.Date(y, m, d, hour, minute, sec, nsec, t.Location())
}
