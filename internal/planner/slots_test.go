package planner

import (
	"sort"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/study-planner-api/internal/models"
)

func workdayConstraints(horizon int) models.SchedulingConstraints {
	return models.SchedulingConstraints{
		StartDate:   monday,
		DayStart:    9 * time.Hour,
		DayEnd:      17 * time.Hour,
		HorizonDays: horizon,
	}
}

func slotSpans(slots []models.TimeSlot) [][2]string {
	out := make([][2]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, [2]string{s.Start.Format("Mon 15:04"), s.End.Format("15:04")})
	}
	return out
}

func TestFindAvailableSlotsSubtractsCommitmentsAndSplits(t *testing.T) {
	c := workdayConstraints(2)
	c.ExistingCommitments = []models.TimeBlock{block(at(0, 12, 0), at(0, 13, 0), "lunch meeting")}

	slots := FindAvailableSlots(c, SlotOptions{MaxLength: 2 * time.Hour})

	assert.Equal(t, [][2]string{
		{"Mon 09:00", "11:00"}, {"Mon 11:00", "12:00"},
		{"Mon 13:00", "15:00"}, {"Mon 15:00", "17:00"},
		{"Tue 09:00", "11:00"}, {"Tue 11:00", "13:00"},
		{"Tue 13:00", "15:00"}, {"Tue 15:00", "17:00"},
	}, slotSpans(slots))
	for _, s := range slots {
		assert.LessOrEqual(t, s.Duration(), 2*time.Hour)
	}
	assert.Equal(t, 0, slots[0].DayIndex)
	assert.Equal(t, 1, slots[len(slots)-1].DayIndex)
}

func TestFindAvailableSlotsCoversEachDay(t *testing.T) {
	c := workdayConstraints(3)
	c.BlackoutWindows = []models.TimeBlock{
		block(at(1, 8, 0), at(1, 10, 0), "commute"),
	}
	c.ExistingCommitments = []models.TimeBlock{
		block(at(0, 10, 0), at(0, 11, 30), "lecture"),
		block(at(0, 11, 0), at(0, 12, 0), "lab"),
		block(at(2, 16, 0), at(2, 18, 0), "practice"),
	}

	slots := FindAvailableSlots(c, SlotOptions{MaxLength: time.Hour})
	busy := BusyWindows(c)

	for day := 0; day < c.HorizonDays; day++ {
		window := DayWindow(c, day)
		var covered time.Duration
		var pieces []models.TimeBlock
		for _, s := range slots {
			if s.DayIndex == day {
				pieces = append(pieces, slotBlock(s))
			}
		}
		for _, b := range busy {
			if Overlaps(window, b) {
				clipped := b
				if clipped.Start.Before(window.Start) {
					clipped.Start = window.Start
				}
				if clipped.End.After(window.End) {
					clipped.End = window.End
				}
				pieces = append(pieces, clipped)
			}
		}
		sort.Slice(pieces, func(i, j int) bool { return pieces[i].Start.Before(pieces[j].Start) })
		for i, p := range pieces {
			covered += p.Duration()
			if i > 0 {
				assert.False(t, Overlaps(pieces[i-1], p), "day %d double booked at %s", day, p.Start)
			}
		}
		assert.Equal(t, window.Duration(), covered, "day %d not fully accounted for", day)
	}
}

func TestFindAvailableSlotsFullyCommittedDay(t *testing.T) {
	c := workdayConstraints(2)
	c.ExistingCommitments = []models.TimeBlock{block(at(0, 8, 0), at(0, 18, 0), "exam day")}

	slots := FindAvailableSlots(c, SlotOptions{MaxLength: time.Hour})

	require.Len(t, slots, 8)
	for _, s := range slots {
		assert.Equal(t, 1, s.DayIndex)
	}
}

func TestFindAvailableSlotsDropsDegenerateRemainders(t *testing.T) {
	c := workdayConstraints(1)
	c.ExistingCommitments = []models.TimeBlock{block(at(0, 9, 10), at(0, 16, 50), "fieldtrip")}

	assert.Empty(t, FindAvailableSlots(c, SlotOptions{MaxLength: time.Hour}))

	slots := FindAvailableSlots(c, SlotOptions{MaxLength: time.Hour, MinLength: 5 * time.Minute})
	assert.Equal(t, [][2]string{{"Mon 09:00", "09:10"}, {"Mon 16:50", "17:00"}}, slotSpans(slots))
}

func berlin(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	return loc
}

func TestDayWindowKeepsClockTimesAcrossDSTChanges(t *testing.T) {
	loc := berlin(t)
	spring := models.SchedulingConstraints{
		StartDate:   time.Date(2026, time.March, 28, 0, 0, 0, 0, loc),
		DayStart:    8 * time.Hour,
		DayEnd:      12 * time.Hour,
		HorizonDays: 2,
	}

	for day := 0; day < spring.HorizonDays; day++ {
		window := DayWindow(spring, day)
		assert.Equal(t, "08:00", window.Start.Format("15:04"), "day %d", day)
		assert.Equal(t, "12:00", window.End.Format("15:04"), "day %d", day)
		assert.Equal(t, 4*time.Hour, window.Duration(), "day %d", day)
	}
	sunday := DayWindow(spring, 1)
	assert.Equal(t, time.Date(2026, time.March, 29, 6, 0, 0, 0, time.UTC), sunday.Start.UTC())

	slots := FindAvailableSlots(spring, SlotOptions{MaxLength: 4 * time.Hour})
	require.Len(t, slots, 2)
	assert.Equal(t, "Sun 08:00 CEST", slots[1].Start.Format("Mon 15:04 MST"))
	assert.Equal(t, "Sun 12:00 CEST", slots[1].End.Format("Mon 15:04 MST"))

	autumn := models.SchedulingConstraints{
		StartDate:   time.Date(2026, time.October, 25, 0, 0, 0, 0, loc),
		DayStart:    0,
		DayEnd:      24 * time.Hour,
		HorizonDays: 1,
	}
	window := DayWindow(autumn, 0)
	assert.Equal(t, time.Date(2026, time.October, 26, 0, 0, 0, 0, loc), window.End)
	assert.Equal(t, 25*time.Hour, window.Duration())
}

func TestValidateConstraints(t *testing.T) {
	valid := workdayConstraints(1)
	require.NoError(t, ValidateConstraints(valid))

	noHorizon := valid
	noHorizon.HorizonDays = 0
	assert.ErrorIs(t, ValidateConstraints(noHorizon), ErrInvalidInput)

	inverted := valid
	inverted.DayStart, inverted.DayEnd = 17*time.Hour, 9*time.Hour
	assert.ErrorIs(t, ValidateConstraints(inverted), ErrInvalidInterval)

	badBlock := valid
	badBlock.BlackoutWindows = []models.TimeBlock{block(at(0, 12, 0), at(0, 11, 0), "oops")}
	assert.ErrorIs(t, ValidateConstraints(badBlock), ErrInvalidInterval)

	overlapping := valid
	overlapping.ExistingCommitments = []models.TimeBlock{
		block(at(0, 10, 0), at(0, 12, 0), "a"),
		block(at(0, 11, 0), at(0, 13, 0), "b"),
	}
	assert.NoError(t, ValidateConstraints(overlapping))
}
