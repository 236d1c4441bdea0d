package planner

import (
	"fmt"
	"math"
	"sort"

	"github.com/noah-isme/study-planner-api/internal/models"
)

const (
	unassigned = -1
	// dayPartBlend is the share of slot desirability taken from the preferred
	// day-part ranking when the learner supplied one.
	dayPartBlend = 0.3
	// neutralEnergy is used for hours missing from the energy profile.
	neutralEnergy = 0.5
)

var validDayParts = map[models.DayPart]bool{
	models.DayPartEarlyMorning: true,
	models.DayPartMorning:      true,
	models.DayPartAfternoon:    true,
	models.DayPartEvening:      true,
	models.DayPartNight:        true,
}

// ValidatePreferences checks the public invariants of user preferences.
func ValidatePreferences(p models.UserPreferences) error {
	if p.MaxSessionLength <= 0 {
		return fmt.Errorf("%w: maxSessionLength must be positive", ErrInvalidInput)
	}
	if p.MinBreakLength < 0 {
		return fmt.Errorf("%w: minBreakLength must not be negative", ErrInvalidInput)
	}
	if len(p.SubjectWeights) == 0 {
		return fmt.Errorf("%w: at least one subject weight is required", ErrInvalidInput)
	}
	var total float64
	for subject, w := range p.SubjectWeights {
		if subject == "" {
			return fmt.Errorf("%w: subject name must not be empty", ErrInvalidInput)
		}
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: weight of %q must be a non-negative number", ErrInvalidInput, subject)
		}
		total += w
	}
	if total == 0 {
		return fmt.Errorf("%w: subject weights must not all be zero", ErrInvalidInput)
	}
	for hour, energy := range p.EnergyProfile {
		if hour < 0 || hour > 23 {
			return fmt.Errorf("%w: energy profile hour %d out of range", ErrInvalidInput, hour)
		}
		if energy < 0 || energy > 1 {
			return fmt.Errorf("%w: energy at hour %d must be within [0,1]", ErrInvalidInput, hour)
		}
	}
	for _, part := range p.PreferredTimesOfDay {
		if !validDayParts[part] {
			return fmt.Errorf("%w: unknown day part %q", ErrInvalidInput, part)
		}
	}
	return nil
}

// problem holds everything the fitness function needs, precomputed once per run.
type problem struct {
	slots        []models.TimeSlot
	minutes      []float64
	desirability []float64
	subjects     []string
	priority     []float64
	targets      []float64
	targetTotal  float64
	prefs        models.UserPreferences
	weights      FitnessWeights
}

func newProblem(slots []models.TimeSlot, prefs models.UserPreferences, cfg Config) *problem {
	ordered := make([]models.TimeSlot, len(slots))
	copy(ordered, slots)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Start.Before(ordered[j].Start)
	})

	p := &problem{
		slots:        ordered,
		minutes:      make([]float64, len(ordered)),
		desirability: make([]float64, len(ordered)),
		prefs:        prefs,
		weights:      cfg.Weights,
	}
	var available float64
	for i, slot := range ordered {
		p.minutes[i] = slot.Duration().Minutes()
		p.desirability[i] = desirability(slot, prefs)
		available += p.minutes[i]
	}

	for subject := range prefs.SubjectWeights {
		p.subjects = append(p.subjects, subject)
	}
	sort.Strings(p.subjects)

	var weightSum, weightMax float64
	for _, subject := range p.subjects {
		w := prefs.SubjectWeights[subject]
		weightSum += w
		weightMax = math.Max(weightMax, w)
	}
	p.priority = make([]float64, len(p.subjects))
	p.targets = make([]float64, len(p.subjects))
	for i, subject := range p.subjects {
		w := prefs.SubjectWeights[subject]
		if weightMax > 0 {
			p.priority[i] = w / weightMax
		}
		if weightSum > 0 {
			p.targets[i] = w / weightSum * available * cfg.Utilization
		}
		p.targetTotal += p.targets[i]
	}
	return p
}

// desirability scores a slot in [0,1] from the energy at its starting hour,
// blended with the rank of its day part among the preferred ones.
func desirability(slot models.TimeSlot, prefs models.UserPreferences) float64 {
	hour := slot.Start.Hour()
	energy := neutralEnergy
	if v, ok := prefs.EnergyProfile[hour]; ok {
		energy = v
	}
	if len(prefs.PreferredTimesOfDay) == 0 {
		return clamp01(energy)
	}
	part := models.DayPartForHour(hour)
	var partScore float64
	for rank, preferred := range prefs.PreferredTimesOfDay {
		if preferred == part {
			partScore = 1 - float64(rank)/float64(len(prefs.PreferredTimesOfDay))
			break
		}
	}
	return clamp01((1-dayPartBlend)*energy + dayPartBlend*partScore)
}

// fitness scores an individual in [0,1]; higher is better. It reads only its
// arguments and the immutable problem, so it is safe to call concurrently.
func (p *problem) fitness(genes []int) float64 {
	total := p.weights.sum()
	if total == 0 {
		return 0
	}
	score := p.weights.Energy*p.energyTerm(genes) +
		p.weights.Allocation*p.allocationTerm(genes) +
		p.weights.Constraint*p.constraintTerm(genes)
	return clamp01(score / total)
}

func (p *problem) energyTerm(genes []int) float64 {
	var weighted, norm float64
	for i, g := range genes {
		if g == unassigned {
			continue
		}
		w := p.minutes[i] * p.priority[g]
		weighted += w * p.desirability[i]
		norm += w
	}
	if norm == 0 {
		return 0
	}
	return clamp01(weighted / norm)
}

func (p *problem) allocationTerm(genes []int) float64 {
	if p.targetTotal == 0 {
		return 1
	}
	alloc := p.allocation(genes)
	var diff float64
	for s := range p.subjects {
		diff += math.Abs(alloc[s] - p.targets[s])
	}
	return clamp01(1 - diff/p.targetTotal)
}

// constraintTerm walks assigned slots chronologically, grouping same-subject
// slots separated by less than the minimum break into one session, and counts
// sessions that run too long or follow the previous one without a full break.
func (p *problem) constraintTerm(genes []int) float64 {
	maxSession := p.prefs.MaxSessionLength.Minutes()
	minBreak := p.prefs.MinBreakLength
	sessions, violations := 0, 0
	prev := unassigned
	var runMinutes float64
	for i, g := range genes {
		if g == unassigned {
			continue
		}
		if prev == unassigned {
			sessions++
			runMinutes = p.minutes[i]
			prev = i
			continue
		}
		last := p.slots[prev]
		cur := p.slots[i]
		sameDay := last.DayIndex == cur.DayIndex
		gap := cur.Start.Sub(last.End)
		if sameDay && genes[prev] == g && gap < minBreak {
			runMinutes += gap.Minutes() + p.minutes[i]
		} else {
			if runMinutes > maxSession {
				violations++
			}
			sessions++
			runMinutes = p.minutes[i]
			if sameDay && gap < minBreak {
				violations++
			}
		}
		prev = i
	}
	if sessions == 0 {
		return 1
	}
	if runMinutes > maxSession {
		violations++
	}
	return clamp01(1 - float64(violations)/float64(sessions))
}

func (p *problem) allocation(genes []int) []float64 {
	alloc := make([]float64, len(p.subjects))
	for i, g := range genes {
		if g != unassigned {
			alloc[g] += p.minutes[i]
		}
	}
	return alloc
}

func (p *problem) assignments(genes []int) []models.SlotAssignment {
	out := make([]models.SlotAssignment, 0)
	for i, g := range genes {
		if g == unassigned {
			continue
		}
		out = append(out, models.SlotAssignment{Slot: p.slots[i], Subject: p.subjects[g]})
	}
	return out
}
