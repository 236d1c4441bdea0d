package planner

import (
	"context"
	"math/rand"
	"sort"
	"sync"

	"github.com/noah-isme/study-planner-api/internal/models"
)

// greedyExploration is the chance that seeding picks a random under-served
// subject instead of the one with the largest deficit.
const greedyExploration = 0.2

// EvolutionResult is the best individual found and how the search ended.
type EvolutionResult struct {
	Assignments []models.SlotAssignment `json:"assignments"`
	Fitness     float64                 `json:"fitness"`
	Generations int                     `json:"generations"`
	Stalled     bool                    `json:"stalled"`
	Aborted     bool                    `json:"aborted"`
}

// EvolveSchedule searches for the slot assignment with the highest fitness.
// The search is reproducible for a given cfg.Seed. Cancelling ctx stops it
// after the generation in flight and returns the best individual so far.
func EvolveSchedule(ctx context.Context, slots []models.TimeSlot, prefs models.UserPreferences, cfg Config) (EvolutionResult, error) {
	if err := ValidatePreferences(prefs); err != nil {
		return EvolutionResult{}, err
	}
	if err := cfg.Validate(); err != nil {
		return EvolutionResult{}, err
	}
	for _, slot := range slots {
		if err := ValidateBlock(slotBlock(slot)); err != nil {
			return EvolutionResult{}, err
		}
	}
	cfg = cfg.WithDefaults()
	if len(slots) == 0 {
		return EvolutionResult{Assignments: []models.SlotAssignment{}}, nil
	}

	p := newProblem(slots, prefs, cfg)
	rng := rand.New(rand.NewSource(cfg.Seed))

	population := make([][]int, cfg.PopulationSize)
	for i := range population {
		population[i] = p.seedIndividual(rng)
	}
	scores := p.evaluate(population, cfg.Workers)
	bestIdx := argmax(scores)
	best := clone(population[bestIdx])
	bestScore := scores[bestIdx]

	result := EvolutionResult{}
	stall := 0
	for gen := 0; gen < cfg.Generations; gen++ {
		if ctx.Err() != nil {
			result.Aborted = true
			break
		}
		population = p.nextGeneration(population, scores, cfg, rng)
		scores = p.evaluate(population, cfg.Workers)
		result.Generations++

		idx := argmax(scores)
		if scores[idx] > bestScore {
			bestScore = scores[idx]
			best = clone(population[idx])
			stall = 0
		} else {
			stall++
		}
		if cfg.StallGenerations > 0 && stall >= cfg.StallGenerations {
			result.Stalled = true
			break
		}
	}

	result.Assignments = p.assignments(best)
	result.Fitness = bestScore
	return result, nil
}

// ScoreAssignments evaluates an externally built assignment with the same
// fitness function the search uses. Assignments to unknown slots or subjects
// are ignored.
func ScoreAssignments(slots []models.TimeSlot, assignments []models.SlotAssignment, prefs models.UserPreferences, cfg Config) float64 {
	cfg = cfg.WithDefaults()
	p := newProblem(slots, prefs, cfg)
	genes := make([]int, len(p.slots))
	for i := range genes {
		genes[i] = unassigned
	}
	subjectIndex := make(map[string]int, len(p.subjects))
	for i, s := range p.subjects {
		subjectIndex[s] = i
	}
	for _, a := range assignments {
		s, ok := subjectIndex[a.Subject]
		if !ok {
			continue
		}
		for i, slot := range p.slots {
			if slot.Start.Equal(a.Slot.Start) && slot.End.Equal(a.Slot.End) {
				genes[i] = s
				break
			}
		}
	}
	return p.fitness(genes)
}

// seedIndividual assigns slots greedily in order of jittered desirability,
// each to the subject furthest below its target minutes.
func (p *problem) seedIndividual(rng *rand.Rand) []int {
	genes := make([]int, len(p.slots))
	keys := make([]float64, len(p.slots))
	order := make([]int, len(p.slots))
	for i := range genes {
		genes[i] = unassigned
		keys[i] = p.desirability[i] + rng.Float64()*0.2
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return keys[order[a]] > keys[order[b]]
	})

	deficit := make([]float64, len(p.targets))
	copy(deficit, p.targets)
	for _, i := range order {
		s := p.pickSubject(deficit, p.minutes[i], rng)
		if s == unassigned {
			continue
		}
		genes[i] = s
		deficit[s] -= p.minutes[i]
	}
	return genes
}

func (p *problem) pickSubject(deficit []float64, minutes float64, rng *rand.Rand) int {
	var open []int
	best := unassigned
	for s, d := range deficit {
		if d < minutes/2 {
			continue
		}
		open = append(open, s)
		if best == unassigned || d > deficit[best] {
			best = s
		}
	}
	if len(open) > 1 && rng.Float64() < greedyExploration {
		return open[rng.Intn(len(open))]
	}
	return best
}

func (p *problem) nextGeneration(population [][]int, scores []float64, cfg Config, rng *rand.Rand) [][]int {
	ranked := make([]int, len(population))
	for i := range ranked {
		ranked[i] = i
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return scores[ranked[a]] > scores[ranked[b]]
	})

	next := make([][]int, 0, len(population))
	for i := 0; i < cfg.EliteCount && i < len(ranked); i++ {
		next = append(next, clone(population[ranked[i]]))
	}
	for len(next) < len(population) {
		a := tournament(scores, cfg.TournamentSize, rng)
		b := tournament(scores, cfg.TournamentSize, rng)
		child := p.crossover(population[a], population[b], rng)
		p.mutate(child, cfg.MutationRate, rng)
		next = append(next, child)
	}
	return next
}

func tournament(scores []float64, size int, rng *rand.Rand) int {
	winner := rng.Intn(len(scores))
	for i := 1; i < size; i++ {
		challenger := rng.Intn(len(scores))
		if scores[challenger] > scores[winner] {
			winner = challenger
		}
	}
	return winner
}

// crossover takes genes before a random cut from a and the rest from b, then
// repairs the per-subject allocation around the cut.
func (p *problem) crossover(a, b []int, rng *rand.Rand) []int {
	n := len(a)
	cut := 0
	if n > 1 {
		cut = 1 + rng.Intn(n-1)
	}
	child := make([]int, n)
	copy(child, a[:cut])
	copy(child[cut:], b[cut:])
	p.repair(child, cut)
	return child
}

// repair releases slots of over-allocated subjects, farthest from the cut
// first, then hands the nearest unused slots to subjects still short of
// their target.
func (p *problem) repair(genes []int, cut int) {
	alloc := p.allocation(genes)
	byDistance := make([]int, len(genes))
	for i := range byDistance {
		byDistance[i] = i
	}
	sort.SliceStable(byDistance, func(a, b int) bool {
		return abs(byDistance[a]-cut) < abs(byDistance[b]-cut)
	})

	for k := len(byDistance) - 1; k >= 0; k-- {
		i := byDistance[k]
		s := genes[i]
		if s == unassigned {
			continue
		}
		if alloc[s]-p.targets[s] >= p.minutes[i]/2 {
			genes[i] = unassigned
			alloc[s] -= p.minutes[i]
		}
	}

	deficit := make([]float64, len(p.targets))
	for s := range deficit {
		deficit[s] = p.targets[s] - alloc[s]
	}
	for _, i := range byDistance {
		if genes[i] != unassigned {
			continue
		}
		s := argmax(deficit)
		if deficit[s] < p.minutes[i]/2 {
			continue
		}
		genes[i] = s
		deficit[s] -= p.minutes[i]
	}
}

func (p *problem) mutate(genes []int, rate float64, rng *rand.Rand) {
	if len(genes) == 0 || rng.Float64() >= rate {
		return
	}
	if rng.Intn(2) == 0 || len(genes) < 2 {
		i := rng.Intn(len(genes))
		genes[i] = rng.Intn(len(p.subjects)+1) - 1
		return
	}
	i, j := rng.Intn(len(genes)), rng.Intn(len(genes))
	genes[i], genes[j] = genes[j], genes[i]
}

// evaluate scores every individual, fanning out over workers and joining
// before returning. Results are written by index so ordering never depends
// on goroutine scheduling.
func (p *problem) evaluate(population [][]int, workers int) []float64 {
	scores := make([]float64, len(population))
	if workers <= 1 || len(population) < 2 {
		for i, genes := range population {
			scores[i] = p.fitness(genes)
		}
		return scores
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				scores[i] = p.fitness(population[i])
			}
		}()
	}
	for i := range population {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return scores
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

func clone(genes []int) []int {
	out := make([]int, len(genes))
	copy(out, genes)
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
