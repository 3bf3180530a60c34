// Package genetic implements the generational genetic algorithm that
// evolves variable-length byte-string programs: fitness-proportional
// selection, single-point crossover, and per-bit mutation, driven by a
// caller-supplied fitness function.
//
// Grounded on original_source/genetics.py's GeneticAlgo class. The
// worker-pool fan-out during evaluation is modeled on the teacher's
// goroutine+sync.WaitGroup+channel idiom (emu/core/core.go's
// Start/Stop), since nothing in the retrieval pack uses an external
// worker-pool library.
package genetic

import (
	"math/rand"
	"sort"
)

// Scored pairs one individual with its fitness score.
type Scored struct {
	Program []byte
	Score   int
}

// FitnessFunc evaluates one individual and returns its score. It is
// called concurrently from multiple workers; implementations must not
// share mutable state across calls without their own synchronization.
type FitnessFunc func(rng *rand.Rand, program []byte) int

// Hooks are the five observer callbacks genetics.py exposes. Any may
// be left nil.
type Hooks struct {
	NextGen     func(gen int)
	LogScores   func(gen int, scores []int)
	Selection   func(meanScore float64)
	Reproduction func()
	Finished    func()
}

// Algorithm holds the tunable rates and hooks for one run.
type Algorithm struct {
	MutationRate  float64
	CrossoverRate float64
	Fitness       FitnessFunc
	Hooks         Hooks
	Workers       int // <= 0: len(population)
}

// ExitCriteria decides whether the current generation is the last one.
// gen is 0-based.
type ExitCriteria func(population [][]byte, gen int) bool

// UntilGeneration returns an ExitCriteria that stops once gen+1 reaches
// total.
func UntilGeneration(total int) ExitCriteria {
	return func(_ [][]byte, gen int) bool {
		return gen+1 >= total
	}
}

// Run drives generations until exit reports true, mirroring
// genetics.py::run's hook sequence: next-gen, evaluate, log scores,
// exit check, selection hook, select, reproduction hook,
// crossover+mutate into the next population.
func (a *Algorithm) Run(rng *rand.Rand, population [][]byte, exit ExitCriteria) []Scored {
	gen := 0
	var scored []Scored

	for {
		if a.Hooks.NextGen != nil {
			a.Hooks.NextGen(gen)
		}

		scored = a.evaluate(rng, population)

		scores := make([]int, len(scored))
		for i, s := range scored {
			scores[i] = s.Score
		}
		if a.Hooks.LogScores != nil {
			a.Hooks.LogScores(gen, scores)
		}

		if exit(population, gen) {
			if a.Hooks.Finished != nil {
				a.Hooks.Finished()
			}
			return scored
		}

		if a.Hooks.Selection != nil {
			a.Hooks.Selection(mean(scores))
		}
		pairs := a.select_(rng, scored)

		if a.Hooks.Reproduction != nil {
			a.Hooks.Reproduction()
		}

		next := make([][]byte, 0, len(population))
		for _, p := range pairs {
			c1, c2 := a.crossover(rng, p.a, p.b)
			next = append(next, a.mutate(rng, c1), a.mutate(rng, c2))
		}
		// ceil(N/2) pairs yield one child too many when N is odd.
		population = next[:len(population)]
		gen++
	}
}

func mean(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0
	for _, x := range xs {
		sum += x
	}
	return float64(sum) / float64(len(xs))
}

type workItem struct {
	index   int
	program []byte
}

// evaluate fans evaluation out across a worker pool. Every individual
// gets its own *rand.Rand, sub-seeded from rng by its index, so results
// are reproducible for a given top-level seed regardless of which worker
// picks it up, per SPEC_FULL.md §9's determinism requirement.
func (a *Algorithm) evaluate(rng *rand.Rand, population [][]byte) []Scored {
	workers := a.Workers
	if workers <= 0 {
		workers = len(population)
	}
	if workers > len(population) {
		workers = len(population)
	}
	if workers < 1 {
		return nil
	}

	results := make([]Scored, len(population))
	work := make(chan workItem, len(population))
	for i, p := range population {
		work <- workItem{i, p}
	}
	close(work)

	seeds := make([]int64, len(population))
	for i := range seeds {
		seeds[i] = rng.Int63()
	}

	done := make(chan struct{})
	for w := 0; w < workers; w++ {
		go func() {
			for item := range work {
				itemRng := rand.New(rand.NewSource(seeds[item.index]))
				results[item.index] = Scored{
					Program: item.program,
					Score:   a.Fitness(itemRng, item.program),
				}
			}
			done <- struct{}{}
		}()
	}
	for w := 0; w < workers; w++ {
		<-done
	}

	return results
}

type pair struct{ a, b []byte }

// select_ performs min-max normalized fitness-proportional sampling
// with replacement, twice, matching genetics.py::_select.
func (a *Algorithm) select_(rng *rand.Rand, scored []Scored) []pair {
	weights := normalize(scored)
	k := (len(scored) + 1) / 2

	p1 := weightedSample(rng, scored, weights, k)
	p2 := weightedSample(rng, scored, weights, k)

	pairs := make([]pair, k)
	for i := 0; i < k; i++ {
		pairs[i] = pair{p1[i].Program, p2[i].Program}
	}
	return pairs
}

// normalize min-max scales scores to [0,1]; when every score ties, all
// weights are 1 (uniform), matching genetics.py::_normalize_data.
func normalize(scored []Scored) []float64 {
	weights := make([]float64, len(scored))
	if len(scored) == 0 {
		return weights
	}
	min, max := scored[0].Score, scored[0].Score
	for _, s := range scored {
		if s.Score < min {
			min = s.Score
		}
		if s.Score > max {
			max = s.Score
		}
	}
	if min == max {
		for i := range weights {
			weights[i] = 1
		}
		return weights
	}
	span := float64(max - min)
	for i, s := range scored {
		weights[i] = float64(s.Score-min) / span
	}
	return weights
}

// weightedSample draws n items with replacement, weighted by weights,
// equivalent to Python's random.choices.
func weightedSample(rng *rand.Rand, items []Scored, weights []float64, n int) []Scored {
	out := make([]Scored, n)
	if len(items) == 0 {
		return out
	}
	cum := make([]float64, len(weights))
	total := 0.0
	for i, w := range weights {
		total += w
		cum[i] = total
	}
	if total == 0 {
		for i := range out {
			out[i] = items[rng.Intn(len(items))]
		}
		return out
	}
	for i := 0; i < n; i++ {
		target := rng.Float64() * total
		idx := sort.Search(len(cum), func(j int) bool { return cum[j] >= target })
		if idx == len(cum) {
			idx = len(cum) - 1
		}
		out[i] = items[idx]
	}
	return out
}

// crossover performs single-point crossover at an even byte offset
// k*2, with k drawn uniformly from [0, min(len(a),len(b))/2], matching
// genetics.py::_crossover's formula exactly (see DESIGN.md for the Open
// Question decision to keep it as-is). The cut can therefore fall
// anywhere from 0 up to the shorter parent's (even-rounded) length.
func (a *Algorithm) crossover(rng *rand.Rand, p1, p2 []byte) ([]byte, []byte) {
	if rng.Float64() > a.CrossoverRate {
		return p1, p2
	}
	minLen := len(p1)
	if len(p2) < minLen {
		minLen = len(p2)
	}
	cut := rng.Intn(minLen/2+1) * 2

	c1 := append(append([]byte{}, p1[:cut]...), p2[cut:]...)
	c2 := append(append([]byte{}, p2[:cut]...), p1[cut:]...)
	return c1, c2
}
