// Command gavm-run drives the genetic algorithm against the maze task:
// it evolves a population of byte-string programs for a fixed number
// of generations (or until an exit predicate fires), logging scores
// and optionally persisting the final population.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"strconv"

	getopt "github.com/pborman/getopt/v2"

	"gavm/config"
	"gavm/genetic"
	"gavm/maze"
	"gavm/persist"
	"gavm/util/logger"
	"gavm/vm"
	"gavm/vmsyscall"
)

const (
	defaultInitialProgramBytes = 64
	defaultStepBudget          = 20000
	defaultMazeTestSetSize     = 10
)

func main() {
	optGenerations := getopt.IntLong("generations", 0, 0, "Number of generations to run")
	optMutationRate := getopt.StringLong("mutation-rate", 0, "0.01", "Per-bit mutation rate")
	optCrossoverRate := getopt.StringLong("crossover-rate", 0, "0.7", "Crossover rate")
	optMazeWidth := getopt.IntLong("maze-width", 0, 15, "Maze width")
	optMazeHeight := getopt.IntLong("maze-height", 0, 15, "Maze height")
	optMazeCount := getopt.IntLong("maze-count", 0, defaultMazeTestSetSize, "Number of mazes in the fixed test set individuals are evaluated against")
	optPopulation := getopt.IntLong("population", 0, 100, "Population size")
	optSavePopulation := getopt.StringLong("save-population", 0, "", "Path to save the final population + maze set")
	optLoadPopulation := getopt.StringLong("load-population", 0, "", "Path to load an initial population + maze set from")
	optCSVLog := getopt.StringLong("csv-log", 0, "", "Path to write the per-generation score log")
	optWorkers := getopt.IntLong("workers", 0, 0, "Worker goroutines (0: one per individual)")
	optPrintOutput := getopt.BoolLong("print-output", 0, "Echo PUTC output to stdout")
	optSeed := getopt.Int64Long("seed", 0, 1, "Top-level PRNG seed")
	optConfigPath := getopt.StringLong("config", 'c', "", "Optional key=value configuration file")
	optPlot := getopt.BoolLong("plot", 0, "Accepted for CLI compatibility; no-op")
	optHelp := getopt.BoolLong("help", 'h', "Show usage")
	getopt.Parse()
	_ = optPlot

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	log := slog.New(logger.NewHandler(os.Stderr, nil, false))
	slog.SetDefault(log)

	mutationRate, err := strconv.ParseFloat(*optMutationRate, 64)
	if err != nil {
		log.Error("invalid --mutation-rate: " + err.Error())
		os.Exit(1)
	}
	crossoverRate, err := strconv.ParseFloat(*optCrossoverRate, 64)
	if err != nil {
		log.Error("invalid --crossover-rate: " + err.Error())
		os.Exit(1)
	}

	if *optConfigPath != "" {
		cfg, err := config.Load(*optConfigPath)
		if err != nil {
			log.Error(err.Error())
			os.Exit(1)
		}
		applyConfigDefaults(cfg, optGenerations, &mutationRate, &crossoverRate,
			optMazeWidth, optMazeHeight, optPopulation, optWorkers, optSeed)
	}

	if *optGenerations <= 0 {
		log.Error("--generations must be a positive number of generations")
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(*optSeed))

	// mazeSet is the fixed, pre-generated test set every individual is
	// evaluated against: each fitness call picks one entry at random
	// (spec.md §4.7 step 1), rather than every individual facing the
	// same single maze every generation.
	var mazeSet []*maze.Maze
	var population [][]byte
	if *optLoadPopulation != "" {
		rf, err := persist.LoadRunFile(*optLoadPopulation)
		if err != nil {
			log.Error(err.Error())
			os.Exit(1)
		}
		population, err = persist.DecodePopulation(rf)
		if err != nil {
			log.Error(err.Error())
			os.Exit(1)
		}
		if len(rf.Mazes) == 0 {
			log.Error("loaded run file has no mazes")
			os.Exit(1)
		}
		mazeSet = make([]*maze.Maze, len(rf.Mazes))
		for i, rec := range rf.Mazes {
			mazeSet[i] = persist.ToMaze(rec)
		}
	} else {
		mazeSet = make([]*maze.Maze, *optMazeCount)
		for i := range mazeSet {
			mazeSet[i] = maze.New(*optMazeWidth, *optMazeHeight, rng)
		}
		population = randomPopulation(rng, *optPopulation, defaultInitialProgramBytes)
	}

	mazeRecords := make([]persist.MazeRecord, len(mazeSet))
	for i, m := range mazeSet {
		mazeRecords[i] = persist.ToMazeRecord(m)
	}

	var scoreLog *persist.ScoreLog
	if *optCSVLog != "" {
		var err error
		scoreLog, err = persist.NewScoreLog(*optCSVLog)
		if err != nil {
			log.Error(err.Error())
			os.Exit(1)
		}
		defer scoreLog.Close()
	}

	var echo *os.File
	if *optPrintOutput {
		echo = os.Stdout
	}

	algo := &genetic.Algorithm{
		MutationRate:  mutationRate,
		CrossoverRate: crossoverRate,
		Workers:       *optWorkers,
		Fitness:       fitnessFunc(mazeRecords, echo),
		Hooks: genetic.Hooks{
			NextGen: func(gen int) {
				log.Info("generation starting", "generation", gen)
			},
			LogScores: func(gen int, scores []int) {
				if scoreLog != nil {
					if err := scoreLog.WriteGeneration(gen, scores); err != nil {
						log.Error(err.Error())
					}
				}
				log.Info("generation scored", "generation", gen, "mean", meanOf(scores), "max", maxOf(scores))
			},
			Selection: func(mean float64) {
				log.Debug("selecting parents", "mean_score", mean)
			},
			Finished: func() {
				log.Info("run finished")
			},
		},
	}

	scored := algo.Run(rng, population, genetic.UntilGeneration(*optGenerations))

	best := bestOf(scored)
	fmt.Printf("best score: %d\n", best.Score)

	if *optSavePopulation != "" {
		finalPop := make([][]byte, len(scored))
		for i, s := range scored {
			finalPop[i] = s.Program
		}
		rf := persist.BuildRunFile(best.Program, finalPop, mazeSet)
		if err := persist.SaveRunFile(*optSavePopulation, rf); err != nil {
			log.Error(err.Error())
			os.Exit(1)
		}
	}
}

func applyConfigDefaults(cfg *config.Config, generations *int, mutationRate, crossoverRate *float64,
	mazeWidth, mazeHeight, population, workers *int, seed *int64) {
	if cfg.IsSet("generations") {
		*generations = cfg.Generations
	}
	if cfg.IsSet("mutation-rate") {
		*mutationRate = cfg.MutationRate
	}
	if cfg.IsSet("crossover-rate") {
		*crossoverRate = cfg.CrossoverRate
	}
	if cfg.IsSet("maze-width") {
		*mazeWidth = cfg.MazeWidth
	}
	if cfg.IsSet("maze-height") {
		*mazeHeight = cfg.MazeHeight
	}
	if cfg.IsSet("population") {
		*population = cfg.Population
	}
	if cfg.IsSet("workers") {
		*workers = cfg.Workers
	}
	if cfg.IsSet("seed") {
		*seed = cfg.Seed
	}
}

func randomPopulation(rng *rand.Rand, size, programBytes int) [][]byte {
	pop := make([][]byte, size)
	for i := range pop {
		prog := make([]byte, programBytes)
		rng.Read(prog)
		pop[i] = prog
	}
	return pop
}

// fitnessFunc closes over the shared, immutable maze test set: each
// call picks one maze at random (spec.md §4.7 step 1) and reconstructs
// its own maze.Maze from that record (a fresh copy of the grid, fresh
// player/visited state) so concurrent workers never share mutable
// state, then runs the program against it and scores the result.
func fitnessFunc(records []persist.MazeRecord, echo *os.File) genetic.FitnessFunc {
	return func(rng *rand.Rand, program []byte) int {
		record := records[rng.Intn(len(records))]
		mz := persist.ToMaze(record)

		var out io.Writer
		if echo != nil {
			out = echo
		}
		stream := vmsyscall.NewOutputStream(out)

		reg := vmsyscall.NewRegistry(&vmsyscall.Context{Output: stream, Maze: mz})
		vmsyscall.RegisterStandard(reg)
		vmsyscall.RegisterMaze(reg)

		m := vm.New(program, defaultStepBudget)
		result := m.Run(reg.Dispatcher())

		return maze.Score(mz, result.Halted)
	}
}

func meanOf(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0
	for _, x := range xs {
		sum += x
	}
	return float64(sum) / float64(len(xs))
}

func maxOf(xs []int) int {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func bestOf(scored []genetic.Scored) genetic.Scored {
	best := scored[0]
	for _, s := range scored[1:] {
		if s.Score > best.Score {
			best = s
		}
	}
	return best
}
