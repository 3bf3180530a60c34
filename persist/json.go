// Package persist implements the two on-disk formats the genetic
// runner reads and writes: a JSON population/maze-set snapshot and an
// incrementally-flushed CSV score log.
//
// Grounded on spec.md §6's exact schema (carried unchanged into
// SPEC_FULL.md §4.8) and, for the encoding choice itself, on the
// absence of any third-party JSON/CSV library anywhere in the
// retrieval pack — see DESIGN.md for why encoding/json and
// encoding/csv are kept rather than swapped for an ecosystem codec.
package persist

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gavm/maze"
)

// MazeRecord is one maze's persisted shape, field-for-field matching
// spec.md §6's JSON schema: grid is a nested array of one-character
// cell strings (`[[char,...],...]`), matching
// original_source/maze_game.py's to_dict exactly - not a flattened
// array of row strings.
type MazeRecord struct {
	Width          int        `json:"width"`
	Height         int        `json:"height"`
	Grid           [][]string `json:"grid"`
	StartPosition  [2]int     `json:"start_position"`
	FinishPosition [2]int     `json:"finish_position"`
}

// RunFile is the full persisted population/maze-set snapshot.
type RunFile struct {
	BestProgramHex string       `json:"best_program_hex"`
	Population     []string     `json:"population"`
	Mazes          []MazeRecord `json:"mazes"`
}

// ToMazeRecord converts a live maze into its persisted form, one
// single-character string per cell per row.
func ToMazeRecord(m *maze.Maze) MazeRecord {
	grid := make([][]string, len(m.Grid))
	for i, row := range m.Grid {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = string(c)
		}
		grid[i] = cells
	}
	return MazeRecord{
		Width:          m.Width,
		Height:         m.Height,
		Grid:           grid,
		StartPosition:  [2]int{m.Start.Y, m.Start.X},
		FinishPosition: [2]int{m.Finish.Y, m.Finish.X},
	}
}

// ToMaze reconstructs a *maze.Maze from a persisted record.
func ToMaze(r MazeRecord) *maze.Maze {
	grid := make([][]byte, len(r.Grid))
	for i, row := range r.Grid {
		cells := make([]byte, len(row))
		for j, c := range row {
			if len(c) > 0 {
				cells[j] = c[0]
			}
		}
		grid[i] = cells
	}
	return maze.FromData(r.Width, r.Height,
		grid,
		maze.Pos{Y: r.StartPosition[0], X: r.StartPosition[1]},
		maze.Pos{Y: r.FinishPosition[0], X: r.FinishPosition[1]},
	)
}

// BuildRunFile hex-encodes a population and the best individual, and
// attaches the maze set under test.
func BuildRunFile(best []byte, population [][]byte, mazes []*maze.Maze) RunFile {
	pop := make([]string, len(population))
	for i, p := range population {
		pop[i] = hex.EncodeToString(p)
	}
	records := make([]MazeRecord, len(mazes))
	for i, m := range mazes {
		records[i] = ToMazeRecord(m)
	}
	return RunFile{
		BestProgramHex: hex.EncodeToString(best),
		Population:     pop,
		Mazes:          records,
	}
}

// SaveRunFile writes rf as indented JSON to path.
func SaveRunFile(path string, rf RunFile) error {
	data, err := json.MarshalIndent(rf, "", "  ")
	if err != nil {
		return fmt.Errorf("encode run file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write run file %s: %w", path, err)
	}
	return nil
}

// LoadRunFile reads and decodes a run file previously written by
// SaveRunFile.
func LoadRunFile(path string) (RunFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunFile{}, fmt.Errorf("read run file %s: %w", path, err)
	}
	var rf RunFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return RunFile{}, fmt.Errorf("decode run file %s: %w", path, err)
	}
	return rf, nil
}

// DecodePopulation hex-decodes every program in a loaded run file.
func DecodePopulation(rf RunFile) ([][]byte, error) {
	pop := make([][]byte, len(rf.Population))
	for i, h := range rf.Population {
		b, err := hex.DecodeString(h)
		if err != nil {
			return nil, fmt.Errorf("decode population[%d]: %w", i, err)
		}
		pop[i] = b
	}
	return pop, nil
}
