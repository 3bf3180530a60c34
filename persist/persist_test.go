package persist

import (
	"bufio"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gavm/maze"
)

func TestRunFileRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	m := maze.New(9, 9, rng)
	pop := [][]byte{{1, 2, 3}, {4, 5, 6}}

	rf := BuildRunFile(pop[0], pop, []*maze.Maze{m})

	dir := t.TempDir()
	path := filepath.Join(dir, "run.json")
	if err := SaveRunFile(path, rf); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := LoadRunFile(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	decoded, err := DecodePopulation(loaded)
	if err != nil {
		t.Fatalf("decode population failed: %v", err)
	}
	if len(decoded) != len(pop) {
		t.Fatalf("expected %d individuals, got %d", len(pop), len(decoded))
	}
	if string(decoded[0]) != string(pop[0]) {
		t.Fatalf("round-tripped program mismatch")
	}
	if len(loaded.Mazes) != 1 || loaded.Mazes[0].Width != m.Width {
		t.Fatalf("maze record did not round-trip: %+v", loaded.Mazes)
	}

	grid := loaded.Mazes[0].Grid
	if len(grid) != m.Height {
		t.Fatalf("expected %d grid rows, got %d", m.Height, len(grid))
	}
	for y, row := range grid {
		if len(row) != m.Width {
			t.Fatalf("row %d: expected %d cells, got %d", y, m.Width, len(row))
		}
		for x, cell := range row {
			if cell != string(m.Grid[y][x]) {
				t.Fatalf("cell (%d,%d): expected %q, got %q", y, x, string(m.Grid[y][x]), cell)
			}
		}
	}
}

func TestScoreLogWritesHeaderAndRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scores.csv")

	log, err := NewScoreLog(path)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := log.WriteGeneration(0, []int{10, 20}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %v", lines)
	}
	if lines[0] != "generation,score" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "0,10") {
		t.Fatalf("unexpected first row: %q", lines[1])
	}
}
