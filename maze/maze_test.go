package maze

import (
	"math/rand"
	"testing"
)

func TestNewOddensWidthHeight(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	m := New(8, 8, rng)
	if m.Width%2 == 0 || m.Height%2 == 0 {
		t.Fatalf("expected odd dimensions, got %dx%d", m.Width, m.Height)
	}
}

func TestBorderIsWall(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	m := New(11, 9, rng)
	for x := 0; x < m.Width; x++ {
		if m.Grid[0][x] != Wall || m.Grid[m.Height-1][x] != Wall {
			t.Fatalf("expected solid top/bottom border at col %d", x)
		}
	}
	for y := 0; y < m.Height; y++ {
		if m.Grid[y][0] != Wall || m.Grid[y][m.Width-1] != Wall {
			t.Fatalf("expected solid left/right border at row %d", y)
		}
	}
}

func TestStartAndFinishDiffer(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	m := New(9, 9, rng)
	if m.Start == m.Finish {
		t.Fatalf("start and finish must not coincide")
	}
}

func TestMoveIntoWallIsInvalid(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	m := New(9, 9, rng)
	// Force the player next to the solid border and try to walk through it.
	m.player = Pos{1, 1}
	m.Grid[0][1] = Wall
	ok := m.Move(Up)
	if ok {
		t.Fatalf("expected move into border wall to be invalid")
	}
	if m.TotalSteps != 1 {
		t.Fatalf("TotalSteps should count attempted moves regardless of validity")
	}
	if m.ValidMoves != 0 {
		t.Fatalf("ValidMoves should not count the rejected move")
	}
}

func TestMoveOntoFloorUpdatesPlayerAndVisited(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	m := New(9, 9, rng)
	m.player = m.Start
	m.Grid[m.Start.Y-1][m.Start.X] = Floor
	before := len(m.VisitedCells)
	ok := m.Move(Up)
	if !ok {
		t.Fatalf("expected valid move onto floor cell")
	}
	if m.player.Y != m.Start.Y-1 {
		t.Fatalf("player did not move")
	}
	if len(m.VisitedCells) != before+1 {
		t.Fatalf("expected visited set to grow by one")
	}
}

func TestResetRestoresStartAndClearsStats(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	m := New(9, 9, rng)
	m.Grid[m.Start.Y-1][m.Start.X] = Floor
	m.Move(Up)
	m.Reset()
	if m.player != m.Start {
		t.Fatalf("reset did not restore start position")
	}
	if m.TotalSteps != 0 || m.ValidMoves != 0 || len(m.VisitedCells) != 1 {
		t.Fatalf("reset did not clear statistics")
	}
}

func TestScoreRewardsFinishAndExploration(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	m := New(9, 9, rng)
	m.VisitedCells[Pos{0, 0}] = struct{}{}
	m.ValidMoves = 3
	m.TotalSteps = 5
	base := Score(m, false)
	// start + (0,0) visited, 3 valid moves, 5 steps.
	if want := 2*RewardUniqueCell + 3*RewardValidMove - 5*PenaltyStep; base != want {
		t.Fatalf("expected exploration score %d, got %d", want, base)
	}
	m.player = m.Finish
	finished := Score(m, false)
	if finished-base != RewardFinish {
		t.Fatalf("expected finish bonus of %d, got delta %d", RewardFinish, finished-base)
	}
}

func TestScorePenalizesHalt(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	m := New(9, 9, rng)
	ok := Score(m, false)
	halted := Score(m, true)
	if ok-halted != PenaltyHalted {
		t.Fatalf("expected halt penalty of %d, got delta %d", PenaltyHalted, ok-halted)
	}
}

func TestDeterministicGeneration(t *testing.T) {
	m1 := New(11, 11, rand.New(rand.NewSource(42)))
	m2 := New(11, 11, rand.New(rand.NewSource(42)))
	for y := range m1.Grid {
		for x := range m1.Grid[y] {
			if m1.Grid[y][x] != m2.Grid[y][x] {
				t.Fatalf("same seed produced different mazes at (%d,%d)", y, x)
			}
		}
	}
	if m1.Start != m2.Start || m1.Finish != m2.Finish {
		t.Fatalf("same seed produced different start/finish")
	}
}
