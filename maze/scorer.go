package maze

// Fitness reward/penalty constants, carried verbatim from
// original_source/maze_scorer.py's grade_maze_performance.
const (
	RewardFinish     = 10000
	RewardUniqueCell = 50
	RewardValidMove  = 5
	PenaltyStep      = 1
	PenaltyHalted    = 100
)

// Score computes the fitness of one run against one maze: a large
// bonus for reaching the finish, rewards for exploration and valid
// moves, a per-step penalty, and a flat penalty if the VM halted on a
// fatal interrupt (step-budget exhaustion included) rather than
// calling EXIT cleanly.
func Score(m *Maze, halted bool) int {
	score := 0
	if m.IsFinished() {
		score += RewardFinish
	}
	score += len(m.VisitedCells) * RewardUniqueCell
	score += m.ValidMoves * RewardValidMove
	score -= m.TotalSteps * PenaltyStep
	if halted {
		score -= PenaltyHalted
	}
	return score
}
