package game

// BallEvent records pocketing one or more balls of a given value.
// Only balls 3, 6 and 9 score in point-target mode.
type BallEvent struct {
	Ball  int `json:"ball"`
	Count int `json:"count"`
}

// Coefficients are the room-configured point weights for balls 3/6/9.
type Coefficients struct {
	Ball3 int
	Ball6 int
	Ball9 int
}

// DefaultCoefficients mirrors the classic 1/2/3 weighting.
var DefaultCoefficients = Coefficients{Ball3: 1, Ball6: 2, Ball9: 3}

func (c Coefficients) ValueOf(ball int) (int, bool) {
	switch ball {
	case 3:
		return c.Ball3, true
	case 6:
		return c.Ball6, true
	case 9:
		return c.Ball9, true
	default:
		return 0, false
	}
}

// PointTargetScore computes the per-loser deduction and the winner's total
// for one scoring submission. Each loser pays pointsPerLoser independently;
// the winner earns the sum of all payments.
func PointTargetScore(c Coefficients, events []BallEvent, loserCount int) (pointsPerLoser, totalEarned int, ok bool) {
	for _, ev := range events {
		val, known := c.ValueOf(ev.Ball)
		if !known || ev.Count < 0 {
			return 0, 0, false
		}
		pointsPerLoser += val * ev.Count
	}
	return pointsPerLoser, pointsPerLoser * loserCount, true
}
