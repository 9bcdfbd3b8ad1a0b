package game

// Points maps answer speed to a score. Faster answers earn more, anything
// at or past the 30 second deadline earns nothing.
func Points(elapsedSeconds int) int {
	switch {
	case elapsedSeconds < 5:
		return 10
	case elapsedSeconds < 10:
		return 8
	case elapsedSeconds < 15:
		return 6
	case elapsedSeconds < 20:
		return 4
	case elapsedSeconds < 30:
		return 2
	default:
		return 0
	}
}
