package util

func MaxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
