package vision

// fitWithin scales (w, h) so that the longer side equals maxSide, keeping the
// aspect ratio. Neither side drops below 1.
func fitWithin(w, h, maxSide int) (int, int) {
	longer := maxInt(w, h)
	if longer <= maxSide {
		return w, h
	}
	scale := float64(maxSide) / float64(longer)
	return maxInt(1, int(float64(w)*scale)), maxInt(1, int(float64(h)*scale))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
