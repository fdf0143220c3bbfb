package inference

// ContextWindow returns exactly length ids: the most recent length ids of
// ids, left-padded with padID when ids is shorter. The input is not modified.
func ContextWindow(ids []int, length, padID int) []int {
	if length <= 0 {
		return []int{}
	}
	window := make([]int, length)
	if len(ids) >= length {
		copy(window, ids[len(ids)-length:])
		return window
	}
	pad := length - len(ids)
	for i := range pad {
		window[i] = padID
	}
	copy(window[pad:], ids)
	return window
}
