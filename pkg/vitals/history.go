package vitals

// HistorySize is the number of heart-rate values kept for the trend chart.
const HistorySize = 5

// DefaultHeartRate seeds every slot of a fresh History.
const DefaultHeartRate = 80

// History is the trailing window of heart-rate readings, oldest first.
// Being an array, it always holds exactly HistorySize values.
type History [HistorySize]int

// NewHistory returns a window filled with DefaultHeartRate.
func NewHistory() History {
	var h History
	for i := range h {
		h[i] = DefaultHeartRate
	}
	return h
}

// Append returns h with its oldest value dropped and v added as the newest.
// h itself is not modified.
func Append(h History, v int) History {
	var out History
	copy(out[:], h[1:])
	out[HistorySize-1] = v
	return out
}

// Values returns the window as a slice, oldest first.
func (h History) Values() []int {
	out := make([]int, HistorySize)
	copy(out, h[:])
	return out
}

// Latest returns the most recently appended value.
func (h History) Latest() int {
	return h[HistorySize-1]
}

// Range returns the smallest and largest values in the window.
func (h History) Range() (lo, hi int) {
	lo, hi = h[0], h[0]
	for _, v := range h[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
