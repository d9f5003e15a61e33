package wrapped

import (
	"fmt"
	"math"
)

// FormatPace converts a pace in decimal minutes per km to M:SS form
// (e.g. 5.5 -> "5:30")
func FormatPace(paceDecimal float64) string {
	if paceDecimal <= 0 || math.IsNaN(paceDecimal) || math.IsInf(paceDecimal, 0) {
		return "0:00"
	}

	minutes := int(paceDecimal)
	seconds := int((paceDecimal - float64(minutes)) * 60)
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// FormatDuration converts seconds to H:MM:SS, or M:SS under an hour
func FormatDuration(seconds float64) string {
	if seconds <= 0 {
		return "0:00:00"
	}

	hours := int(seconds) / 3600
	minutes := (int(seconds) % 3600) / 60
	secs := int(seconds) % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

// round1 rounds to one decimal place
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// round2 rounds to two decimal places
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// mean returns the arithmetic mean of vs, or 0 for an empty slice
func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}
