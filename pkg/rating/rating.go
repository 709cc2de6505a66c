package rating

import (
	"fmt"
	"math"
)

// Scale names as registered in the store.
const (
	ScaleStars5 = "stars_5"
	ScaleThumb  = "thumb"
)

// Scale kinds. Each kind carries its own conversion to percent; there is no
// shared numeric formula across kinds.
const (
	KindContinuous = "continuous"
	KindBinary     = "binary"
)

// StarsPercent converts a 0-5 star value to an integer percent in [0, 100].
func StarsPercent(stars float64) (int, error) {
	if stars < 0 || stars > 5 {
		return 0, fmt.Errorf("stars %.2f out of range [0, 5]", stars)
	}
	pct := int(math.Round(stars / 5.0 * 100))
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct, nil
}

// ThumbPercent converts a thumb verdict to percent: up is 100, down is 0.
// Must agree with the thumb scale map the store registers.
func ThumbPercent(up bool) int {
	if up {
		return 100
	}
	return 0
}

// ThumbRaw returns the raw string value stored for a thumb rating.
func ThumbRaw(up bool) string {
	if up {
		return "true"
	}
	return "false"
}

// Confidence derives a rating weight from the vote count behind it. The
// floor is 1.0: a rating with no or unknown votes still counts once. From
// there it grows with the square root of the vote count.
func Confidence(votes int) float64 {
	if votes <= 0 {
		return 1.0
	}
	return math.Max(1.0, math.Sqrt(float64(votes)))
}
