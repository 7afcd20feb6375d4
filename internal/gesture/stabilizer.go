package gesture

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Stabilization defaults.
const (
	// DefaultMinConfidenceRatio is the fraction of window samples that must
	// agree with the dominant value before a gesture is reported.
	DefaultMinConfidenceRatio = 0.7
	// DefaultWindowDuration is how long readings are collected before one
	// stabilized gesture is reduced from them.
	DefaultWindowDuration = 800 * time.Millisecond
	// fistConfidenceFloor is the fist agreement required for the fist label
	// to take precedence over finger-count labels.
	fistConfidenceFloor = 0.8
)

// Gesture labels produced by Stabilize.
const (
	GestureNone             = "none"
	GestureUnstable         = "unstable"
	GestureFist             = "fist"
	GestureOpenPalmOrNoHand = "open_palm_or_no_hand"
	GestureOneFinger        = "one_finger"
	GestureTwoFingers       = "two_fingers"
	GestureOpenHand         = "open_hand"
)

// Reading is the per-frame subset of a feature snapshot retained for
// stabilization. The timestamp only bounds the collection window; it takes
// no part in the reduction.
type Reading struct {
	FingerCount   int
	IsFist        bool
	ActiveFingers []string
	Timestamp     time.Time
}

// Result is the stabilized gesture report reduced from one window of
// readings. It is immutable once produced.
type Result struct {
	Gesture             string   `json:"gesture"`
	Confidence          float64  `json:"confidence"`
	DominantFingerCount int      `json:"dominant_finger_count"`
	IsDominantFist      bool     `json:"is_dominant_fist"`
	ActiveFingers       []string `json:"active_fingers"`
	SampleCount         int      `json:"sample_count"`
	StabilityScore      float64  `json:"stability_score"`
}

// Stabilize reduces an ordered sequence of readings to one classified,
// confidence-scored gesture. It is a pure, total function: it never mutates
// or retains its input, and an empty sequence yields the "none" result
// rather than an error. When several values are equally frequent, the one
// occurring earliest in the sequence wins.
func Stabilize(readings []Reading, minConfidenceRatio float64) Result {
	if minConfidenceRatio <= 0 {
		minConfidenceRatio = DefaultMinConfidenceRatio
	}

	if len(readings) == 0 {
		return Result{Gesture: GestureNone, ActiveFingers: []string{}}
	}

	total := float64(len(readings))

	dominantCount, countFreq := dominantFingerCount(readings)
	dominantFist, fistFreq := dominantFist(readings)

	countConfidence := float64(countFreq) / total
	fistConfidence := float64(fistFreq) / total
	overall := (countConfidence + fistConfidence) / 2

	gesture := classify(overall, minConfidenceRatio, dominantCount, dominantFist, fistConfidence)

	return Result{
		Gesture:             gesture,
		Confidence:          overall,
		DominantFingerCount: dominantCount,
		IsDominantFist:      dominantFist,
		ActiveFingers:       dominantFingers(readings),
		SampleCount:         len(readings),
		StabilityScore:      math.Round(overall*100) / 100,
	}
}

// classify maps the dominant window statistics to a gesture label. The rules
// are evaluated in fixed priority order; the first match wins. In particular
// a confidently dominant fist outranks the zero-finger-count label.
func classify(overall, minRatio float64, dominantCount int, dominantFist bool, fistConfidence float64) string {
	switch {
	case overall < minRatio:
		return GestureUnstable
	case dominantFist && fistConfidence > fistConfidenceFloor:
		return GestureFist
	case dominantCount == 0:
		return GestureOpenPalmOrNoHand
	case dominantCount == 1:
		return GestureOneFinger
	case dominantCount == 2:
		return GestureTwoFingers
	case dominantCount == 5:
		return GestureOpenHand
	default:
		return fmt.Sprintf("%d_fingers", dominantCount)
	}
}

// dominantFingerCount returns the mode of FingerCount and its frequency.
// Scanning in reading order with a strictly-greater comparison makes the
// earliest-occurring value win ties deterministically.
func dominantFingerCount(readings []Reading) (int, int) {
	freq := make(map[int]int, 6)
	for _, r := range readings {
		freq[r.FingerCount]++
	}

	best, bestFreq := readings[0].FingerCount, 0
	for _, r := range readings {
		if f := freq[r.FingerCount]; f > bestFreq {
			best, bestFreq = r.FingerCount, f
		}
	}

	return best, bestFreq
}

// dominantFist returns the mode of IsFist and its frequency, preferring the
// earlier-seen value on an exact tie.
func dominantFist(readings []Reading) (bool, int) {
	trueCount := 0
	for _, r := range readings {
		if r.IsFist {
			trueCount++
		}
	}
	falseCount := len(readings) - trueCount

	if trueCount > falseCount {
		return true, trueCount
	}
	if falseCount > trueCount {
		return false, falseCount
	}
	// Tie: the value of the earliest reading wins.
	return readings[0].IsFist, trueCount
}

// dominantFingers returns the most frequent exact active-finger pattern,
// with the earliest-seen pattern winning ties. The returned slice is a copy.
func dominantFingers(readings []Reading) []string {
	freq := make(map[string]int)
	for _, r := range readings {
		freq[strings.Join(r.ActiveFingers, ",")]++
	}

	var best []string
	bestFreq := 0
	for _, r := range readings {
		if f := freq[strings.Join(r.ActiveFingers, ",")]; f > bestFreq {
			best, bestFreq = r.ActiveFingers, f
		}
	}

	out := make([]string, len(best))
	copy(out, best)
	return out
}
