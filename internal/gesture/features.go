// Package gesture turns hand landmarks into pose features and reduces noisy
// per-frame features into one stable, confidence-scored gesture.
package gesture

import (
	"fmt"

	"github.com/mikoslaf/handsense/internal/detector"
	"github.com/mikoslaf/handsense/internal/geom"
)

// FingerNames lists the five fingers in snapshot order.
var FingerNames = [5]string{"thumb", "index", "middle", "ring", "pinky"}

// fingerJoints pairs tip and PIP indices for the four non-thumb fingers,
// in [index, middle, ring, pinky] order.
var fingerJoints = [4][2]int{
	{detector.IndexTip, detector.IndexPIP},
	{detector.MiddleTip, detector.MiddlePIP},
	{detector.RingTip, detector.RingPIP},
	{detector.PinkyTip, detector.PinkyPIP},
}

// palmIndices are the landmarks averaged into the palm center: the wrist and
// the four finger knuckles. The centroid is stable regardless of finger pose.
var palmIndices = [5]int{
	detector.Wrist,
	detector.IndexMCP,
	detector.MiddleMCP,
	detector.RingMCP,
	detector.PinkyMCP,
}

// Snapshot is the fixed-shape feature set extracted from one hand in one
// frame.
type Snapshot struct {
	IsFist          bool    `json:"is_fist"`
	PalmX           float64 `json:"palm_x"`
	PalmY           float64 `json:"palm_y"`
	FingersUp       [5]bool `json:"fingers_up"` // [thumb, index, middle, ring, pinky]
	FingerCount     int     `json:"finger_count"`
	ThumbPalmAngle  float64 `json:"thumb_palm_angle"`
	ThumbIndexAngle float64 `json:"thumb_index_angle"`
}

// ActiveFingers returns the names of the raised fingers in snapshot order.
func (s *Snapshot) ActiveFingers() []string {
	names := make([]string, 0, 5)
	for i, up := range s.FingersUp {
		if up {
			names = append(names, FingerNames[i])
		}
	}
	return names
}

// Reading converts the snapshot into the subset retained for stabilization.
func (s *Snapshot) Reading() Reading {
	return Reading{
		FingerCount:   s.FingerCount,
		IsFist:        s.IsFist,
		ActiveFingers: s.ActiveFingers(),
	}
}

// Extractor computes feature snapshots from hand landmarks. The fist
// heuristic is pluggable; see FistClassifier.
type Extractor struct {
	fist FistClassifier
}

// NewExtractor creates an Extractor using the default fist classifier.
func NewExtractor() *Extractor {
	return &Extractor{fist: FoldCountClassifier{}}
}

// NewExtractorWithFist creates an Extractor using the given fist classifier.
// A nil classifier falls back to the default.
func NewExtractorWithFist(c FistClassifier) *Extractor {
	if c == nil {
		return NewExtractor()
	}
	return &Extractor{fist: c}
}

// Extract computes a feature snapshot from an ordered 21-point landmark
// slice. A slice of any other length is a malformed detection and is
// rejected.
func (e *Extractor) Extract(points []detector.Point3D) (*Snapshot, error) {
	hand, err := detector.NewHandLandmarks(points)
	if err != nil {
		return nil, fmt.Errorf("extract features: %w", err)
	}
	return e.ExtractHand(hand), nil
}

// ExtractHand computes a feature snapshot from a well-formed hand.
func (e *Extractor) ExtractHand(hand *detector.HandLandmarks) *Snapshot {
	s := &Snapshot{
		IsFist:    e.fist.ClassifyFist(hand),
		FingersUp: fingersUp(hand),
	}

	for _, up := range s.FingersUp {
		if up {
			s.FingerCount++
		}
	}

	s.PalmX, s.PalmY = palmCenter(hand)
	s.ThumbPalmAngle, s.ThumbIndexAngle = thumbAngles(hand)

	return s
}

// fingersUp reports which fingers are extended, in
// [thumb, index, middle, ring, pinky] order. Smaller y is higher in
// normalized image space, so a raised finger has its tip above its PIP.
// The thumb is special-cased: it is extended when its IP sits above its MCP.
func fingersUp(hand *detector.HandLandmarks) [5]bool {
	var up [5]bool

	up[0] = hand.Points[detector.ThumbIP].Y < hand.Points[detector.ThumbMCP].Y

	for i, joints := range fingerJoints {
		up[i+1] = hand.Points[joints[0]].Y < hand.Points[joints[1]].Y
	}

	return up
}

// palmCenter returns the normalized (x, y) centroid of the palm landmarks.
func palmCenter(hand *detector.HandLandmarks) (float64, float64) {
	var sumX, sumY float64
	for _, idx := range palmIndices {
		sumX += hand.Points[idx].X
		sumY += hand.Points[idx].Y
	}
	return sumX / float64(len(palmIndices)), sumY / float64(len(palmIndices))
}

// thumbAngles returns the thumb-to-palm and palm-to-index axis angles in
// degrees.
func thumbAngles(hand *detector.HandLandmarks) (thumbPalm, thumbIndex float64) {
	palmAxis := vec(hand, detector.MiddleMCP).Sub(vec(hand, detector.MiddleTip))
	indexAxis := vec(hand, detector.IndexMCP).Sub(vec(hand, detector.IndexTip))
	thumbDir := vec(hand, detector.ThumbTip).Sub(vec(hand, detector.ThumbMCP))

	return geom.AngleDeg(thumbDir, palmAxis), geom.AngleDeg(palmAxis, indexAxis)
}

// vec returns the landmark at idx as a geometry vector.
func vec(hand *detector.HandLandmarks, idx int) geom.Vec3 {
	p := hand.Points[idx]
	return geom.Vec3{X: p.X, Y: p.Y, Z: p.Z}
}
