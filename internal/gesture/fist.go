package gesture

import (
	"github.com/mikoslaf/handsense/internal/detector"
	"github.com/mikoslaf/handsense/internal/geom"
)

// handScaleEpsilon is the scale below which hand geometry is considered
// degenerate. A degenerate hand is never a fist.
const handScaleEpsilon = 1e-6

// FistClassifier decides whether a hand pose is a closed fist. Two
// heuristics are kept selectable so they can be compared on live input.
type FistClassifier interface {
	ClassifyFist(hand *detector.HandLandmarks) bool
}

// FoldCountClassifier is the default fist heuristic. A finger counts as
// folded when its tip sits closer to the wrist than its own PIP joint, which
// holds across hand orientations. The thumb is folded when its tip is tucked
// near the index knuckle or pulled in toward the wrist, both relative to the
// hand scale.
type FoldCountClassifier struct{}

// ClassifyFist implements FistClassifier.
func (FoldCountClassifier) ClassifyFist(hand *detector.HandLandmarks) bool {
	wrist := vec(hand, detector.Wrist)
	middleMCP := vec(hand, detector.MiddleMCP)

	handScale := wrist.Sub(middleMCP).Norm()
	if handScale < handScaleEpsilon {
		return false
	}

	foldedCount := 0
	for _, joints := range fingerJoints {
		tipToWrist := vec(hand, joints[0]).Sub(wrist).Norm()
		pipToWrist := vec(hand, joints[1]).Sub(wrist).Norm()
		if tipToWrist < pipToWrist {
			foldedCount++
		}
	}
	fingersFolded := foldedCount >= 3

	thumbTip := vec(hand, detector.ThumbTip)
	indexMCP := vec(hand, detector.IndexMCP)

	thumbTucked := thumbTip.Sub(indexMCP).Norm() < 0.30*handScale
	thumbClose := thumbTip.Sub(wrist).Norm() < 0.40*handScale

	return fingersFolded && (thumbTucked || thumbClose)
}

// CentroidClassifier is the alternate fist heuristic. All four fingertips
// must sit within a fraction of the hand span from the palm centroid, and
// the thumb must be close to the centroid, tucked at the index knuckle, or
// angled across the palm.
type CentroidClassifier struct{}

// ClassifyFist implements FistClassifier.
func (CentroidClassifier) ClassifyFist(hand *detector.HandLandmarks) bool {
	wrist := vec(hand, detector.Wrist)
	middleMCP := vec(hand, detector.MiddleMCP)

	span := wrist.Sub(middleMCP).Norm()
	if span < handScaleEpsilon {
		return false
	}

	var centroid geom.Vec3
	for _, idx := range palmIndices {
		p := vec(hand, idx)
		centroid.X += p.X
		centroid.Y += p.Y
		centroid.Z += p.Z
	}
	n := float64(len(palmIndices))
	centroid = geom.Vec3{X: centroid.X / n, Y: centroid.Y / n, Z: centroid.Z / n}

	for _, joints := range fingerJoints {
		if vec(hand, joints[0]).Sub(centroid).Norm() >= 0.40*span {
			return false
		}
	}

	thumbTip := vec(hand, detector.ThumbTip)
	thumbDir := thumbTip.Sub(vec(hand, detector.ThumbMCP))
	palmAxis := middleMCP.Sub(wrist)

	thumbClose := thumbTip.Sub(centroid).Norm() < 0.35*span
	thumbTucked := thumbTip.Sub(vec(hand, detector.IndexMCP)).Norm() < 0.28*span
	thumbAcross := geom.AngleDeg(thumbDir, palmAxis) > 100

	return thumbClose || thumbTucked || thumbAcross
}
