// Package geom provides the small set of vector primitives used by hand
// feature extraction.
package geom

import "math"

// Right-angle tolerance band in degrees.
const (
	RightAngleMin = 75.0
	RightAngleMax = 105.0
)

// epsilon below which a vector is treated as degenerate.
const epsilon = 1e-6

// Vec3 represents a 3D vector.
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Dot returns the dot product of v and o.
func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Norm returns the Euclidean length of v.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Unit returns v scaled to unit length. A vector with near-zero norm is
// returned unchanged rather than divided by it.
func Unit(v Vec3) Vec3 {
	n := v.Norm()
	if n < epsilon {
		return v
	}
	return Vec3{X: v.X / n, Y: v.Y / n, Z: v.Z / n}
}

// AngleDeg returns the angle between v1 and v2 in degrees, in [0, 180].
// The cosine is clamped into [-1, 1] before acos so floating-point drift
// never produces NaN.
func AngleDeg(v1, v2 Vec3) float64 {
	cos := Unit(v1).Dot(Unit(v2))
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * 180 / math.Pi
}

// IsRightAngle reports whether the angle falls inside the default
// [RightAngleMin, RightAngleMax] band. Both boundaries are inclusive.
func IsRightAngle(angle float64) bool {
	return IsRightAngleWithin(angle, RightAngleMin, RightAngleMax)
}

// IsRightAngleWithin reports whether the angle falls inside [min, max].
func IsRightAngleWithin(angle, min, max float64) bool {
	return angle >= min && angle <= max
}
