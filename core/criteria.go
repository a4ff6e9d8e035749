package core

import "math"

// DefaultTolerance is the absolute tolerance applied to each position axis
// and to the wrapped yaw difference when no explicit criteria are given.
const DefaultTolerance = 1e-6

// Criteria configures when a reported pose counts as having reached a
// commanded pose
type Criteria struct {
	// PositionTolerance is the absolute per-axis tolerance in meters
	PositionTolerance float64

	// YawTolerance is the absolute tolerance in radians, applied after
	// wrapping
	YawTolerance float64
}

// DefaultCriteria returns the reference tolerances
func DefaultCriteria() Criteria {
	return Criteria{
		PositionTolerance: DefaultTolerance,
		YawTolerance:      DefaultTolerance,
	}
}

// Converged reports whether actual matches target within the tolerances.
// Both yaws and their difference are wrapped into [-pi, pi] before
// comparison, so two poses facing each other across the -pi/pi seam compare
// as equal rather than 2*pi apart.
func (c Criteria) Converged(actual, target Pose2D) bool {
	if math.Abs(actual.X-target.X) > c.PositionTolerance {
		return false
	}
	if math.Abs(actual.Y-target.Y) > c.PositionTolerance {
		return false
	}
	diff := WrapAngle(WrapAngle(actual.Yaw) - WrapAngle(target.Yaw))
	return math.Abs(diff) <= c.YawTolerance
}
