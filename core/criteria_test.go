package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestConvergedExactMatch(t *testing.T) {
	criteria := DefaultCriteria()
	pose := Pose2D{X: 1.5, Y: -2.25, Yaw: 0.75}
	assert.True(t, criteria.Converged(pose, pose))
}

func TestConvergedRejectsOppositeFacing(t *testing.T) {
	// Same position, yaw exactly pi apart: must never count as converged.
	criteria := DefaultCriteria()
	target := Pose2D{X: 1, Y: 1, Yaw: 0}
	actual := Pose2D{X: 1, Y: 1, Yaw: math.Pi}
	assert.False(t, criteria.Converged(actual, target))
}

func TestConvergedAcrossSeam(t *testing.T) {
	// Yaws a hair either side of the -pi/pi seam are the same heading; the
	// raw difference of nearly 2*pi must not trigger a false negative.
	criteria := DefaultCriteria()
	target := Pose2D{Yaw: math.Pi - 1e-9}
	actual := Pose2D{Yaw: -math.Pi + 1e-9}
	assert.True(t, criteria.Converged(actual, target))
}

func TestConvergedPositionAxes(t *testing.T) {
	criteria := Criteria{PositionTolerance: 0.01, YawTolerance: 0.01}
	target := Pose2D{}
	cases := []struct {
		name   string
		actual Pose2D
		want   bool
	}{
		{"within tolerance", Pose2D{X: 0.005, Y: -0.005, Yaw: 0.005}, true},
		{"x out", Pose2D{X: 0.02}, false},
		{"y out", Pose2D{Y: -0.02}, false},
		{"yaw out", Pose2D{Yaw: 0.02}, false},
		{"at the position boundary", Pose2D{X: 0.01, Y: 0.01, Yaw: 0.005}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, criteria.Converged(tc.actual, target))
		})
	}
}

// A pose converges on itself regardless of how far outside [-pi, pi] its
// yaw is written
func TestPropertyConvergedSelfAnyYaw(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		criteria := DefaultCriteria()
		pose := Pose2D{
			X:   rapid.Float64Range(-100, 100).Draw(rt, "x"),
			Y:   rapid.Float64Range(-100, 100).Draw(rt, "y"),
			Yaw: rapid.Float64Range(-50, 50).Draw(rt, "yaw"),
		}
		shifted := pose
		shifted.Yaw = pose.Yaw + 2*math.Pi
		if !criteria.Converged(shifted, pose) {
			rt.Fatalf("pose %+v did not converge on itself shifted by 2*pi", pose)
		}
	})
}
