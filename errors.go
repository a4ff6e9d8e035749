package capture

import (
	"errors"
	"fmt"

	"github.com/kylerobots/ground-texture-sim/core"
)

var (
	ErrStreamRegistered   = errors.New("capture: stream already registered")
	ErrNotArmed           = errors.New("capture: barrier not armed")
	ErrCollectTimeout     = errors.New("capture: collect deadline exceeded")
	ErrMoveTimeout        = errors.New("capture: move request did not complete")
	ErrMoveRejected       = errors.New("capture: move request rejected")
	ErrConvergenceTimeout = errors.New("capture: pose never converged")
	ErrMissingStreamEntry = errors.New("capture: model missing from pose stream")
	ErrSchemaMismatch     = errors.New("capture: payload does not match stream schema")
)

// TrajectoryError reports which pose of a trajectory failed and why.
// Poses captured before the failure remain written; the caller decides
// whether partial output is usable.
type TrajectoryError struct {
	Index int
	Pose  core.Pose2D
	Err   error
}

func (e *TrajectoryError) Error() string {
	return fmt.Sprintf("pose %d (%.3f, %.3f, %.3f): %v", e.Index, e.Pose.X, e.Pose.Y, e.Pose.Yaw, e.Err)
}

func (e *TrajectoryError) Unwrap() error {
	return e.Err
}
