package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/kylerobots/ground-texture-sim/core"
	"github.com/kylerobots/ground-texture-sim/transport"
)

// Params configures a Follower. Defaults match the reference simulation
// world that ships with the project.
type Params struct {
	// CameraHeight is how far above the ground plane the camera sits, in
	// meters. Must be non-negative.
	CameraHeight float64

	// CameraInfoStream publishes camera calibration parameters
	CameraInfoStream string

	// ImageStream publishes camera frames
	ImageStream string

	// PoseStream publishes the poses of every model in the world
	PoseStream string

	// ModelName is the camera model's name in the simulation, used both in
	// move requests and to find its entry in the pose stream
	ModelName string

	// MoveService is the service that repositions models
	MoveService string

	// MoveTimeout bounds a single move request/response call
	MoveTimeout time.Duration

	// MaxPollAttempts bounds how many snapshots are taken while waiting for
	// one pose to converge
	MaxPollAttempts int

	// CollectTimeout bounds each individual barrier collect
	CollectTimeout time.Duration

	// Criteria decides when a reported pose matches a commanded one
	Criteria core.Criteria
}

// DefaultParams returns the parameters for the stock simulation world
func DefaultParams() Params {
	return Params{
		CameraHeight:     0.25,
		CameraInfoStream: "/camera_info",
		ImageStream:      "/camera",
		PoseStream:       "/world/ground_texture/dynamic_pose/info",
		ModelName:        "camera",
		MoveService:      "/world/ground_texture/set_pose",
		MoveTimeout:      time.Second,
		MaxPollAttempts:  100,
		CollectTimeout:   5 * time.Second,
		Criteria:         core.DefaultCriteria(),
	}
}

func (p Params) validate() error {
	if p.CameraHeight < 0 {
		return fmt.Errorf("camera height must be non-negative, got %f", p.CameraHeight)
	}
	if p.ModelName == "" {
		return fmt.Errorf("model name must not be empty")
	}
	if p.ImageStream == "" || p.CameraInfoStream == "" || p.PoseStream == "" {
		return fmt.Errorf("all stream names must be set")
	}
	if p.MoveService == "" {
		return fmt.Errorf("move service must be set")
	}
	if p.MoveTimeout <= 0 {
		return fmt.Errorf("move timeout must be positive, got %s", p.MoveTimeout)
	}
	if p.MaxPollAttempts <= 0 {
		return fmt.Errorf("max poll attempts must be positive, got %d", p.MaxPollAttempts)
	}
	return nil
}

// poseState tracks where a single pose transition is in its lifecycle
type poseState int

const (
	stateIdle poseState = iota
	stateMoveRequested
	stateAwaitingConvergence
	stateCaptured
	stateFailed
)

func (s poseState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateMoveRequested:
		return "move_requested"
	case stateAwaitingConvergence:
		return "awaiting_convergence"
	case stateCaptured:
		return "captured"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Capture is the consistent triple collected at one converged pose, plus
// the wrapped pose that was commanded.
type Capture struct {
	Image      core.Image
	CameraInfo core.CameraInfo
	Pose       core.NamedPose
	Commanded  core.Pose2D
}

// Follower moves the camera to commanded poses and captures data only once
// the simulation reports the camera has actually arrived.
type Follower struct {
	params    Params
	barrier   *Barrier
	requester transport.Requester
	log       zerolog.Logger
}

// NewFollower validates the parameters and registers the three capture
// streams. Any registration failure is fatal: no capture may begin against
// a partially subscribed world.
func NewFollower(params Params, sub transport.Subscriber, req transport.Requester, log zerolog.Logger) (*Follower, error) {
	if err := params.validate(); err != nil {
		return nil, fmt.Errorf("follower params: %w", err)
	}
	barrier := NewBarrier(sub, log)
	if err := barrier.Register(params.ImageStream, core.SchemaImage); err != nil {
		return nil, err
	}
	if err := barrier.Register(params.CameraInfoStream, core.SchemaCameraInfo); err != nil {
		return nil, err
	}
	if err := barrier.Register(params.PoseStream, core.SchemaPoseList); err != nil {
		return nil, err
	}
	return &Follower{
		params:    params,
		barrier:   barrier,
		requester: req,
		log:       log,
	}, nil
}

// CameraHeight returns the configured height of the camera above the ground
func (f *Follower) CameraHeight() float64 {
	return f.params.CameraHeight
}

// CapturePose moves the camera to one pose and returns the captured triple
// once the reported pose has converged on the commanded one. The commanded
// yaw is wrapped before the move is issued, and the wrapped value is what
// the returned Capture records.
func (f *Follower) CapturePose(ctx context.Context, pose core.Pose2D) (Capture, error) {
	target := core.Pose2D{
		X:   pose.X,
		Y:   pose.Y,
		Yaw: core.WrapAngle(pose.Yaw),
	}

	state := stateMoveRequested
	f.logState(target, state)
	if err := f.requestMove(ctx, target); err != nil {
		f.logState(target, stateFailed)
		return Capture{}, err
	}

	state = stateAwaitingConvergence
	f.logState(target, state)
	for attempt := 1; attempt <= f.params.MaxPollAttempts; attempt++ {
		f.barrier.Arm()
		snapshot, err := f.barrier.Collect(ctx, f.params.CollectTimeout)
		if err != nil {
			f.logState(target, stateFailed)
			return Capture{}, fmt.Errorf("poll %d: %w", attempt, err)
		}
		actual, err := f.reportedPose(snapshot)
		if err != nil {
			f.logState(target, stateFailed)
			return Capture{}, err
		}
		if f.params.Criteria.Converged(actual, target) {
			capture, err := f.assemble(snapshot, target)
			if err != nil {
				f.logState(target, stateFailed)
				return Capture{}, err
			}
			f.logState(target, stateCaptured)
			return capture, nil
		}
		f.log.Debug().
			Int("attempt", attempt).
			Float64("x", actual.X).
			Float64("y", actual.Y).
			Float64("yaw", actual.Yaw).
			Msg("not yet converged")
	}
	f.logState(target, stateFailed)
	return Capture{}, fmt.Errorf("%w at (%.3f, %.3f, %.3f) after %d polls",
		ErrConvergenceTimeout, target.X, target.Y, target.Yaw, f.params.MaxPollAttempts)
}

// requestMove issues the bounded move call. Three independent signals must
// all report success: the call completed, its result flag is true, and the
// response acknowledgement is true. Any one failing aborts the pose.
func (f *Follower) requestMove(ctx context.Context, target core.Pose2D) error {
	req := core.MoveRequest{
		Name: f.params.ModelName,
		Position: core.Vec3{
			X: target.X,
			Y: target.Y,
			Z: f.params.CameraHeight,
		},
		Orientation: core.QuaternionFromYaw(target.Yaw),
	}
	ack, result, err := f.requester.Request(ctx, f.params.MoveService, req, f.params.MoveTimeout)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMoveTimeout, err)
	}
	if !result {
		return fmt.Errorf("%w: call reported failure", ErrMoveRejected)
	}
	if !ack.Data {
		return fmt.Errorf("%w: simulator declined the move", ErrMoveRejected)
	}
	return nil
}

// reportedPose extracts the camera model's planar pose from a snapshot
func (f *Follower) reportedPose(snapshot Snapshot) (core.Pose2D, error) {
	payload, ok := snapshot[f.params.PoseStream]
	if !ok {
		return core.Pose2D{}, fmt.Errorf("%w: no %s entry", ErrMissingStreamEntry, f.params.PoseStream)
	}
	poses, ok := payload.(core.PoseList)
	if !ok {
		return core.Pose2D{}, fmt.Errorf("%w: %s carried %s", ErrSchemaMismatch, f.params.PoseStream, payload.PayloadSchema())
	}
	pose, ok := poses.Find(f.params.ModelName)
	if !ok {
		return core.Pose2D{}, fmt.Errorf("%w: %s", ErrMissingStreamEntry, f.params.ModelName)
	}
	return pose.Planar(), nil
}

func (f *Follower) assemble(snapshot Snapshot, target core.Pose2D) (Capture, error) {
	image, ok := snapshot[f.params.ImageStream].(core.Image)
	if !ok {
		return Capture{}, fmt.Errorf("%w: %s is not an image", ErrSchemaMismatch, f.params.ImageStream)
	}
	info, ok := snapshot[f.params.CameraInfoStream].(core.CameraInfo)
	if !ok {
		return Capture{}, fmt.Errorf("%w: %s is not camera info", ErrSchemaMismatch, f.params.CameraInfoStream)
	}
	poses := snapshot[f.params.PoseStream].(core.PoseList)
	pose, _ := poses.Find(f.params.ModelName)
	return Capture{
		Image:      image,
		CameraInfo: info,
		Pose:       pose,
		Commanded:  target,
	}, nil
}

func (f *Follower) logState(target core.Pose2D, state poseState) {
	f.log.Debug().
		Float64("x", target.X).
		Float64("y", target.Y).
		Float64("yaw", target.Yaw).
		Stringer("state", state).
		Msg("pose transition")
}
