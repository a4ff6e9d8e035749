package capture

import (
	"context"
	"sync"
	"time"

	"github.com/kylerobots/ground-texture-sim/core"
	"github.com/kylerobots/ground-texture-sim/transport"
)

// fakeSubscriber records handlers so tests can publish deliveries by hand
type fakeSubscriber struct {
	mu       sync.Mutex
	handlers map[string]transport.Handler
	refuse   map[string]error
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{
		handlers: make(map[string]transport.Handler),
		refuse:   make(map[string]error),
	}
}

func (s *fakeSubscriber) Subscribe(stream string, schema core.Schema, handler transport.Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refuse[stream]; err != nil {
		return err
	}
	s.handlers[stream] = handler
	return nil
}

// publish delivers one message the way the transport would: synchronously,
// on the caller's goroutine
func (s *fakeSubscriber) publish(stream string, payload core.Payload) {
	s.mu.Lock()
	handler := s.handlers[stream]
	s.mu.Unlock()
	if handler != nil {
		handler(stream, payload)
	}
}

// fakeRequester scripts the outcome of move calls and records every request
type fakeRequester struct {
	mu      sync.Mutex
	calls   []core.MoveRequest
	outcome func(call int, req core.MoveRequest) (core.Ack, bool, error)
}

func (r *fakeRequester) Request(_ context.Context, _ string, req core.MoveRequest, _ time.Duration) (core.Ack, bool, error) {
	r.mu.Lock()
	r.calls = append(r.calls, req)
	call := len(r.calls)
	outcome := r.outcome
	r.mu.Unlock()
	if outcome != nil {
		return outcome(call, req)
	}
	return core.Ack{Data: true}, true, nil
}

func (r *fakeRequester) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *fakeRequester) lastCall() core.MoveRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

// memorySink collects captures in order
type memorySink struct {
	mu       sync.Mutex
	captures []Capture
	fail     error
}

func (s *memorySink) WriteCapture(capture Capture) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.captures = append(s.captures, capture)
	return nil
}

func (s *memorySink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.captures)
}

// simWorld emulates the simulator side: it continuously publishes the
// capture streams with its current camera pose, and move requests take a
// configurable number of publish rounds before the reported pose reaches
// the target. lag 0 means the world is already settled on the first poll.
type simWorld struct {
	sub    *fakeSubscriber
	params Params

	mu      sync.Mutex
	current core.Pose2D
	target  core.Pose2D
	lag     int

	stop chan struct{}
	done chan struct{}
}

func newSimWorld(sub *fakeSubscriber, params Params) *simWorld {
	return &simWorld{
		sub:    sub,
		params: params,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// requester returns a fakeRequester whose accepted moves feed this world
func (w *simWorld) requester(lag int) *fakeRequester {
	return &fakeRequester{outcome: func(_ int, req core.MoveRequest) (core.Ack, bool, error) {
		w.mu.Lock()
		w.target = core.Pose2D{
			X:   req.Position.X,
			Y:   req.Position.Y,
			Yaw: core.YawFromQuaternion(req.Orientation),
		}
		w.lag = lag
		if lag == 0 {
			w.current = w.target
		}
		w.mu.Unlock()
		return core.Ack{Data: true}, true, nil
	}}
}

func (w *simWorld) start() {
	go func() {
		defer close(w.done)
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-w.stop:
				return
			case <-ticker.C:
				w.publishRound()
			}
		}
	}()
}

func (w *simWorld) close() {
	close(w.stop)
	<-w.done
}

func (w *simWorld) publishRound() {
	w.mu.Lock()
	if w.lag > 0 {
		w.lag--
		if w.lag == 0 {
			w.current = w.target
		}
	}
	pose := w.current
	w.mu.Unlock()

	w.sub.publish(w.params.ImageStream, testImage())
	w.sub.publish(w.params.CameraInfoStream, testCameraInfo())
	w.sub.publish(w.params.PoseStream, core.PoseList{Poses: []core.NamedPose{
		{Name: "ground_plane"},
		{
			Name:        w.params.ModelName,
			Position:    core.Vec3{X: pose.X, Y: pose.Y, Z: w.params.CameraHeight},
			Orientation: core.QuaternionFromYaw(pose.Yaw),
		},
	}})
}

func testImage() core.Image {
	return core.Image{
		Width:       2,
		Height:      2,
		PixelFormat: "rgb8",
		Data:        make([]byte, 12),
	}
}

func testCameraInfo() core.CameraInfo {
	return core.CameraInfo{
		Width:      2,
		Height:     2,
		Intrinsics: [9]float64{100, 0, 1, 0, 100, 1, 0, 0, 1},
	}
}

func testParams() Params {
	params := DefaultParams()
	params.MaxPollAttempts = 200
	params.CollectTimeout = 2 * time.Second
	return params
}
