// Package transport defines the boundary to the simulator: a subscription
// interface for asynchronous streams and a request/response interface for
// service calls, plus a websocket bridge implementing both.
package transport

import (
	"context"
	"errors"
	"time"

	"github.com/kylerobots/ground-texture-sim/core"
)

var (
	ErrSubscribeRefused = errors.New("transport: subscription refused")
	ErrAlreadyOpen      = errors.New("transport: stream already subscribed")
	ErrClosed           = errors.New("transport: bridge closed")
	ErrCallTimeout      = errors.New("transport: call timed out")
)

// Handler receives one delivery for a subscribed stream. The bridge invokes
// handlers for the same stream serially and handlers for different streams
// concurrently. A handler must not block on work that itself waits for more
// deliveries.
type Handler func(stream string, payload core.Payload)

// Subscriber registers interest in a named stream. A non-nil error means
// nothing was subscribed.
type Subscriber interface {
	Subscribe(stream string, schema core.Schema, handler Handler) error
}

// Requester performs a bounded request/response service call. The three
// results mirror the simulator's own reporting: err covers transport-level
// failure (including timeout), result is the call's success flag, and the
// Ack payload carries the simulator's acceptance bit. All three must
// indicate success before a move can be trusted.
type Requester interface {
	Request(ctx context.Context, service string, req core.MoveRequest, timeout time.Duration) (ack core.Ack, result bool, err error)
}
