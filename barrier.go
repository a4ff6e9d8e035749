// Package capture synchronizes asynchronously published simulator streams
// with commanded camera motion: a barrier turns N independent streams into
// one atomic snapshot, and a follower drives the camera through a trajectory
// while only accepting snapshots taken after the world has settled.
package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kylerobots/ground-texture-sim/core"
	"github.com/kylerobots/ground-texture-sim/transport"
)

// streamCell is the single-slot mailbox for one registered stream. The armed
// flag is a one-shot permit: exactly one delivery may land between an Arm
// and the matching Collect. Each cell has its own lock so one stream's
// delivery never waits on another's.
type streamCell struct {
	mu      sync.Mutex
	schema  core.Schema
	armed   bool
	gen     uint64
	payload core.Payload
}

// Snapshot maps stream name to the payload captured in one barrier release.
// It holds exactly one entry per registered stream.
type Snapshot map[string]core.Payload

// Barrier collects one fresh message per registered stream on demand. Arm
// opens every mailbox for a single write; Collect blocks until all mailboxes
// have been written, then returns them as a Snapshot.
type Barrier struct {
	sub transport.Subscriber
	log zerolog.Logger

	mu          sync.Mutex
	cells       map[string]*streamCell
	gen         uint64
	outstanding int
	release     chan struct{}
}

// NewBarrier builds an empty barrier over the given subscription transport
func NewBarrier(sub transport.Subscriber, log zerolog.Logger) *Barrier {
	return &Barrier{
		sub:   sub,
		log:   log,
		cells: make(map[string]*streamCell),
	}
}

// Register subscribes to a stream and adds its mailbox. Registration happens
// at startup before any capture; the cell table is never resized while
// deliveries are in flight. A duplicate name is rejected, and a refused
// subscription leaves no cell behind.
func (b *Barrier) Register(name string, schema core.Schema) error {
	b.mu.Lock()
	if _, ok := b.cells[name]; ok {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrStreamRegistered, name)
	}
	b.mu.Unlock()

	// Subscribe outside the table lock: the transport may deliver
	// synchronously, and deliver takes the same lock.
	if err := b.sub.Subscribe(name, schema, b.deliver); err != nil {
		return fmt.Errorf("register %s: %w", name, err)
	}

	b.mu.Lock()
	b.cells[name] = &streamCell{schema: schema}
	b.mu.Unlock()
	b.log.Debug().Str("stream", name).Str("schema", string(schema)).Msg("stream registered")
	return nil
}

// Streams returns the registered stream names
func (b *Barrier) Streams() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.cells))
	for name := range b.cells {
		names = append(names, name)
	}
	return names
}

// Arm opens every mailbox for one fresh delivery and starts a new collect
// cycle. It is the only way deliveries are allowed to land.
func (b *Barrier) Arm() {
	b.mu.Lock()
	b.gen++
	gen := b.gen
	b.outstanding = len(b.cells)
	b.release = make(chan struct{})
	if b.outstanding == 0 {
		close(b.release)
	}
	cells := make([]*streamCell, 0, len(b.cells))
	for _, cell := range b.cells {
		cells = append(cells, cell)
	}
	b.mu.Unlock()

	for _, cell := range cells {
		cell.mu.Lock()
		cell.armed = true
		cell.gen = gen
		cell.mu.Unlock()
	}
}

// deliver is the per-stream transport callback. If the stream is armed it
// stores the payload and spends the permit; otherwise the message is
// dropped, not queued. The last clear of a cycle releases Collect.
func (b *Barrier) deliver(name string, payload core.Payload) {
	b.mu.Lock()
	cell, ok := b.cells[name]
	b.mu.Unlock()
	if !ok {
		return
	}

	cell.mu.Lock()
	if !cell.armed {
		cell.mu.Unlock()
		return
	}
	if payload.PayloadSchema() != cell.schema {
		cell.mu.Unlock()
		b.log.Warn().Str("stream", name).Str("schema", string(payload.PayloadSchema())).Msg("dropping delivery with wrong schema")
		return
	}
	cell.payload = payload
	cell.armed = false
	gen := cell.gen
	cell.mu.Unlock()

	b.mu.Lock()
	// A clear from a cycle that already timed out must not count toward
	// the current one.
	if gen == b.gen && b.outstanding > 0 {
		b.outstanding--
		if b.outstanding == 0 {
			close(b.release)
		}
	}
	b.mu.Unlock()
}

// Collect blocks until every registered stream has delivered once since the
// last Arm, then returns a copy of all mailboxes. The timeout bounds the
// wait; zero or negative means wait until ctx cancellation only.
func (b *Barrier) Collect(ctx context.Context, timeout time.Duration) (Snapshot, error) {
	b.mu.Lock()
	release := b.release
	b.mu.Unlock()
	if release == nil {
		return nil, ErrNotArmed
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-release:
	case <-expired:
		return nil, fmt.Errorf("%w after %s", ErrCollectTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// The release channel closes strictly after every mailbox write of this
	// cycle, so the copies below read settled cells.
	b.mu.Lock()
	snapshot := make(Snapshot, len(b.cells))
	for name, cell := range b.cells {
		cell.mu.Lock()
		snapshot[name] = cell.payload
		cell.mu.Unlock()
	}
	b.mu.Unlock()
	return snapshot, nil
}
