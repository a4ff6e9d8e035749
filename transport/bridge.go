package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/kylerobots/ground-texture-sim/core"
	"github.com/kylerobots/ground-texture-sim/protocol"
)

// inboxDepth bounds how many undispatched deliveries a stream may hold.
// Only the freshest messages matter to the caller, so overflow drops.
const inboxDepth = 16

// Bridge is a websocket client for the simulator bridge. It implements
// Subscriber and Requester over a single connection: publishes fan out to
// per-stream dispatch goroutines, calls are correlated by id.
type Bridge struct {
	conn *websocket.Conn
	log  zerolog.Logger

	// writeMu serializes writes; gorilla connections allow one writer
	writeMu sync.Mutex

	mu      sync.Mutex
	streams map[string]*streamDispatch
	pending map[uint64]chan protocol.Message
	nextID  uint64
	closed  bool

	done chan struct{}
	wg   sync.WaitGroup
}

// streamDispatch feeds one stream's deliveries to its handler on a
// dedicated goroutine, so a slow handler never stalls another stream.
type streamDispatch struct {
	schema  core.Schema
	handler Handler
	inbox   chan core.Payload
}

// Dial connects to a simulator bridge endpoint and starts the read loop
func Dial(url string, log zerolog.Logger) (*Bridge, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial bridge %s: %w", url, err)
	}
	b := &Bridge{
		conn:    conn,
		log:     log,
		streams: make(map[string]*streamDispatch),
		pending: make(map[uint64]chan protocol.Message),
		done:    make(chan struct{}),
	}
	b.wg.Add(1)
	go b.readLoop()
	return b, nil
}

// Subscribe opens a stream and begins delivering it to handler. A refused
// or duplicate subscription leaves no local state behind.
func (b *Bridge) Subscribe(stream string, schema core.Schema, handler Handler) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("subscribe %s: %w", stream, ErrClosed)
	}
	if _, ok := b.streams[stream]; ok {
		b.mu.Unlock()
		return fmt.Errorf("subscribe %s: %w", stream, ErrAlreadyOpen)
	}
	dispatch := &streamDispatch{
		schema:  schema,
		handler: handler,
		inbox:   make(chan core.Payload, inboxDepth),
	}
	b.streams[stream] = dispatch
	b.mu.Unlock()

	if err := b.write(protocol.NewSubscribeMessage(stream, schema)); err != nil {
		b.mu.Lock()
		delete(b.streams, stream)
		b.mu.Unlock()
		return fmt.Errorf("subscribe %s: %w: %w", stream, ErrSubscribeRefused, err)
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for payload := range dispatch.inbox {
			handler(stream, payload)
		}
	}()
	b.log.Debug().Str("stream", stream).Str("schema", string(schema)).Msg("subscribed")
	return nil
}

// Request performs one service call bounded by timeout
func (b *Bridge) Request(ctx context.Context, service string, req core.MoveRequest, timeout time.Duration) (core.Ack, bool, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return core.Ack{}, false, fmt.Errorf("call %s: %w", service, ErrClosed)
	}
	b.nextID++
	id := b.nextID
	reply := make(chan protocol.Message, 1)
	b.pending[id] = reply
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.pending, id)
		b.mu.Unlock()
	}()

	msg, err := protocol.NewCallMessage(id, service, req)
	if err != nil {
		return core.Ack{}, false, fmt.Errorf("call %s: %w", service, err)
	}
	if err := b.write(msg); err != nil {
		return core.Ack{}, false, fmt.Errorf("call %s: %w", service, err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case resp := <-reply:
		result := resp.Result != nil && *resp.Result
		ack, err := protocol.DecodeAck(resp.Payload)
		if err != nil {
			return core.Ack{}, false, fmt.Errorf("call %s: %w", service, err)
		}
		return ack, result, nil
	case <-timer.C:
		return core.Ack{}, false, fmt.Errorf("call %s after %s: %w", service, timeout, ErrCallTimeout)
	case <-ctx.Done():
		return core.Ack{}, false, ctx.Err()
	case <-b.done:
		return core.Ack{}, false, fmt.Errorf("call %s: %w", service, ErrClosed)
	}
}

// Close tears the connection down and stops all dispatch goroutines
func (b *Bridge) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	err := b.conn.Close()
	<-b.done
	b.wg.Wait()
	return err
}

func (b *Bridge) write(msg protocol.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return b.conn.WriteMessage(websocket.TextMessage, data)
}

func (b *Bridge) readLoop() {
	defer b.wg.Done()
	defer func() {
		b.mu.Lock()
		b.closed = true
		for _, dispatch := range b.streams {
			close(dispatch.inbox)
		}
		b.streams = make(map[string]*streamDispatch)
		b.mu.Unlock()
		close(b.done)
	}()

	for {
		_, data, err := b.conn.ReadMessage()
		if err != nil {
			b.log.Debug().Err(err).Msg("bridge read loop ended")
			return
		}
		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			b.log.Warn().Err(err).Msg("discarding malformed bridge message")
			continue
		}
		switch msg.Op {
		case protocol.OpPublish:
			b.dispatchPublish(msg)
		case protocol.OpResponse:
			b.dispatchResponse(msg)
		default:
			b.log.Warn().Str("op", string(msg.Op)).Msg("discarding unexpected bridge op")
		}
	}
}

func (b *Bridge) dispatchPublish(msg protocol.Message) {
	b.mu.Lock()
	dispatch, ok := b.streams[msg.Topic]
	b.mu.Unlock()
	if !ok {
		return
	}
	payload, err := protocol.DecodePayload(dispatch.schema, msg.Payload)
	if err != nil {
		b.log.Warn().Err(err).Str("stream", msg.Topic).Msg("discarding undecodable delivery")
		return
	}
	select {
	case dispatch.inbox <- payload:
	default:
		// Handler is behind; this delivery is already stale.
		b.log.Debug().Str("stream", msg.Topic).Msg("inbox full, dropping delivery")
	}
}

func (b *Bridge) dispatchResponse(msg protocol.Message) {
	b.mu.Lock()
	reply, ok := b.pending[msg.ID]
	b.mu.Unlock()
	if !ok {
		b.log.Debug().Uint64("id", msg.ID).Msg("response for unknown call")
		return
	}
	reply <- msg
}
