package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/kylerobots/ground-texture-sim/core"
)

// NewSubscribeMessage builds the client message that opens a stream
func NewSubscribeMessage(topic string, schema core.Schema) Message {
	return Message{
		Op:     OpSubscribe,
		Topic:  topic,
		Schema: string(schema),
	}
}

// NewCallMessage builds the client message for a model move call. The id
// correlates the eventual response.
func NewCallMessage(id uint64, service string, req core.MoveRequest) (Message, error) {
	body := SetPosePayload{
		Name:        req.Name,
		Position:    Vec3Payload(req.Position),
		Orientation: QuaternionPayload(req.Orientation),
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return Message{}, fmt.Errorf("encode call payload: %w", err)
	}
	return Message{
		Op:      OpCall,
		ID:      id,
		Service: service,
		Payload: raw,
	}, nil
}

// DecodePayload converts a publish message body into the core payload
// matching the subscribed schema
func DecodePayload(schema core.Schema, raw json.RawMessage) (core.Payload, error) {
	switch schema {
	case core.SchemaImage:
		var body ImagePayload
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("decode image payload: %w", err)
		}
		return core.Image{
			Width:       body.Width,
			Height:      body.Height,
			PixelFormat: body.PixelFormat,
			Data:        body.Data,
		}, nil
	case core.SchemaCameraInfo:
		var body CameraInfoPayload
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("decode camera info payload: %w", err)
		}
		return core.CameraInfo{
			Width:      body.Width,
			Height:     body.Height,
			Intrinsics: body.Intrinsics,
			Distortion: body.Distortion,
		}, nil
	case core.SchemaPoseList:
		var body PoseListPayload
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("decode pose list payload: %w", err)
		}
		poses := make([]core.NamedPose, len(body.Poses))
		for i, p := range body.Poses {
			poses[i] = core.NamedPose{
				Name:        p.Name,
				Position:    core.Vec3(p.Position),
				Orientation: core.Quaternion(p.Orientation),
			}
		}
		return core.PoseList{Poses: poses}, nil
	default:
		return nil, fmt.Errorf("unknown payload schema %q", schema)
	}
}

// DecodeAck converts a response message body into the core acknowledgement
func DecodeAck(raw json.RawMessage) (core.Ack, error) {
	if len(raw) == 0 {
		return core.Ack{}, nil
	}
	var body AckPayload
	if err := json.Unmarshal(raw, &body); err != nil {
		return core.Ack{}, fmt.Errorf("decode ack payload: %w", err)
	}
	return core.Ack{Data: body.Data}, nil
}
