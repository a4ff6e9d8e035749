// Package protocol defines the JSON wire format spoken over the simulator
// bridge websocket.
package protocol

import "encoding/json"

// Op identifies the kind of a bridge message
type Op string

const (
	// Client-to-bridge
	OpSubscribe Op = "subscribe" // begin delivery of a stream
	OpCall      Op = "call"      // request/response service invocation

	// Bridge-to-client
	OpPublish  Op = "publish"  // one stream delivery
	OpResponse Op = "response" // completion of an earlier call
)

// Message is the single envelope used in both directions. Fields are
// populated per Op; unused fields are omitted on the wire.
type Message struct {
	Op      Op              `json:"op"`
	Topic   string          `json:"topic,omitempty"`
	Schema  string          `json:"schema,omitempty"`
	Service string          `json:"service,omitempty"`
	ID      uint64          `json:"id,omitempty"`
	Result  *bool           `json:"result,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ImagePayload is the wire form of a camera frame. Data is base64 in JSON.
type ImagePayload struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	PixelFormat string `json:"pixelFormat"`
	Data        []byte `json:"data"`
}

// CameraInfoPayload is the wire form of the camera calibration
type CameraInfoPayload struct {
	Width      int        `json:"width"`
	Height     int        `json:"height"`
	Intrinsics [9]float64 `json:"intrinsics"`
	Distortion []float64  `json:"distortion,omitempty"`
}

// PosePayload is one model pose inside a pose list
type PosePayload struct {
	Name        string            `json:"name"`
	Position    Vec3Payload       `json:"position"`
	Orientation QuaternionPayload `json:"orientation"`
}

// PoseListPayload is the wire form of a world pose report
type PoseListPayload struct {
	Poses []PosePayload `json:"poses"`
}

// Vec3Payload is a wire position
type Vec3Payload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// QuaternionPayload is a wire rotation
type QuaternionPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// SetPosePayload is the request body of a model move call
type SetPosePayload struct {
	Name        string            `json:"name"`
	Position    Vec3Payload       `json:"position"`
	Orientation QuaternionPayload `json:"orientation"`
}

// AckPayload is the response body of a model move call
type AckPayload struct {
	Data bool `json:"data"`
}
