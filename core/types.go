package core

// Schema categorizes stream payloads
type Schema string

const (
	SchemaImage      Schema = "image"
	SchemaCameraInfo Schema = "camera_info"
	SchemaPoseList   Schema = "pose_list"
)

// Vec3 is a position in meters
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

// Quaternion is a rotation stored in (x, y, z, w) order
type Quaternion struct {
	X float64
	Y float64
	Z float64
	W float64
}

// Pose2D is a planar pose: location in meters, yaw in radians about the Z-axis
type Pose2D struct {
	X   float64
	Y   float64
	Yaw float64
}

// MoveRequest names a simulated model and the pose it should be placed at.
// It is the request body of the model move service call.
type MoveRequest struct {
	Name        string
	Position    Vec3
	Orientation Quaternion
}

// Ack is the response body of the model move service call. Data reports
// whether the simulator actually applied the move.
type Ack struct {
	Data bool
}
