package core

// Payload represents any stream payload. The set of implementations is
// closed: each registered stream carries exactly one of the variants below,
// declared at registration time via its Schema.
type Payload interface {
	PayloadSchema() Schema
}

// Image is a raw camera frame
type Image struct {
	Width       int
	Height      int
	PixelFormat string
	Data        []byte
}

func (p Image) PayloadSchema() Schema {
	return SchemaImage
}

// CameraInfo holds the camera's calibration parameters
type CameraInfo struct {
	Width      int
	Height     int
	Intrinsics [9]float64
	Distortion []float64
}

func (p CameraInfo) PayloadSchema() Schema {
	return SchemaCameraInfo
}

// NamedPose is one model's pose as reported by the simulator
type NamedPose struct {
	Name        string
	Position    Vec3
	Orientation Quaternion
}

// PoseList carries the poses of every model in the world. The simulator
// publishes all models in one message, so consumers look their model up by
// name.
type PoseList struct {
	Poses []NamedPose
}

func (p PoseList) PayloadSchema() Schema {
	return SchemaPoseList
}

// Find returns the pose of the named model and whether it was present
func (p PoseList) Find(name string) (NamedPose, bool) {
	for _, pose := range p.Poses {
		if pose.Name == name {
			return pose, true
		}
	}
	return NamedPose{}, false
}

// Planar projects the reported pose onto the ground plane as (x, y, yaw)
func (p NamedPose) Planar() Pose2D {
	_, _, yaw := RPYFromQuaternion(p.Orientation)
	return Pose2D{
		X:   p.Position.X,
		Y:   p.Position.Y,
		Yaw: yaw,
	}
}
