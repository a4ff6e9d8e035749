package core

import "math"

// WrapAngle normalizes an angle into [-pi, pi]. The downstream physics is
// only stable for angles in that range, so every yaw crossing a component
// boundary goes through here first.
func WrapAngle(angle float64) float64 {
	return math.Atan2(math.Sin(angle), math.Cos(angle))
}

// QuaternionFromYaw builds the quaternion for a pure rotation about the
// Z-axis
func QuaternionFromYaw(yaw float64) Quaternion {
	half := yaw / 2
	return Quaternion{
		Z: math.Sin(half),
		W: math.Cos(half),
	}
}

// RPYFromQuaternion converts a quaternion to roll, pitch, and yaw in
// radians. The pitch term is clamped so accumulated floating point error at
// the +/-90 degree singularity cannot produce a NaN.
func RPYFromQuaternion(q Quaternion) (roll, pitch, yaw float64) {
	roll = math.Atan2(2*(q.W*q.X+q.Y*q.Z), 1-2*(q.X*q.X+q.Y*q.Y))
	sinPitch := 2 * (q.W*q.Y - q.Z*q.X)
	if sinPitch > 1 {
		sinPitch = 1
	} else if sinPitch < -1 {
		sinPitch = -1
	}
	pitch = math.Asin(sinPitch)
	yaw = math.Atan2(2*(q.W*q.Z+q.X*q.Y), 1-2*(q.Y*q.Y+q.Z*q.Z))
	return roll, pitch, yaw
}

// YawFromQuaternion extracts just the yaw component
func YawFromQuaternion(q Quaternion) float64 {
	_, _, yaw := RPYFromQuaternion(q)
	return yaw
}
