package core

// AngleSensor is the read-only view of the shaft angle sensor. Angles
// are in degrees and accumulate across turns; velocity and acceleration
// are in deg/s and deg/s².
//
// A nil AngleSensor means the board was built without one. Core code
// must tolerate that: coil re-locks then fall back to the tracked step
// count and the feedback loop stays inert.
type AngleSensor interface {
	Angle() float64
	Velocity() float64
	Acceleration() float64
}
