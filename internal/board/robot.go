package board

import "fmt"

// fullTurnDeg is one wheel revolution in servo degrees.
const fullTurnDeg = 360

// Robot issues high-level drive commands over a Board. The two continuous
// servos are mounted mirrored, so driving straight rotates both by the same
// signed angle and turning in place rotates them in opposite directions.
type Robot struct {
	board *Board
}

// NewRobot creates a Robot driving the given board.
func NewRobot(b *Board) *Robot {
	return &Robot{board: b}
}

// Forward drives straight ahead by the given number of wheel rotations.
// Non-positive rotation counts default to one.
func (r *Robot) Forward(rotations int) error {
	deg := fullTurnDeg * normalizeRotations(rotations)
	return r.board.Send(fmt.Sprintf("rotateBoth %d %d", deg, deg))
}

// Backward drives straight back by the given number of wheel rotations.
func (r *Robot) Backward(rotations int) error {
	deg := -fullTurnDeg * normalizeRotations(rotations)
	return r.board.Send(fmt.Sprintf("rotateBoth %d %d", deg, deg))
}

// TurnLeft spins the robot in place to the left: servo1 forward, servo2
// backward.
func (r *Robot) TurnLeft(rotations int) error {
	deg := fullTurnDeg * normalizeRotations(rotations)
	return r.board.Send(fmt.Sprintf("rotateBoth %d %d", deg, -deg))
}

// TurnRight spins the robot in place to the right: servo1 backward, servo2
// forward.
func (r *Robot) TurnRight(rotations int) error {
	deg := fullTurnDeg * normalizeRotations(rotations)
	return r.board.Send(fmt.Sprintf("rotateBoth %d %d", -deg, deg))
}

// RotateServo rotates a single servo by the signed number of degrees.
// Servo numbers other than 1 or 2 are rejected.
func (r *Robot) RotateServo(servo, degrees int) error {
	if servo != 1 && servo != 2 {
		return fmt.Errorf("invalid servo number %d", servo)
	}
	return r.board.Send(fmt.Sprintf("servo%d rotate %d", servo, degrees))
}

// Spin runs a single servo freely for the given number of milliseconds.
func (r *Robot) Spin(servo, durationMs int) error {
	if servo != 1 && servo != 2 {
		return fmt.Errorf("invalid servo number %d", servo)
	}
	return r.board.Send(fmt.Sprintf("servo%d spin %d", servo, durationMs))
}

// Stop halts both servos.
func (r *Robot) Stop() error {
	if err := r.board.Send("servo1 stop"); err != nil {
		return err
	}
	return r.board.Send("servo2 stop")
}

func normalizeRotations(rotations int) int {
	if rotations <= 0 {
		return 1
	}
	return rotations
}
