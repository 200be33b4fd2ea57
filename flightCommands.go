// flightCommands.go - hardware setpoint presets for each command

// Copyright (C) 2018-2026  Steve Merrony

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package dronescript

// Setpoint is a single control command for the flight controller.
// It is never stored on the drone, the next one simply replaces it.
type Setpoint struct {
	Roll    float64 // degrees
	Pitch   float64 // degrees
	YawRate float64 // degrees/s
	Thrust  uint16  // 0..65535
}

// thrust presets
const (
	HoverThrust        uint16 = 32768
	takeoffStartThrust uint16 = 42000
	climbThrust        uint16 = 42000
	descendThrust      uint16 = 24000
	landThrust         uint16 = 20000
	flipThrust         uint16 = 50000
)

const (
	tiltDeg     = 15.0 // translation tilt
	flipTiltDeg = 30.0
	landCutoff  = 5 // final land ticks with motors off
	flipBurst   = 4 // ticks of flip thrust
)

func hover() Setpoint {
	return Setpoint{Thrust: HoverThrust}
}

// setpointPlan returns the hardware preset for each tick of a command lasting ticks ticks.
func setpointPlan(cmd Command, ticks int) func(i int) Setpoint {
	switch c := cmd.(type) {
	case TakeoffCommand:
		return func(i int) Setpoint {
			// ramp down from the lift-off burst to hover thrust
			if ticks < 2 {
				return hover()
			}
			frac := float64(i) / float64(ticks-1)
			t := float64(takeoffStartThrust) + (float64(HoverThrust)-float64(takeoffStartThrust))*frac
			return Setpoint{Thrust: uint16(t)}
		}
	case LandCommand:
		return func(i int) Setpoint {
			if i >= ticks-landCutoff {
				return Setpoint{}
			}
			return Setpoint{Thrust: landThrust}
		}
	case MoveCommand:
		sp := hover()
		switch c.Direction {
		case KindMoveForward:
			sp.Pitch = tiltDeg
		case KindMoveBackward:
			sp.Pitch = -tiltDeg
		case KindMoveLeft:
			sp.Roll = -tiltDeg
		case KindMoveRight:
			sp.Roll = tiltDeg
		case KindMoveUp:
			sp.Thrust = climbThrust
		case KindMoveDown:
			sp.Thrust = descendThrust
		}
		return func(int) Setpoint { return sp }
	case RotateCommand:
		sp := hover()
		sp.YawRate = yawRate
		if c.Direction == KindRotateCCW {
			sp.YawRate = -yawRate
		}
		return func(int) Setpoint { return sp }
	case FlipCommand:
		burst := Setpoint{Thrust: flipThrust}
		switch c.Direction {
		case FlipForward:
			burst.Pitch = flipTiltDeg
		case FlipBack:
			burst.Pitch = -flipTiltDeg
		case FlipLeft:
			burst.Roll = -flipTiltDeg
		case FlipRight:
			burst.Roll = flipTiltDeg
		}
		return func(i int) Setpoint {
			if i < flipBurst {
				return burst
			}
			return hover()
		}
	}
	return func(int) Setpoint { return hover() }
}
