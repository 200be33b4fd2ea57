// maneuvers.go - the kinematic flight model

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

import (
	"fmt"
	"math"
)

// Pose is the drone's position and heading.  Y is altitude, X and Z are horizontal.
type Pose struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Z   float64 `json:"z"`
	Yaw float64 `json:"yaw"` // degrees, clockwise, 0 faces -Z
}

// HorizontalDistance is the ground distance from the origin.
func (p Pose) HorizontalDistance() float64 {
	return math.Hypot(p.X, p.Z)
}

// PeakMetrics are the extremes reached during a run, they never decrease.
type PeakMetrics struct {
	MaxAltitude           float64 `json:"maxAltitude"`
	MaxHorizontalDistance float64 `json:"maxHorizontalDistance"`
}

func (pm *PeakMetrics) observe(p Pose) {
	pm.MaxAltitude = max(pm.MaxAltitude, p.Y)
	pm.MaxHorizontalDistance = max(pm.MaxHorizontalDistance, p.HorizontalDistance())
}

// kinematic model constants
const (
	TakeoffHeight   = 1.0 // metres
	takeoffSeconds  = 2.0
	landSeconds     = 2.0
	groundThreshold = 0.1   // below this we are on the ground
	linearSpeed     = 1.0   // m/s
	yawRate         = 150.0 // deg/s, the drone's assumed maximum
	flipHeight      = 0.5
	flipSeconds     = 0.4
)

// maneuver is one command broken down into engine ticks.
type maneuver struct {
	cmd      Command
	ticks    int
	step     func(i int, p *Pose) // simulated motion during tick i
	setpoint func(i int) Setpoint // hardware preset for tick i
	noop     string               // if set the command is skipped with this message
}

func ticksFor(seconds float64) int {
	n := int(math.Round(seconds * TicksPerSecond))
	if n < 1 {
		return 1
	}
	return n
}

// planManeuver maps a flight command onto its per-tick behaviour, starting from pose start.
func planManeuver(cmd Command, start Pose) maneuver {
	m := maneuver{cmd: cmd, step: func(int, *Pose) {}}

	switch c := cmd.(type) {
	case TakeoffCommand:
		if start.Y > groundThreshold {
			m.noop = fmt.Sprintf("Already flying at %.2f m, takeoff ignored", start.Y)
			return m
		}
		m.ticks = ticksFor(takeoffSeconds)
		dy := (TakeoffHeight - start.Y) / float64(m.ticks)
		m.step = func(i int, p *Pose) {
			p.Y += dy
			if i == m.ticks-1 {
				p.Y = TakeoffHeight
			}
		}

	case LandCommand:
		if start.Y < groundThreshold {
			m.noop = "Already on the ground, land ignored"
			return m
		}
		m.ticks = ticksFor(landSeconds)
		dy := start.Y / float64(m.ticks)
		m.step = func(i int, p *Pose) {
			p.Y -= dy
			if i == m.ticks-1 || p.Y < 0 {
				p.Y = 0
			}
		}

	case MoveCommand:
		m.ticks = ticksFor(c.Distance / linearSpeed)
		d := c.Distance / float64(m.ticks)
		yaw := start.Yaw * math.Pi / 180
		fx, fz := math.Sin(yaw), -math.Cos(yaw) // nose direction
		rx, rz := math.Cos(yaw), math.Sin(yaw)  // right-hand side
		switch c.Direction {
		case KindMoveForward:
			m.step = func(_ int, p *Pose) { p.X += fx * d; p.Z += fz * d }
		case KindMoveBackward:
			m.step = func(_ int, p *Pose) { p.X -= fx * d; p.Z -= fz * d }
		case KindMoveRight:
			m.step = func(_ int, p *Pose) { p.X += rx * d; p.Z += rz * d }
		case KindMoveLeft:
			m.step = func(_ int, p *Pose) { p.X -= rx * d; p.Z -= rz * d }
		case KindMoveUp:
			m.step = func(_ int, p *Pose) { p.Y += d }
		case KindMoveDown:
			m.step = func(_ int, p *Pose) { p.Y = max(0, p.Y-d) }
		}

	case RotateCommand:
		m.ticks = ticksFor(c.Angle / yawRate)
		da := c.Angle / float64(m.ticks)
		if c.Direction == KindRotateCCW {
			da = -da
		}
		m.step = func(_ int, p *Pose) { p.Yaw = normaliseYaw(p.Yaw + da) }

	case HoverCommand:
		m.ticks = ticksFor(c.Duration.Seconds())

	case FlipCommand:
		// the kinematic model ignores the direction, it only bounces
		m.ticks = ticksFor(flipSeconds)
		half := m.ticks / 2
		dy := flipHeight / float64(max(half, 1))
		m.step = func(i int, p *Pose) {
			if i < half {
				p.Y += dy
			} else {
				p.Y = max(0, p.Y-dy)
			}
		}

	default:
		panic(fmt.Sprintf("no maneuver for %s command", cmd.Kind()))
	}

	m.setpoint = setpointPlan(cmd, m.ticks)
	return m
}

func normaliseYaw(y float64) float64 {
	y = math.Mod(y, 360)
	if y < 0 {
		y += 360
	}
	return y
}
