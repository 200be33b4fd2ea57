// maneuvers_test.go

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
	"math"
	"testing"
	"time"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func nearPose(a, b Pose) bool {
	return near(a.X, b.X) && near(a.Y, b.Y) && near(a.Z, b.Z) && near(a.Yaw, b.Yaw)
}

// flyManeuver applies every tick of m to p.
func flyManeuver(m maneuver, p Pose) Pose {
	for i := 0; i < m.ticks; i++ {
		m.step(i, &p)
	}
	return p
}

func TestTicksFor(t *testing.T) {
	tests := []struct {
		seconds float64
		want    int
	}{
		{0, 1},
		{0.01, 1},
		{0.4, 8},
		{0.6, 12},
		{2, 40},
		{1.26, 25},
	}
	for _, tt := range tests {
		if got := ticksFor(tt.seconds); got != tt.want {
			t.Errorf("ticksFor(%v) = %d, want %d", tt.seconds, got, tt.want)
		}
	}
}

func TestManeuvers(t *testing.T) {
	air := Pose{Y: 1}
	tests := []struct {
		name  string
		cmd   Command
		start Pose
		ticks int
		want  Pose
	}{
		{"takeoff", TakeoffCommand{}, Pose{}, 40, Pose{Y: 1}},
		{"land", LandCommand{}, Pose{X: 2, Y: 1.7}, 40, Pose{X: 2}},
		{"forward at yaw 0", MoveCommand{Direction: KindMoveForward, Distance: 2}, air, 40, Pose{Y: 1, Z: -2}},
		{"forward at yaw 90", MoveCommand{Direction: KindMoveForward, Distance: 1}, Pose{Y: 1, Yaw: 90}, 20, Pose{X: 1, Y: 1, Yaw: 90}},
		{"backward", MoveCommand{Direction: KindMoveBackward, Distance: 1}, air, 20, Pose{Y: 1, Z: 1}},
		{"right at yaw 0", MoveCommand{Direction: KindMoveRight, Distance: 1.5}, air, 30, Pose{X: 1.5, Y: 1}},
		{"left at yaw 180", MoveCommand{Direction: KindMoveLeft, Distance: 1}, Pose{Y: 1, Yaw: 180}, 20, Pose{X: 1, Y: 1, Yaw: 180}},
		{"up", MoveCommand{Direction: KindMoveUp, Distance: 0.5}, air, 10, Pose{Y: 1.5}},
		{"down clamps at the ground", MoveCommand{Direction: KindMoveDown, Distance: 3}, air, 60, Pose{}},
		{"rotate cw", RotateCommand{Direction: KindRotateCW, Angle: 90}, air, 12, Pose{Y: 1, Yaw: 90}},
		{"rotate ccw wraps", RotateCommand{Direction: KindRotateCCW, Angle: 90}, air, 12, Pose{Y: 1, Yaw: 270}},
		{"hover", HoverCommand{Duration: 1500 * time.Millisecond}, air, 30, air},
		{"zero distance is one tick", MoveCommand{Direction: KindMoveForward}, air, 1, air},
		{"flip bounces", FlipCommand{Direction: FlipLeft}, air, 8, air},
	}
	for _, tt := range tests {
		m := planManeuver(tt.cmd, tt.start)
		if m.noop != "" {
			t.Errorf("%s: unexpected no-op %q", tt.name, m.noop)
			continue
		}
		if m.ticks != tt.ticks {
			t.Errorf("%s: %d ticks, want %d", tt.name, m.ticks, tt.ticks)
		}
		if got := flyManeuver(m, tt.start); !nearPose(got, tt.want) {
			t.Errorf("%s: ended at %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestFlipPeak(t *testing.T) {
	p := Pose{Y: 1}
	m := planManeuver(FlipCommand{Direction: FlipForward}, p)
	var peak float64
	for i := 0; i < m.ticks; i++ {
		m.step(i, &p)
		peak = max(peak, p.Y)
	}
	if !near(peak, 1.5) {
		t.Errorf("flip peak = %v, want 1.5", peak)
	}
}

func TestManeuverNoops(t *testing.T) {
	if m := planManeuver(TakeoffCommand{}, Pose{Y: 1}); m.noop == "" {
		t.Error("takeoff while flying is not a no-op")
	}
	if m := planManeuver(LandCommand{}, Pose{Y: 0.05}); m.noop == "" {
		t.Error("land on the ground is not a no-op")
	}
	if m := planManeuver(TakeoffCommand{}, Pose{Y: 0.05}); m.noop != "" {
		t.Errorf("takeoff from near the ground is a no-op: %s", m.noop)
	}
}

func TestPlanManeuverPanicsOnPrint(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("planManeuver(print) did not panic")
		}
	}()
	planManeuver(PrintCommand{Value: "x"}, Pose{})
}

func TestPeakMetricsMonotone(t *testing.T) {
	var pm PeakMetrics
	for _, p := range []Pose{{Y: 1}, {X: 3, Z: 4, Y: 0.5}, {Y: 0.2}} {
		pm.observe(p)
	}
	if pm.MaxAltitude != 1 || pm.MaxHorizontalDistance != 5 {
		t.Errorf("peaks = %+v", pm)
	}
}

func TestNormaliseYaw(t *testing.T) {
	for in, want := range map[float64]float64{0: 0, 360: 0, -90: 270, 450: 90, -720: 0} {
		if got := normaliseYaw(in); !near(got, want) {
			t.Errorf("normaliseYaw(%v) = %v, want %v", in, got, want)
		}
	}
}
