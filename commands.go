// commands.go - the script command vocabulary

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
	"strings"
	"time"
)

// Kind identifies one of the closed set of script commands.
type Kind int

// Command kinds...
const (
	KindTakeoff Kind = iota
	KindLand
	KindMoveForward
	KindMoveBackward
	KindMoveLeft
	KindMoveRight
	KindMoveUp
	KindMoveDown
	KindRotateCW
	KindRotateCCW
	KindHover
	KindFlip
	KindPrint
)

var kindNames = [...]string{
	KindTakeoff:      "takeoff",
	KindLand:         "land",
	KindMoveForward:  "forward",
	KindMoveBackward: "backward",
	KindMoveLeft:     "left",
	KindMoveRight:    "right",
	KindMoveUp:       "up",
	KindMoveDown:     "down",
	KindRotateCW:     "rotate_cw",
	KindRotateCCW:    "rotate_ccw",
	KindHover:        "hover",
	KindFlip:         "flip",
	KindPrint:        "print",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// IsMovement is true for the six translation commands.
func (k Kind) IsMovement() bool {
	return k >= KindMoveForward && k <= KindMoveDown
}

// IsRotation is true for the two yaw commands.
func (k Kind) IsRotation() bool {
	return k == KindRotateCW || k == KindRotateCCW
}

// verbAliases maps every accepted (lower-case) verb onto its canonical Kind.
// Print is not a verb, it has its own line shape.
var verbAliases = map[string]Kind{
	"takeoff":  KindTakeoff,
	"take_off": KindTakeoff,
	"launch":   KindTakeoff,

	"land":    KindLand,
	"landing": KindLand,

	"forward":      KindMoveForward,
	"move_forward": KindMoveForward,
	"go_forward":   KindMoveForward,
	"fwd":          KindMoveForward,

	"backward":      KindMoveBackward,
	"backwards":     KindMoveBackward,
	"back":          KindMoveBackward,
	"move_backward": KindMoveBackward,
	"go_backward":   KindMoveBackward,

	"left":      KindMoveLeft,
	"move_left": KindMoveLeft,
	"go_left":   KindMoveLeft,

	"right":      KindMoveRight,
	"move_right": KindMoveRight,
	"go_right":   KindMoveRight,

	"up":      KindMoveUp,
	"climb":   KindMoveUp,
	"go_up":   KindMoveUp,
	"move_up": KindMoveUp,
	"ascend":  KindMoveUp,

	"down":      KindMoveDown,
	"descend":   KindMoveDown,
	"go_down":   KindMoveDown,
	"move_down": KindMoveDown,

	"rotate_cw":    KindRotateCW,
	"cw":           KindRotateCW,
	"turn_right":   KindRotateCW,
	"rotate_right": KindRotateCW,
	"clockwise":    KindRotateCW,
	"yaw_right":    KindRotateCW,

	"rotate_ccw":        KindRotateCCW,
	"ccw":               KindRotateCCW,
	"turn_left":         KindRotateCCW,
	"rotate_left":       KindRotateCCW,
	"counter_clockwise": KindRotateCCW,
	"anticlockwise":     KindRotateCCW,
	"yaw_left":          KindRotateCCW,

	"hover": KindHover,
	"wait":  KindHover,
	"hold":  KindHover,
	"sleep": KindHover,

	"flip": KindFlip,
}

// LookupVerb resolves a script verb, ignoring case.
func LookupVerb(verb string) (Kind, bool) {
	k, ok := verbAliases[strings.ToLower(verb)]
	return k, ok
}

// FlipDirection represents a flip direction relative to the drone's nose.
type FlipDirection string

// Flip directions...
const (
	FlipForward FlipDirection = "forward"
	FlipBack    FlipDirection = "back"
	FlipLeft    FlipDirection = "left"
	FlipRight   FlipDirection = "right"
)

func parseFlipDirection(s string) (FlipDirection, bool) {
	switch d := FlipDirection(strings.ToLower(s)); d {
	case FlipForward, FlipBack, FlipLeft, FlipRight:
		return d, true
	}
	return "", false
}

// Argument defaults used when a script omits them.
const (
	DefaultDistance = 1.0                     // metres
	DefaultAngle    = 90.0                    // degrees
	DefaultHover    = 1000 * time.Millisecond // hover duration
)

// Origin records where in the script a command came from.
type Origin struct {
	Line int    // 1-based
	Text string // the raw statement
}

// Source returns the command's origin.
func (o Origin) Source() Origin { return o }

// Command is a single parsed, immutable script instruction.
// The concrete types below carry only the fields their kind needs.
type Command interface {
	Kind() Kind
	Source() Origin
}

// TakeoffCommand lifts the drone to its default hover height.
type TakeoffCommand struct{ Origin }

// LandCommand brings the drone down to the ground.
type LandCommand struct{ Origin }

// MoveCommand translates the drone; Direction is one of the six movement kinds.
type MoveCommand struct {
	Origin
	Direction Kind
	Distance  float64 // metres
}

// RotateCommand yaws the drone; Direction is KindRotateCW or KindRotateCCW.
type RotateCommand struct {
	Origin
	Direction Kind
	Angle     float64 // degrees
}

// HoverCommand holds the current pose.
type HoverCommand struct {
	Origin
	Duration time.Duration
}

// FlipCommand performs a flip stunt.
type FlipCommand struct {
	Origin
	Direction FlipDirection
}

// PrintCommand writes a value to the console, it does not move the drone.
type PrintCommand struct {
	Origin
	Value string
}

func (TakeoffCommand) Kind() Kind  { return KindTakeoff }
func (LandCommand) Kind() Kind     { return KindLand }
func (c MoveCommand) Kind() Kind   { return c.Direction }
func (c RotateCommand) Kind() Kind { return c.Direction }
func (HoverCommand) Kind() Kind    { return KindHover }
func (FlipCommand) Kind() Kind     { return KindFlip }
func (PrintCommand) Kind() Kind    { return KindPrint }
