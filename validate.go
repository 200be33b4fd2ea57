// validate.go - advisory checks on parsed scripts

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

import "fmt"

// Warning is an advisory finding about a script, it never blocks execution.
type Warning struct {
	Line    int
	Message string
}

func (w Warning) Error() string {
	return fmt.Sprintf("line %d: %s", w.Line, w.Message)
}

// Validator messages.
const (
	MsgMustTakeOff = "the drone must take off first"
	MsgMustLand    = "the drone must land at the end of the mission"
)

// Validate checks a parsed script for a leading takeoff and a trailing land.
// Print commands are ignored.
func Validate(cmds []Command) (warnings []Warning) {
	var flight []Command
	for _, c := range cmds {
		if c.Kind() != KindPrint {
			flight = append(flight, c)
		}
	}
	if len(flight) == 0 {
		return nil
	}

	first := flight[0]
	if first.Kind() != KindTakeoff {
		warnings = append(warnings, Warning{Line: first.Source().Line, Message: MsgMustTakeOff})
	}

	takenOff := false
	for i, c := range flight {
		if c.Kind() == KindTakeoff {
			takenOff = true
			continue
		}
		if takenOff || c.Kind() == KindLand {
			continue
		}
		// the first command was already flagged above
		if i > 0 {
			warnings = append(warnings, Warning{Line: c.Source().Line, Message: MsgMustTakeOff})
		}
		break
	}

	if last := flight[len(flight)-1]; last.Kind() != KindLand {
		warnings = append(warnings, Warning{Line: last.Source().Line, Message: MsgMustLand})
	}
	return warnings
}
