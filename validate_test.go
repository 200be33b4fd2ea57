// validate_test.go

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
	"reflect"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   []Warning
	}{
		{
			name:   "complete mission",
			script: "drone.takeoff()\ndrone.forward(2)\ndrone.land()",
			want:   nil,
		},
		{
			name:   "prints are ignored",
			script: "print('go')\ndrone.takeoff()\ndrone.land()\nprint('done')",
			want:   nil,
		},
		{
			name:   "missing landing",
			script: "drone.takeoff()\ndrone.forward(2)",
			want:   []Warning{{Line: 2, Message: MsgMustLand}},
		},
		{
			name:   "no takeoff is flagged once",
			script: "drone.forward(2)\ndrone.up(1)\ndrone.land()",
			want:   []Warning{{Line: 1, Message: MsgMustTakeOff}},
		},
		{
			name:   "move before a late takeoff",
			script: "drone.land()\ndrone.hover(100)\ndrone.takeoff()\ndrone.land()",
			want: []Warning{
				{Line: 1, Message: MsgMustTakeOff},
				{Line: 2, Message: MsgMustTakeOff},
			},
		},
		{
			name:   "only the first offending command",
			script: "drone.land()\ndrone.cw()\ndrone.flip()",
			want: []Warning{
				{Line: 1, Message: MsgMustTakeOff},
				{Line: 2, Message: MsgMustTakeOff},
				{Line: 3, Message: MsgMustLand},
			},
		},
		{
			name:   "only prints",
			script: "print('hi')",
			want:   nil,
		},
	}
	for _, tt := range tests {
		got := Validate(mustParse(t, tt.script))
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: Validate = %v, want %v", tt.name, got, tt.want)
		}
	}
}
