// messages_test.go

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
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

// use go test -count=1 to bypass test caching

func TestHeader(t *testing.T) {
	if h := Header(PortCommander, 0); h != 0x30 {
		t.Errorf("Expected 0x30 got, %#x\n", h)
	}
	if h := Header(PortLog, ChanData); h != 0x52 {
		t.Errorf("Expected 0x52 got, %#x\n", h)
	}
	// channel is masked to four bits
	if h := Header(PortLog, 0x1f); h != 0x5f {
		t.Errorf("Expected 0x5f got, %#x\n", h)
	}
	for port := byte(0); port < 16; port++ {
		for ch := byte(0); ch < 16; ch++ {
			p, c := SplitHeader(Header(port, ch))
			if p != port || c != ch {
				t.Fatalf("SplitHeader(Header(%d, %d)) = %d, %d", port, ch, p, c)
			}
		}
	}
}

func TestEncodeTelemetryRequest(t *testing.T) {
	correct := []byte{0x50, 0x00}
	if b := EncodeTelemetryRequest(); !bytes.Equal(correct, b) {
		t.Errorf("Telemetry request encoding incorrect, got % x", b)
	}
}

func TestEncodeControlSetpoint(t *testing.T) {
	b := EncodeControlSetpoint(-15, 15, 150, 32768)
	if len(b) != 15 {
		t.Fatalf("Expected 15 bytes got, %d", len(b))
	}
	if b[0] != 0x30 {
		t.Errorf("Expected commander header 0x30 got, %#x", b[0])
	}
	if r := bytesToFloat32(b[1:]); r != -15 {
		t.Errorf("roll = %v", r)
	}
	if p := bytesToFloat32(b[5:]); p != 15 {
		t.Errorf("pitch = %v", p)
	}
	if y := bytesToFloat32(b[9:]); y != 150 {
		t.Errorf("yaw rate = %v", y)
	}
	if th := binary.LittleEndian.Uint16(b[13:]); th != 32768 {
		t.Errorf("thrust = %d", th)
	}
}

func TestByteToFloat32(t *testing.T) {
	var b = []byte{
		0, 0, 0, 0,
		128, 63, 0, 0, 112, 65,
	}
	var r float32
	if r = bytesToFloat32(b[0:5]); r != 0 {
		t.Errorf("Expected 0 got, %f\n", r)
	}
	if r = bytesToFloat32(b[2:7]); r != 1 {
		t.Errorf("Expected 1 got, %f\n", r)
	}
	if r = bytesToFloat32(b[6:]); r != 15 {
		t.Errorf("Expected 15 got, %f\n", r)
	}
}

// telemetryPacket builds a telemetry datagram holding the given floats after the battery byte.
func telemetryPacket(battery byte, fs ...float32) []byte {
	b := []byte{Header(PortLog, ChanData), battery}
	for _, f := range fs {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f))
	}
	return b
}

func TestDecodeTelemetryPacket(t *testing.T) {
	prev := Telemetry{BatteryPercent: 50, Altitude: 9, Roll: 9, Pitch: 9, Yaw: 33, VBat: 3.7}

	tests := []struct {
		name string
		buff []byte
		want Telemetry
		ok   bool
	}{
		{
			name: "full packet",
			buff: telemetryPacket(87, 1.5, 2, -3, 90, 4.25),
			want: Telemetry{BatteryPercent: 87, Altitude: 1.5, Roll: 2, Pitch: -3, Yaw: 90, VBat: 4.25},
			ok:   true,
		},
		{
			name: "minimum packet keeps yaw and vbat",
			buff: telemetryPacket(87, 1.5, 2, -3),
			want: Telemetry{BatteryPercent: 87, Altitude: 1.5, Roll: 2, Pitch: -3, Yaw: 33, VBat: 3.7},
			ok:   true,
		},
		{
			name: "yaw without vbat",
			buff: telemetryPacket(87, 1.5, 2, -3, 45),
			want: Telemetry{BatteryPercent: 87, Altitude: 1.5, Roll: 2, Pitch: -3, Yaw: 45, VBat: 3.7},
			ok:   true,
		},
		{
			name: "partial yaw is ignored",
			buff: append(telemetryPacket(87, 1.5, 2, -3), 0, 0),
			want: Telemetry{BatteryPercent: 87, Altitude: 1.5, Roll: 2, Pitch: -3, Yaw: 33, VBat: 3.7},
			ok:   true,
		},
		{
			name: "battery clamped",
			buff: telemetryPacket(250, 0, 0, 0),
			want: Telemetry{BatteryPercent: 100, Yaw: 33, VBat: 3.7},
			ok:   true,
		},
		{
			name: "too short",
			buff: telemetryPacket(87, 1.5, 2, -3)[:13],
			want: prev,
		},
		{
			name: "empty",
			buff: nil,
			want: prev,
		},
		{
			name: "wrong port",
			buff: append([]byte{Header(PortCommander, 0)}, telemetryPacket(87, 1.5, 2, -3)[1:]...),
			want: prev,
		},
		{
			name: "NaN altitude",
			buff: telemetryPacket(87, float32(math.NaN()), 2, -3),
			want: prev,
		},
	}
	for _, tt := range tests {
		got, ok := DecodeTelemetryPacket(tt.buff, prev)
		if ok != tt.ok {
			t.Errorf("%s: ok = %v, want %v", tt.name, ok, tt.ok)
		}
		if got != tt.want {
			t.Errorf("%s: got %+v, want %+v", tt.name, got, tt.want)
		}
	}
}
