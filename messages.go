// messages.go - binary packet codec for the drone link

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
	"encoding/binary"
	"math"
)

// The drone speaks a CRTP-style protocol: every datagram starts with one header
// byte holding a 4-bit port and a 4-bit channel.

// Port numbers...
const (
	PortConsole   = 0x0
	PortParam     = 0x2
	PortCommander = 0x3
	PortMem       = 0x4
	PortLog       = 0x5 // reserved for telemetry
	PortLink      = 0xf
)

// Log port channels
const (
	ChanTOC      = 0x0
	ChanSettings = 0x1
	ChanData     = 0x2
)

// Header packs a port and channel into a packet header byte.
func Header(port, channel byte) byte {
	return port<<4 | channel&0x0f
}

// SplitHeader is the inverse of Header.
func SplitHeader(h byte) (port, channel byte) {
	return h >> 4, h & 0x0f
}

// telemetry packet layout
const (
	telOffBattery  = 1
	telOffAltitude = 2
	telOffRoll     = 6
	telOffPitch    = 10
	telOffYaw      = 14
	telOffVBat     = 18

	// MinTelemetryPacket is the shortest telemetry datagram we accept:
	// header, battery, altitude, roll and pitch.
	MinTelemetryPacket = telOffYaw
	telWithYaw         = telOffVBat
	telWithVBat        = telOffVBat + 4
)

const setpointPacketLen = 1 + 4*3 + 2

// EncodeTelemetryRequest builds the request for the log table-of-contents,
// which also serves to wake the link.
func EncodeTelemetryRequest() []byte {
	return []byte{Header(PortLog, ChanTOC), 0}
}

// EncodeControlSetpoint packs one commander setpoint.
// Angles are in degrees, yawRate in degrees/s.
func EncodeControlSetpoint(roll, pitch, yawRate float64, thrust uint16) []byte {
	buff := make([]byte, setpointPacketLen)
	buff[0] = Header(PortCommander, 0)
	binary.LittleEndian.PutUint32(buff[1:], math.Float32bits(float32(roll)))
	binary.LittleEndian.PutUint32(buff[5:], math.Float32bits(float32(pitch)))
	binary.LittleEndian.PutUint32(buff[9:], math.Float32bits(float32(yawRate)))
	binary.LittleEndian.PutUint16(buff[13:], thrust)
	return buff
}

// DecodeTelemetryPacket decodes a telemetry datagram on top of prev, the last
// known-good values.  Fields the packet is too short to carry keep their
// previous value.  If the packet is unusable prev is returned with ok == false.
func DecodeTelemetryPacket(buff []byte, prev Telemetry) (tel Telemetry, ok bool) {
	if len(buff) < MinTelemetryPacket {
		return prev, false
	}
	if port, _ := SplitHeader(buff[0]); port != PortLog {
		return prev, false
	}
	tel = prev

	alt := bytesToFloat32(buff[telOffAltitude:])
	roll := bytesToFloat32(buff[telOffRoll:])
	pitch := bytesToFloat32(buff[telOffPitch:])
	if !finite(alt, roll, pitch) {
		return prev, false
	}
	tel.BatteryPercent = int(min(buff[telOffBattery], 100))
	tel.Altitude = float64(alt)
	tel.Roll = float64(roll)
	tel.Pitch = float64(pitch)

	if len(buff) >= telWithYaw {
		if yaw := bytesToFloat32(buff[telOffYaw:]); finite(yaw) {
			tel.Yaw = float64(yaw)
		}
	}
	if len(buff) >= telWithVBat {
		if vbat := bytesToFloat32(buff[telOffVBat:]); finite(vbat) {
			tel.VBat = float64(vbat)
		}
	}
	return tel, true
}

func finite(fs ...float32) bool {
	for _, f := range fs {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return false
		}
	}
	return true
}

func bytesToFloat32(b []byte) (fl float32) {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
