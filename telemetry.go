// telemetry.go - most-recent telemetry cache

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
	"sync"
	"time"
)

// DefaultTelemetryFreshness is how long a telemetry sample keeps the link "connected".
const DefaultTelemetryFreshness = 2 * time.Second

// Telemetry holds our most recent knowledge of the physical drone.
type Telemetry struct {
	BatteryPercent int // 0..100
	Altitude       float64
	Roll           float64
	Pitch          float64
	Yaw            float64
	VBat           float64
	Connected      bool
	LastUpdate     time.Time
}

// TelemetryCache keeps the latest Telemetry received from a drone.
// Inbound datagrams are pushed in with Update, readers poll with Get and never block on I/O.
type TelemetryCache struct {
	mu        sync.RWMutex // protects tel
	tel       Telemetry
	freshness time.Duration
	now       func() time.Time
}

// NewTelemetryCache returns an empty cache; a freshness <= 0 selects the default.
func NewTelemetryCache(freshness time.Duration) *TelemetryCache {
	if freshness <= 0 {
		freshness = DefaultTelemetryFreshness
	}
	return &TelemetryCache{freshness: freshness, now: time.Now}
}

// Update decodes a raw telemetry datagram into the cache.
// It returns false, leaving the cache untouched, if the datagram was unusable.
func (tc *TelemetryCache) Update(buff []byte) bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tel, ok := DecodeTelemetryPacket(buff, tc.tel)
	if !ok {
		return false
	}
	tel.LastUpdate = tc.now()
	tc.tel = tel
	return true
}

// Get returns a copy of the current Telemetry with Connected reflecting freshness.
func (tc *TelemetryCache) Get() Telemetry {
	tc.mu.RLock()
	tel := tc.tel
	tc.mu.RUnlock()
	tel.Connected = tc.fresh(tel.LastUpdate)
	return tel
}

// Fresh is true if a datagram arrived within the freshness window.
func (tc *TelemetryCache) Fresh() bool {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.fresh(tc.tel.LastUpdate)
}

func (tc *TelemetryCache) fresh(last time.Time) bool {
	return !last.IsZero() && tc.now().Sub(last) <= tc.freshness
}
