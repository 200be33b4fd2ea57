// config.go - engine and link settings

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
	"io"
	"log/slog"
	"time"
)

// Engine timing
const (
	// TicksPerSecond is the number of engine ticks per simulated second.
	TicksPerSecond = 20
	// DefaultTickPeriod is the wall-clock period of one tick.
	DefaultTickPeriod = time.Second / TicksPerSecond
)

// Config holds the Engine settings.
type Config struct {
	TickPeriod    time.Duration // wall-clock period of a tick, simulated time always advances 1/20 s
	DiscoveryWait time.Duration // how long to wait for a drone to answer before failing a hardware run
	Logger        *slog.Logger  // diagnostics; nil discards
}

// DefaultConfig returns the settings used by the learner UI.
func DefaultConfig() Config {
	return Config{
		TickPeriod:    DefaultTickPeriod,
		DiscoveryWait: 1500 * time.Millisecond,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TickPeriod <= 0 {
		c.TickPeriod = d.TickPeriod
	}
	if c.DiscoveryWait < 0 {
		c.DiscoveryWait = 0
	}
	if c.Logger == nil {
		c.Logger = discardLogger()
	}
	return c
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Default drone network addresses
const (
	DefaultDroneAddr = "192.168.43.42"
	DefaultDronePort = 2390
	DefaultLocalPort = 2399
)

// LinkConfig holds the settings of the UDP link to a physical drone.
type LinkConfig struct {
	DroneAddr    string
	DronePort    int
	LocalPort    int           // 0 picks any free port
	SendInterval time.Duration // minimum gap between transmitted datagrams
	Freshness    time.Duration // telemetry older than this means disconnected
}

// DefaultLinkConfig returns the addresses and timings of a stock drone.
func DefaultLinkConfig() LinkConfig {
	return LinkConfig{
		DroneAddr:    DefaultDroneAddr,
		DronePort:    DefaultDronePort,
		LocalPort:    DefaultLocalPort,
		SendInterval: 50 * time.Millisecond,
		Freshness:    DefaultTelemetryFreshness,
	}
}
