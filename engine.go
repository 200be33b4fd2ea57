// engine.go - the tick-driven execution engine

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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Mode selects what a run drives.
type Mode int

// Execution modes...
const (
	ModeSimulation Mode = iota
	ModeHardware
)

func (m Mode) String() string {
	if m == ModeHardware {
		return "hardware"
	}
	return "simulation"
}

// ParseMode accepts "sim", "simulation", "hw" or "hardware".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "sim", "simulation", "":
		return ModeSimulation, nil
	case "hw", "hardware", "drone":
		return ModeHardware, nil
	}
	return ModeSimulation, fmt.Errorf("unknown mode %q", s)
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) (err error) {
	*m, err = ParseMode(string(b))
	return err
}

// Errors ending a run.
var (
	ErrNoTransport  = errors.New("hardware mode needs a drone transport")
	ErrNotConnected = errors.New("drone not connected")
	ErrSuperseded   = errors.New("run superseded by a newer run")
	ErrAborted      = errors.New("run stopped by user")
)

const notConnectedHint = "Drone not connected. Check that it is switched on and that this computer is joined to the drone's Wi-Fi network, then try again."

// Engine executes command sequences one run at a time.  Starting a run
// supersedes the previous one; every tick compares the run's generation with
// the engine's live generation and a stale run stops without touching anything.
type Engine struct {
	cfg Config
	tx  Transport
	log *slog.Logger

	gen atomic.Uint64 // the live generation

	mu  sync.Mutex // protects cur
	cur *Run

	poses   broadcaster[PoseUpdate]
	console broadcaster[LogEntry]
}

// NewEngine creates an Engine; tx may be nil if only simulation is needed.
func NewEngine(cfg Config, tx Transport) *Engine {
	cfg = cfg.withDefaults()
	return &Engine{
		cfg: cfg,
		tx:  tx,
		log: cfg.Logger,
	}
}

// SubscribePoses streams the pose of the live run on every tick.
// Call the returned func to unsubscribe.
func (e *Engine) SubscribePoses(buf int) (<-chan PoseUpdate, func()) {
	return e.poses.subscribe(buf)
}

// SubscribeConsole streams learner-facing console entries.
func (e *Engine) SubscribeConsole(buf int) (<-chan LogEntry, func()) {
	return e.console.subscribe(buf)
}

// Generation returns the live generation id.
func (e *Engine) Generation() uint64 {
	return e.gen.Load()
}

// Current returns the most recently started run, or nil.
func (e *Engine) Current() *Run {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cur
}

// Start begins flying cmds.  Any run still in flight is superseded and
// Start waits for its loop to exit before the new run begins.
func (e *Engine) Start(ctx context.Context, cmds []Command, mode Mode) (*Run, error) {
	if mode == ModeHardware && e.tx == nil {
		return nil, ErrNoTransport
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if prev := e.cur; prev != nil {
		prev.cancel(ErrSuperseded)
		e.gen.Add(1)
		<-prev.done
	}

	gen := e.gen.Add(1)
	runCtx, cancel := context.WithCancelCause(ctx)
	r := newRun(uuid.NewString(), gen, mode, cmds, cancel)
	e.cur = r
	e.log.Info("run starting", slog.String("run", r.ID), slog.Uint64("generation", gen),
		slog.String("mode", mode.String()), slog.Int("commands", len(cmds)))

	go e.fly(runCtx, r)
	return r, nil
}

// Execute flies cmds and waits for the run to finish.
func (e *Engine) Execute(ctx context.Context, cmds []Command, mode Mode) (FlightSummary, error) {
	r, err := e.Start(ctx, cmds, mode)
	if err != nil {
		return FlightSummary{Mode: mode, Status: StatusFailed, Err: err.Error()}, err
	}
	return r.Wait(ctx)
}

// Stop aborts the live run, if any, and waits for it to wind down.
func (e *Engine) Stop() {
	e.mu.Lock()
	r := e.cur
	e.mu.Unlock()
	if r == nil {
		return
	}
	r.cancel(ErrAborted)
	e.gen.Add(1)
	<-r.done
}

// say writes a console line for run r.
func (e *Engine) say(r *Run, kind LogKind, format string, args ...any) {
	entry := LogEntry{Kind: kind, Message: fmt.Sprintf(format, args...), Time: time.Now()}
	if r != nil {
		entry.RunID = r.ID
		r.appendConsole(entry)
	}
	e.console.publish(entry)

	lvl := slog.LevelInfo
	switch kind {
	case LogWarning:
		lvl = slog.LevelWarn
	case LogError:
		lvl = slog.LevelError
	case LogOutput:
		lvl = slog.LevelDebug
	}
	e.log.Log(context.Background(), lvl, entry.Message, slog.String("kind", string(kind)), slog.String("run", entry.RunID))
}

func (e *Engine) live(r *Run) bool {
	return e.gen.Load() == r.Generation
}

func (e *Engine) abandon(ctx context.Context, r *Run) {
	cause := context.Cause(ctx)
	if cause == nil {
		cause = ErrSuperseded
	}
	r.finish(StatusAborted, cause)
	e.say(r, LogWarning, "Flight stopped: %v", cause)
}

// fly is the run loop.  It is the only goroutine that moves r.
func (e *Engine) fly(ctx context.Context, r *Run) {
	defer close(r.done)
	defer r.cancel(nil)
	defer func() {
		if rec := recover(); rec != nil {
			e.log.Error("run panicked", slog.String("run", r.ID), slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())))
			r.finish(StatusFailed, fmt.Errorf("runtime failure: %v", rec))
			e.say(r, LogError, "Flight failed: %v", rec)
		}
	}()

	r.setStatus(StatusExecuting)
	e.say(r, LogInfo, "Starting %s flight (%d commands)", r.Mode, len(r.Commands))

	if r.Mode == ModeHardware {
		if err := e.awaitDrone(ctx, r); err != nil {
			if ctx.Err() != nil {
				e.abandon(ctx, r)
				return
			}
			r.finish(StatusFailed, err)
			e.say(r, LogError, notConnectedHint)
			return
		}
	}

	ticker := time.NewTicker(e.cfg.TickPeriod)
	defer ticker.Stop()

	for i, cmd := range r.Commands {
		if ctx.Err() != nil || !e.live(r) {
			e.abandon(ctx, r)
			return
		}
		r.setIndex(i)

		if p, ok := cmd.(PrintCommand); ok {
			e.say(r, LogOutput, "%s", p.Value)
			continue
		}

		m := planManeuver(cmd, r.Pose())
		if m.noop != "" {
			e.say(r, LogInfo, "Line %d: %s", cmd.Source().Line, m.noop)
			continue
		}
		e.log.Debug("command", slog.String("run", r.ID), slog.Int("line", cmd.Source().Line),
			slog.String("kind", cmd.Kind().String()), slog.Int("ticks", m.ticks))

		sendFailed := false
		for t := 0; t < m.ticks; t++ {
			select {
			case <-ctx.Done():
				e.abandon(ctx, r)
				return
			case <-ticker.C:
			}
			if !e.live(r) {
				e.abandon(ctx, r)
				return
			}

			pose := r.advance(m, t)

			if r.Mode == ModeHardware {
				if err := e.tx.SendSetpoint(ctx, m.setpoint(t)); err != nil {
					if ctx.Err() != nil {
						e.abandon(ctx, r)
						return
					}
					e.log.Warn("setpoint send failed", slog.String("run", r.ID), slog.Any("error", err))
					if !sendFailed {
						e.say(r, LogWarning, "Line %d: lost contact while sending to the drone (%v)", cmd.Source().Line, err)
						sendFailed = true
					}
				}
				if tel := e.tx.Telemetry(); tel.Connected {
					r.observeAltitude(tel.Altitude)
				}
			}

			e.poses.publish(PoseUpdate{RunID: r.ID, Generation: r.Generation, Pose: pose, Time: time.Now()})
		}
	}

	r.finish(StatusCompleted, nil)
	e.say(r, LogSuccess, "Flight complete")
}

// awaitDrone makes sure a physical drone is answering before any setpoint is sent.
func (e *Engine) awaitDrone(ctx context.Context, r *Run) error {
	if e.tx.Connected() {
		return nil
	}
	e.say(r, LogInfo, "Looking for the drone...")
	if err := e.tx.Discover(ctx); err != nil {
		e.log.Warn("discovery request failed", slog.Any("error", err))
	}
	timer := time.NewTimer(e.cfg.DiscoveryWait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}
	if !e.tx.Connected() {
		return ErrNotConnected
	}
	return nil
}
