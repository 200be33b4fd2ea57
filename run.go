// run.go - state of a single execution run

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
	"fmt"
	"sync"
	"time"
)

// Status is the lifecycle state of a Run.
type Status int

// Run states...
const (
	StatusIdle Status = iota
	StatusParsing
	StatusValidated
	StatusExecuting
	StatusAborted
	StatusCompleted
	StatusFailed
)

var statusNames = [...]string{"idle", "parsing", "validated", "executing", "aborted", "completed", "failed"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	for i, n := range statusNames {
		if n == string(b) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", b)
}

// Terminal is true once a run can no longer change.
func (s Status) Terminal() bool {
	return s == StatusAborted || s == StatusCompleted || s == StatusFailed
}

// FlightSummary is what the evaluator needs to know about a finished flight.
type FlightSummary struct {
	RunID      string        `json:"runId"`
	Mode       Mode          `json:"mode"`
	Status     Status        `json:"status"`
	FinalPose  Pose          `json:"finalPose"`
	Peak       PeakMetrics   `json:"peak"`
	Ticks      int           `json:"ticks"`
	FlightTime time.Duration `json:"flightTime"` // simulated
	Err        string        `json:"error,omitempty"`
}

// Run is one execution of a command sequence.  Its Pose and PeakMetrics belong
// to it alone; a newer run never shares them.
type Run struct {
	ID         string
	Generation uint64
	Mode       Mode
	Commands   []Command

	cancel context.CancelCauseFunc
	done   chan struct{}

	mu      sync.RWMutex // protects the fields below
	status  Status
	index   int
	pose    Pose
	peak    PeakMetrics
	ticks   int
	err     error
	trace   []Pose
	console []LogEntry
}

func newRun(id string, gen uint64, mode Mode, cmds []Command, cancel context.CancelCauseFunc) *Run {
	return &Run{
		ID:         id,
		Generation: gen,
		Mode:       mode,
		Commands:   cmds,
		cancel:     cancel,
		done:       make(chan struct{}),
		status:     StatusIdle,
		index:      -1,
	}
}

// Status returns the run's current state.
func (r *Run) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Index is the position of the command being flown, -1 before the first.
func (r *Run) Index() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index
}

func (r *Run) Pose() Pose {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pose
}

func (r *Run) Peak() PeakMetrics {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.peak
}

// Err is the reason the run failed or was aborted.
func (r *Run) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

// Trace returns a copy of every pose the run passed through, one per tick.
func (r *Run) Trace() []Pose {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Pose(nil), r.trace...)
}

// Console returns a copy of the console lines the run produced.
func (r *Run) Console() []LogEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]LogEntry(nil), r.console...)
}

// Done is closed when the run's loop has exited.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Summary snapshots the run for evaluation.
func (r *Run) Summary() FlightSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := FlightSummary{
		RunID:      r.ID,
		Mode:       r.Mode,
		Status:     r.status,
		FinalPose:  r.pose,
		Peak:       r.peak,
		Ticks:      r.ticks,
		FlightTime: time.Duration(r.ticks) * time.Second / TicksPerSecond,
	}
	if r.err != nil {
		s.Err = r.err.Error()
	}
	return s
}

// Wait blocks until the run ends or ctx is done.
// The error is nil only for a completed run.
func (r *Run) Wait(ctx context.Context) (FlightSummary, error) {
	select {
	case <-r.done:
	case <-ctx.Done():
		return r.Summary(), ctx.Err()
	}
	return r.Summary(), r.Err()
}

func (r *Run) setStatus(s Status) {
	r.mu.Lock()
	r.status = s
	r.mu.Unlock()
}

func (r *Run) setIndex(i int) {
	r.mu.Lock()
	r.index = i
	r.mu.Unlock()
}

func (r *Run) finish(s Status, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status.Terminal() {
		return
	}
	r.status = s
	r.err = err
}

// advance applies tick i of m to the pose and returns the new pose.
func (r *Run) advance(m maneuver, i int) Pose {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.pose
	m.step(i, &p)
	r.pose = p
	r.peak.observe(p)
	r.ticks++
	r.trace = append(r.trace, p)
	return p
}

// observeAltitude folds a measured altitude into the peaks.
func (r *Run) observeAltitude(alt float64) {
	r.mu.Lock()
	r.peak.MaxAltitude = max(r.peak.MaxAltitude, alt)
	r.mu.Unlock()
}

func (r *Run) appendConsole(e LogEntry) {
	r.mu.Lock()
	r.console = append(r.console, e)
	r.mu.Unlock()
}
