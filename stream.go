// stream.go - console and pose streams

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

// LogKind classifies console entries shown to the learner.
type LogKind string

// Console entry kinds...
const (
	LogInfo    LogKind = "info"
	LogOutput  LogKind = "output" // from print()
	LogSuccess LogKind = "success"
	LogWarning LogKind = "warning"
	LogError   LogKind = "error"
)

// LogEntry is one line of learner-facing console output.
type LogEntry struct {
	RunID   string    `json:"runId,omitempty"`
	Kind    LogKind   `json:"kind"`
	Message string    `json:"message"`
	Time    time.Time `json:"timestamp"`
}

// PoseUpdate is published on every tick of a live run.
type PoseUpdate struct {
	RunID      string    `json:"runId"`
	Generation uint64    `json:"generation"`
	Pose       Pose      `json:"pose"`
	Time       time.Time `json:"timestamp"`
}

// broadcaster fans values out to subscribers.  It never blocks,
// a subscriber that falls behind simply misses values.
type broadcaster[T any] struct {
	mu   sync.Mutex
	subs map[chan T]struct{}
}

func (b *broadcaster[T]) subscribe(buf int) (<-chan T, func()) {
	ch := make(chan T, max(buf, 1))
	b.mu.Lock()
	if b.subs == nil {
		b.subs = make(map[chan T]struct{})
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	unsub := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
	}
	return ch, unsub
}

func (b *broadcaster[T]) publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- v:
		default:
		}
	}
}
