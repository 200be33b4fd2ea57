// evaluate.go - grading a flight against mission criteria

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
	"fmt"
	"math"
	"time"
)

// Tolerances used when grading a flight.
const (
	LandedAltitude  = 0.1 // metres
	TargetTolerance = 0.2 // metres below an altitude or distance target still counted as reached
)

// Score bounds for a passing flight.
const (
	PassScore = 70
	MaxScore  = 100
)

// SuccessCriteria holds the per-mission thresholds, a nil field is not graded.
// TimeLimit is in seconds of simulated flight time.
type SuccessCriteria struct {
	Altitude         *float64 `json:"altitude,omitempty"`
	Distance         *float64 `json:"distance,omitempty"`
	PositionAccuracy *float64 `json:"positionAccuracy,omitempty"`
	Landed           *bool    `json:"landed,omitempty"`
	TimeLimit        *float64 `json:"timeLimit,omitempty"`
}

// Evaluation is the verdict on one flight.
type Evaluation struct {
	Passed        bool     `json:"passed"`
	Score         int      `json:"score"`
	FailedReasons []string `json:"failedReasons"`
}

// Evaluate grades a flight summary against the criteria.  Every unmet criterion
// is reported, none short-circuits the others.
//
// A failing flight scores 0.  A passing flight scores PassScore plus up to
// MaxScore-PassScore points for how closely it matched each graded target.
func Evaluate(s FlightSummary, c SuccessCriteria) Evaluation {
	ev := Evaluation{FailedReasons: []string{}}
	var precision []float64

	finalAlt := s.FinalPose.Y
	landedOK := true
	if c.Landed != nil && *c.Landed {
		if finalAlt > LandedAltitude {
			landedOK = false
			ev.FailedReasons = append(ev.FailedReasons,
				fmt.Sprintf("Drone did not land: still %.2f m above the ground", finalAlt))
		} else {
			precision = append(precision, 1-clamp01(finalAlt/LandedAltitude))
		}
	}

	if c.Altitude != nil {
		target, got := *c.Altitude, s.Peak.MaxAltitude
		if got < target-TargetTolerance {
			ev.FailedReasons = append(ev.FailedReasons,
				fmt.Sprintf("Altitude target not reached: needed %.1f m, reached %.1f m", target, got))
		} else {
			precision = append(precision, closeness(got, target))
		}
	}

	if c.Distance != nil {
		target, got := *c.Distance, s.Peak.MaxHorizontalDistance
		if got < target-TargetTolerance {
			ev.FailedReasons = append(ev.FailedReasons,
				fmt.Sprintf("Distance target not reached: needed %.1f m, reached %.1f m", target, got))
		} else {
			precision = append(precision, closeness(got, target))
		}
	}

	// an airborne drone has no meaningful final position
	if c.PositionAccuracy != nil && landedOK {
		allowed, off := *c.PositionAccuracy, s.FinalPose.HorizontalDistance()
		if off > allowed {
			ev.FailedReasons = append(ev.FailedReasons,
				fmt.Sprintf("Landed too far from the start: %.2f m away, allowed %.2f m", off, allowed))
		} else if allowed > 0 {
			precision = append(precision, 1-clamp01(off/allowed))
		} else {
			precision = append(precision, 1)
		}
	}

	if c.TimeLimit != nil {
		limit := time.Duration(*c.TimeLimit * float64(time.Second))
		if s.FlightTime > limit {
			ev.FailedReasons = append(ev.FailedReasons,
				fmt.Sprintf("Time limit exceeded: flight took %.1f s, allowed %.1f s", s.FlightTime.Seconds(), *c.TimeLimit))
		}
	}

	if len(ev.FailedReasons) > 0 {
		return ev
	}
	ev.Passed = true
	ev.Score = score(precision)
	return ev
}

func score(precision []float64) int {
	if len(precision) == 0 {
		return MaxScore
	}
	var sum float64
	for _, p := range precision {
		sum += p
	}
	return PassScore + int(math.Round(float64(MaxScore-PassScore)*sum/float64(len(precision))))
}

// closeness is 1 when got equals target, falling to 0 as the relative error reaches 100%.
func closeness(got, target float64) float64 {
	return 1 - clamp01(math.Abs(got-target)/math.Max(math.Abs(target), 1))
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 1
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
