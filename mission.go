// mission.go - parse, validate, fly and grade in one call

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
	"log/slog"
)

// MissionResult gathers everything produced by one pass of RunMission.
type MissionResult struct {
	Script      string        `json:"script"`
	Commands    []Command     `json:"-"`
	ParseErrors ParseErrors   `json:"parseErrors,omitempty"`
	Warnings    []Warning     `json:"warnings,omitempty"`
	Status      Status        `json:"status"`
	Summary     FlightSummary `json:"summary"`
	Evaluation  Evaluation    `json:"evaluation"`
	Trace       []Pose        `json:"-"`
}

// RunMission parses, validates, flies and grades a script on the given engine.
//
// Parse errors stop the mission before anything flies and are returned as the error.
// A run that fails or is aborted is not an error, it is reported in the result and
// graded as a failure.  The error is also set when the engine refuses to start or
// ctx ends before the run finishes.
func RunMission(ctx context.Context, e *Engine, script string, mode Mode, criteria SuccessCriteria) (MissionResult, error) {
	res := MissionResult{Script: script, Status: StatusParsing}

	cmds, perrs := Parse(script)
	if len(perrs) > 0 {
		res.ParseErrors = perrs
		res.Status = StatusFailed
		for _, pe := range perrs {
			e.say(nil, LogError, "Line %d: %s", pe.Line, pe.Message)
		}
		res.Summary = FlightSummary{Mode: mode, Status: StatusFailed, Err: perrs.Error()}
		res.Evaluation = failedEvaluation("script has errors, nothing was flown")
		return res, perrs.Err()
	}
	res.Commands = cmds

	res.Warnings = Validate(cmds)
	for _, w := range res.Warnings {
		e.say(nil, LogWarning, "Line %d: %s", w.Line, w.Message)
	}
	res.Status = StatusValidated

	r, err := e.Start(ctx, cmds, mode)
	if err != nil {
		res.Status = StatusFailed
		res.Summary = FlightSummary{Mode: mode, Status: StatusFailed, Err: err.Error()}
		res.Evaluation = failedEvaluation("flight did not start: " + err.Error())
		e.say(nil, LogError, "Flight did not start: %v", err)
		return res, err
	}
	sum, werr := r.Wait(ctx)
	res.Summary = sum
	res.Status = sum.Status
	res.Trace = r.Trace()
	if werr != nil && ctx.Err() != nil {
		return res, werr
	}

	if sum.Status != StatusCompleted {
		reason := "flight did not complete"
		if sum.Err != "" {
			reason += ": " + sum.Err
		}
		res.Evaluation = failedEvaluation(reason)
		e.say(r, LogError, "Mission failed: %s", reason)
		return res, nil
	}

	res.Evaluation = Evaluate(sum, criteria)
	if res.Evaluation.Passed {
		e.say(r, LogSuccess, "Mission passed with a score of %d", res.Evaluation.Score)
	} else {
		for _, reason := range res.Evaluation.FailedReasons {
			e.say(r, LogError, "%s", reason)
		}
	}
	e.log.Info("mission graded", slog.String("run", r.ID), slog.Bool("passed", res.Evaluation.Passed),
		slog.Int("score", res.Evaluation.Score))
	return res, nil
}

func failedEvaluation(reason string) Evaluation {
	return Evaluation{FailedReasons: []string{reason}}
}
