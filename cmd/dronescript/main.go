// cmd/dronescript/main.go - command-line mission runner

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

// Command dronescript flies a mission script in simulation or on a physical drone,
// prints the learner console and the grade, and optionally journals the run.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sync/errgroup"

	ds "github.com/SMerrony/dronescript"
	"github.com/SMerrony/dronescript/journal"
	dslog "github.com/SMerrony/dronescript/log"
)

var (
	scriptFile   = flag.String("script", "-", "mission script file, - for stdin")
	criteriaFile = flag.String("criteria", "", "success criteria JSON file")
	modeFlag     = flag.String("mode", "sim", "sim or hw")
	dbPath       = flag.String("db", "", "journal the run into this SQLite database")
	logLevel     = flag.String("log-level", "info", "debug, info, warn or error")
	logDir       = flag.String("log-dir", "", "directory for the rotating log file")
	serveAddr    = flag.String("serve", "", "serve /stream websocket frames on this address, eg. localhost:8090")
	tickPeriod   = flag.Duration("tick", ds.DefaultTickPeriod, "wall-clock period of one engine tick")
	droneAddr    = flag.String("drone", ds.DefaultDroneAddr, "drone IP address")
	dronePort    = flag.Int("drone-port", ds.DefaultDronePort, "drone UDP port")
	localPort    = flag.Int("local-port", ds.DefaultLocalPort, "local UDP port for telemetry")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: dronescript [flags]\nwhere [flags] may be:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	passed, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "dronescript: %v\n", err)
		os.Exit(1)
	}
	if !passed {
		os.Exit(2)
	}
}

func run() (bool, error) {
	mode, err := ds.ParseMode(*modeFlag)
	if err != nil {
		return false, err
	}
	script, err := readScript(*scriptFile)
	if err != nil {
		return false, err
	}
	criteria, err := readCriteria(*criteriaFile)
	if err != nil {
		return false, err
	}

	lg := dslog.New(*logLevel, *logDir)
	defer lg.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var store *journal.Store
	if *dbPath != "" {
		if store, err = journal.Open(ctx, *dbPath); err != nil {
			return false, err
		}
		defer store.Close()
	}

	var tx ds.Transport
	if mode == ds.ModeHardware {
		lc := ds.DefaultLinkConfig()
		lc.DroneAddr, lc.DronePort, lc.LocalPort = *droneAddr, *dronePort, *localPort
		link, err := ds.Dial(lc, lg.Logger)
		if err != nil {
			return false, err
		}
		defer link.Close()
		tx = link
	}

	cfg := ds.DefaultConfig()
	cfg.TickPeriod = *tickPeriod
	cfg.Logger = lg.Logger
	engine := ds.NewEngine(cfg, tx)

	console, unsub := engine.SubscribeConsole(256)

	eg, egCtx := errgroup.WithContext(ctx)
	missionCtx, missionDone := context.WithCancel(egCtx)

	eg.Go(func() error {
		printConsole(os.Stdout, console)
		return nil
	})
	if *serveAddr != "" {
		ss := newStreamServer(engine, lg.Logger)
		eg.Go(func() error { return ss.serve(missionCtx, *serveAddr) })
	}

	var res ds.MissionResult
	eg.Go(func() error {
		defer missionDone()
		defer unsub()
		var merr error
		res, merr = ds.RunMission(missionCtx, engine, script, mode, criteria)
		var perrs ds.ParseErrors
		if errors.As(merr, &perrs) {
			// already on the console
			return nil
		}
		return merr
	})

	if err := eg.Wait(); err != nil {
		return false, err
	}

	if store != nil {
		rec := journal.FromMission(res)
		if err := store.RecordRun(context.Background(), rec, res.Trace); err != nil {
			lg.Error("journal write failed", slog.Any("error", err))
			return false, err
		}
		lg.Info("run journalled", slog.String("run", rec.ID), slog.String("db", *dbPath))
	}

	printEvaluation(os.Stdout, res)
	return res.Evaluation.Passed, nil
}

func readScript(path string) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(os.Stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	return string(b), nil
}

func readCriteria(path string) (ds.SuccessCriteria, error) {
	var c ds.SuccessCriteria
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read criteria: %w", err)
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parse criteria %s: %w", path, err)
	}
	return c, nil
}

func printConsole(w io.Writer, entries <-chan ds.LogEntry) {
	for e := range entries {
		fmt.Fprintf(w, "%s [%-7s] %s\n", e.Time.Format(time.TimeOnly), e.Kind, e.Message)
	}
}

func printEvaluation(w io.Writer, res ds.MissionResult) {
	s := res.Summary
	fmt.Fprintf(w, "\nstatus %s, flight time %.1f s, peak altitude %.2f m, peak distance %.2f m\n",
		res.Status, s.FlightTime.Seconds(), s.Peak.MaxAltitude, s.Peak.MaxHorizontalDistance)
	if res.Evaluation.Passed {
		fmt.Fprintf(w, "PASSED  score %d\n", res.Evaluation.Score)
		return
	}
	fmt.Fprintln(w, "FAILED")
	for _, r := range res.Evaluation.FailedReasons {
		fmt.Fprintf(w, "  - %s\n", r)
	}
}
