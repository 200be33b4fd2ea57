// journal/store.go - SQLite run journal

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

// Package journal keeps a local SQLite record of flown missions so that results can be
// handed on to an external grading store.
package journal

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"

	ds "github.com/SMerrony/dronescript"
)

var ErrNotFound = errors.New("not found")

// Record is one journalled mission.
type Record struct {
	ID            string
	CreatedAt     time.Time
	Mode          ds.Mode
	Status        ds.Status
	Script        string
	FinalPose     ds.Pose
	Peak          ds.PeakMetrics
	FlightTime    time.Duration
	Err           string
	Passed        bool
	Score         int
	FailedReasons []string
}

// FromMission builds a Record from a mission result, the trace is stored separately.
func FromMission(res ds.MissionResult) Record {
	id := res.Summary.RunID
	if id == "" {
		id = uuid.NewString()
	}
	return Record{
		ID:            id,
		CreatedAt:     time.Now().UTC(),
		Mode:          res.Summary.Mode,
		Status:        res.Status,
		Script:        res.Script,
		FinalPose:     res.Summary.FinalPose,
		Peak:          res.Summary.Peak,
		FlightTime:    res.Summary.FlightTime,
		Err:           res.Summary.Err,
		Passed:        res.Evaluation.Passed,
		Score:         res.Evaluation.Score,
		FailedReasons: res.Evaluation.FailedReasons,
	}
}

type Store struct {
	db *sql.DB
}

func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := ApplyMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) DB() *sql.DB {
	return s.db
}

// RecordRun stores rec and its pose trace in one transaction.  A nil trace stores none.
func (s *Store) RecordRun(ctx context.Context, rec Record, trace []ds.Pose) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	reasons := rec.FailedReasons
	if reasons == nil {
		reasons = []string{}
	}
	reasonsJSON, err := json.Marshal(reasons)
	if err != nil {
		return fmt.Errorf("marshal failed reasons: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
INSERT INTO runs(run_id, created_at, mode, status, script, final_x, final_y, final_z, final_yaw, max_altitude, max_distance, flight_ms, error)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, rec.ID, ts(rec.CreatedAt), rec.Mode.String(), rec.Status.String(), rec.Script,
		rec.FinalPose.X, rec.FinalPose.Y, rec.FinalPose.Z, rec.FinalPose.Yaw,
		rec.Peak.MaxAltitude, rec.Peak.MaxHorizontalDistance, rec.FlightTime.Milliseconds(), rec.Err)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO evaluations(run_id, passed, score, failed_reasons_json) VALUES (?, ?, ?, ?)
`, rec.ID, boolToInt(rec.Passed), rec.Score, string(reasonsJSON))
	if err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}

	if trace != nil {
		blob, err := EncodeTrace(trace)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO traces(run_id, samples, blob) VALUES (?, ?, ?)`, rec.ID, len(trace), blob); err != nil {
			return fmt.Errorf("insert trace: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record: %w", err)
	}
	return nil
}

const selectRun = `
SELECT r.run_id, r.created_at, r.mode, r.status, r.script, r.final_x, r.final_y, r.final_z, r.final_yaw,
	r.max_altitude, r.max_distance, r.flight_ms, r.error, e.passed, e.score, e.failed_reasons_json
FROM runs r JOIN evaluations e ON e.run_id = r.run_id`

func (s *Store) GetRun(ctx context.Context, id string) (Record, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, selectRun+` WHERE r.run_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

// ListRuns returns the most recent runs first.  A limit <= 0 returns them all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, selectRun+` ORDER BY r.created_at DESC, r.rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

// Trace returns the pose samples journalled with a run.
func (s *Store) Trace(ctx context.Context, id string) ([]ds.Pose, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT blob FROM traces WHERE run_id = ?`, id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select trace: %w", err)
	}
	return DecodeTrace(blob)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (Record, error) {
	var (
		rec                 Record
		created, mode, stat string
		flightMS            int64
		passed              int
		reasonsJSON         string
	)
	err := sc.Scan(&rec.ID, &created, &mode, &stat, &rec.Script,
		&rec.FinalPose.X, &rec.FinalPose.Y, &rec.FinalPose.Z, &rec.FinalPose.Yaw,
		&rec.Peak.MaxAltitude, &rec.Peak.MaxHorizontalDistance, &flightMS, &rec.Err,
		&passed, &rec.Score, &reasonsJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("scan run: %w", err)
	}
	if rec.CreatedAt, err = parseTS(created); err != nil {
		return Record{}, fmt.Errorf("parse created_at: %w", err)
	}
	if err := rec.Mode.UnmarshalText([]byte(mode)); err != nil {
		return Record{}, err
	}
	if err := rec.Status.UnmarshalText([]byte(stat)); err != nil {
		return Record{}, err
	}
	rec.FlightTime = time.Duration(flightMS) * time.Millisecond
	rec.Passed = passed != 0
	if err := json.Unmarshal([]byte(reasonsJSON), &rec.FailedReasons); err != nil {
		return Record{}, fmt.Errorf("decode failed reasons: %w", err)
	}
	return rec, nil
}

// traceSOA is a pose trace laid out as a struct of arrays, which compresses far better.
type traceSOA struct {
	X   []float64 `msgpack:"x"`
	Y   []float64 `msgpack:"y"`
	Z   []float64 `msgpack:"z"`
	Yaw []float64 `msgpack:"yaw"`
}

// EncodeTrace packs poses as msgpack compressed with zstd.
func EncodeTrace(trace []ds.Pose) ([]byte, error) {
	soa := traceSOA{
		X:   make([]float64, len(trace)),
		Y:   make([]float64, len(trace)),
		Z:   make([]float64, len(trace)),
		Yaw: make([]float64, len(trace)),
	}
	for i, p := range trace {
		soa.X[i], soa.Y[i], soa.Z[i], soa.Yaw[i] = p.X, p.Y, p.Z, p.Yaw
	}

	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %w", err)
	}
	if err := msgpack.NewEncoder(zw).Encode(soa); err != nil {
		zw.Close()
		return nil, fmt.Errorf("failed to encode trace: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zstd writer: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeTrace reverses EncodeTrace.
func DecodeTrace(blob []byte) ([]ds.Pose, error) {
	zr, err := zstd.NewReader(bytes.NewReader(blob), zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer zr.Close()

	var soa traceSOA
	if err := msgpack.NewDecoder(zr).Decode(&soa); err != nil {
		return nil, fmt.Errorf("failed to decode trace: %w", err)
	}
	n := len(soa.X)
	if len(soa.Y) != n || len(soa.Z) != n || len(soa.Yaw) != n {
		return nil, fmt.Errorf("corrupt trace: column lengths %d/%d/%d/%d", n, len(soa.Y), len(soa.Z), len(soa.Yaw))
	}
	trace := make([]ds.Pose, n)
	for i := range trace {
		trace[i] = ds.Pose{X: soa.X[i], Y: soa.Y[i], Z: soa.Z[i], Yaw: soa.Yaw[i]}
	}
	return trace, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTS(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
