// journal/store_test.go

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

package journal

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	ds "github.com/SMerrony/dronescript"
)

func openTempStore(t *testing.T) (*Store, context.Context) {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, filepath.Join(t.TempDir(), "journal", "runs.db"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s, ctx
}

func TestApplyAndRollbackMigrations(t *testing.T) {
	s, ctx := openTempStore(t)
	db := s.DB()

	// a second pass must be a no-op
	if err := ApplyMigrations(ctx, db); err != nil {
		t.Fatalf("reapply migrations: %v", err)
	}

	tables := []string{"runs", "evaluations", "traces"}
	for _, table := range tables {
		var name string
		if err := db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name); err != nil {
			t.Fatalf("expected table %s to exist: %v", table, err)
		}
	}

	if err := RollbackAll(ctx, db); err != nil {
		t.Fatalf("rollback migrations: %v", err)
	}
	for _, table := range tables {
		var count int
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&count); err != nil {
			t.Fatalf("count table %s: %v", table, err)
		}
		if count != 0 {
			t.Fatalf("table %s still exists after rollback", table)
		}
	}
}

func TestRecordAndGetRun(t *testing.T) {
	s, ctx := openTempStore(t)

	rec := Record{
		ID:            "0b8f6c1e-3d2a-4f7b-9a51-2c4d6e8f0a1b",
		CreatedAt:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Mode:          ds.ModeSimulation,
		Status:        ds.StatusCompleted,
		Script:        "drone.takeoff()\ndrone.land()",
		FinalPose:     ds.Pose{X: 0.5, Y: 0, Z: -2, Yaw: 90},
		Peak:          ds.PeakMetrics{MaxAltitude: 1, MaxHorizontalDistance: 2.06},
		FlightTime:    4 * time.Second,
		Passed:        false,
		Score:         0,
		FailedReasons: []string{"Altitude target not reached: needed 5.0 m, reached 1.0 m"},
	}
	trace := []ds.Pose{{Y: 0.05}, {Y: 0.1, Yaw: 1.5}, {X: 0.5, Y: 0, Z: -2, Yaw: 90}}
	if err := s.RecordRun(ctx, rec, trace); err != nil {
		t.Fatalf("record run: %v", err)
	}

	got, err := s.GetRun(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, rec.CreatedAt)
	}
	got.CreatedAt = rec.CreatedAt
	if !reflect.DeepEqual(got, rec) {
		t.Errorf("GetRun =\n%+v\nwant\n%+v", got, rec)
	}

	gotTrace, err := s.Trace(ctx, rec.ID)
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	if !reflect.DeepEqual(gotTrace, trace) {
		t.Errorf("Trace = %v, want %v", gotTrace, trace)
	}
}

func TestGetRunNotFound(t *testing.T) {
	s, ctx := openTempStore(t)
	if _, err := s.GetRun(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRun(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := s.Trace(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Trace(missing) error = %v, want ErrNotFound", err)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	s, ctx := openTempStore(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		rec := Record{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Minute), Mode: ds.ModeHardware, Status: ds.StatusFailed, Err: "drone not connected"}
		if err := s.RecordRun(ctx, rec, nil); err != nil {
			t.Fatalf("record %s: %v", id, err)
		}
	}

	all, err := s.ListRuns(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].ID != "c" || all[2].ID != "a" {
		t.Errorf("ListRuns(0) ids = %v", ids(all))
	}
	if all[0].FailedReasons == nil || len(all[0].FailedReasons) != 0 {
		t.Errorf("FailedReasons = %#v, want empty slice", all[0].FailedReasons)
	}

	two, err := s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(two) != 2 || two[0].ID != "c" || two[1].ID != "b" {
		t.Errorf("ListRuns(2) ids = %v", ids(two))
	}

	if _, err := s.Trace(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("run recorded without trace: Trace error = %v, want ErrNotFound", err)
	}
}

func TestDuplicateRunRejected(t *testing.T) {
	s, ctx := openTempStore(t)
	rec := Record{ID: "dup", Mode: ds.ModeSimulation, Status: ds.StatusCompleted, Passed: true, Score: 100}
	if err := s.RecordRun(ctx, rec, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordRun(ctx, rec, nil); err == nil {
		t.Error("recording the same run twice succeeded")
	}
	// the failed insert must not leave a partial evaluation behind
	var n int
	if err := s.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM evaluations`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("evaluations = %d, want 1", n)
	}
}

func TestFromMissionWithoutRun(t *testing.T) {
	res := ds.MissionResult{
		Script:     "drone.dance()",
		Status:     ds.StatusFailed,
		Summary:    ds.FlightSummary{Mode: ds.ModeSimulation, Status: ds.StatusFailed, Err: "line 1: unknown command \"dance\""},
		Evaluation: ds.Evaluation{FailedReasons: []string{"script has errors, nothing was flown"}},
	}
	rec := FromMission(res)
	if rec.ID == "" {
		t.Error("FromMission left the ID empty")
	}
	if rec.Status != ds.StatusFailed || rec.Err == "" || rec.Script != res.Script {
		t.Errorf("FromMission = %+v", rec)
	}
}

func TestEncodeDecodeEmptyTrace(t *testing.T) {
	blob, err := EncodeTrace(nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeTrace(blob)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("DecodeTrace = %v, want empty", got)
	}
	if _, err := DecodeTrace([]byte("not zstd")); err == nil {
		t.Error("DecodeTrace accepted garbage")
	}
}

func ids(recs []Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}
