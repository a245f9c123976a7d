package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/youpower/greenbutton/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *RunDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// newTestRun builds a finished run started at the given time.
func newTestRun(t *testing.T, started time.Time, success bool) *model.Run {
	t.Helper()

	start, _ := model.ParseDate("2024-01-05") //nolint:errcheck // constant input
	end, _ := model.ParseDate("2024-01-31")   //nolint:errcheck // constant input
	run := model.NewRun("desktop", "/tmp/downloads", model.DateRange{Start: start, End: end})
	run.StartedAt = started
	run.Enter(model.StageSessionOpen)
	run.Enter(model.StageAuthenticated)
	run.AddStep(model.StepResult{Name: "login", Status: model.StepOK, Locator: "id=username"})
	if success {
		run.Enter(model.StageDownloadTriggered)
		run.Downloads = append(run.Downloads, model.DownloadedFile{Name: "usage.csv", Path: "/tmp/downloads/usage.csv", Size: 42})
		run.Finish(true, "Successfully downloaded PG&E Green Button data!")
	} else {
		run.Fail(errors.New("green button: element not found"))
		run.Finish(false, "Failed to download Green Button data.")
	}
	run.Enter(model.StageClosed)
	return run
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("unexpected path %s", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "missing"), Options{CreateIfNotExists: false})
		if err == nil {
			t.Fatal("expected error when database does not exist")
		}
		if !strings.Contains(err.Error(), "database not found") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		_ = db.Close()

		db, err = Open(dbDir, Options{CreateIfNotExists: false})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		_ = db.Close()
	})
}

// TestSaveAndGetRun tests round-tripping a run through the database.
func TestSaveAndGetRun(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	run := newTestRun(t, time.Now(), true)

	if err := db.SaveRun(ctx, run); err != nil {
		t.Fatalf("failed to save run: %v", err)
	}

	got, err := db.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if got == nil {
		t.Fatal("expected run, got nil")
	}
	if got.ID != run.ID || !got.Success || got.Message != run.Message {
		t.Errorf("unexpected run %+v", got)
	}
	if got.Stage != model.StageDownloadTriggered {
		t.Errorf("expected stage %s, got %s", model.StageDownloadTriggered, got.Stage)
	}
	if len(got.Downloads) != 1 || got.Downloads[0].Name != "usage.csv" {
		t.Errorf("unexpected downloads %+v", got.Downloads)
	}
	if !got.Closed() {
		t.Error("expected closed transition to survive")
	}
	if got.Progress == nil || got.Progress.Total != model.TotalMilestones {
		t.Errorf("unexpected progress %+v", got.Progress)
	}
}

// TestSaveRun_Upsert tests that saving the same run twice replaces it.
func TestSaveRun_Upsert(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	run := newTestRun(t, time.Now(), false)

	if err := db.SaveRun(ctx, run); err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	run.Message = "updated"
	if err := db.SaveRun(ctx, run); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	total, _, err := db.CountRuns(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if total != 1 {
		t.Errorf("expected 1 run, got %d", total)
	}
	got, _ := db.GetRun(ctx, run.ID) //nolint:errcheck // checked by the nil test below
	if got == nil || got.Message != "updated" {
		t.Errorf("expected updated message, got %+v", got)
	}
}

// TestSaveRun_NoID tests that a run without ID is rejected.
func TestSaveRun_NoID(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	err := db.SaveRun(context.Background(), &model.Run{})
	if !errors.Is(err, ErrNoRunID) {
		t.Errorf("expected ErrNoRunID, got %v", err)
	}
}

// TestGetRun_NotFound tests lookups of unknown IDs.
func TestGetRun_NotFound(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	got, err := db.GetRun(ctx, "no-such-run")
	if err != nil || got != nil {
		t.Errorf("expected nil, nil; got %v, %v", got, err)
	}
	latest, err := db.LatestRun(ctx)
	if err != nil || latest != nil {
		t.Errorf("expected nil, nil for empty history; got %v, %v", latest, err)
	}
}

// TestListRuns tests ordering, limits and summary columns.
func TestListRuns(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

	runs := []*model.Run{
		newTestRun(t, base, true),
		newTestRun(t, base.Add(2*time.Hour), false),
		newTestRun(t, base.Add(time.Hour), true),
	}
	for _, r := range runs {
		if err := db.SaveRun(ctx, r); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}
	}

	tests := []struct {
		name    string
		limit   int
		wantIDs []string
	}{
		{name: "all runs newest first", limit: 0, wantIDs: []string{runs[1].ID, runs[2].ID, runs[0].ID}},
		{name: "limited", limit: 2, wantIDs: []string{runs[1].ID, runs[2].ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := db.ListRuns(ctx, tt.limit)
			if err != nil {
				t.Fatalf("failed to list runs: %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("expected %d runs, got %d", len(tt.wantIDs), len(got))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("position %d: expected %s, got %s", i, id, got[i].ID)
				}
			}
		})
	}

	summaries, err := db.ListRuns(ctx, 1)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	s := summaries[0]
	if s.Success || s.Files != 0 || s.Stage != model.StageAuthenticated {
		t.Errorf("unexpected summary %+v", s)
	}
	if !s.StartedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("expected start %v, got %v", base.Add(2*time.Hour), s.StartedAt)
	}
	if got := s.Range.String(); got != "2024-01-05..2024-01-31" {
		t.Errorf("unexpected range %s", got)
	}

	latest, err := db.LatestRun(ctx)
	if err != nil || latest == nil || latest.ID != runs[1].ID {
		t.Errorf("expected latest run %s, got %v (%v)", runs[1].ID, latest, err)
	}

	total, succeeded, err := db.CountRuns(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if total != 3 || succeeded != 2 {
		t.Errorf("expected 3 runs with 2 successes, got %d/%d", total, succeeded)
	}
}

// TestPruneRuns tests that only the newest runs are kept.
func TestPruneRuns(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	var newest string
	for i := range 4 {
		r := newTestRun(t, base.Add(time.Duration(i)*time.Minute), true)
		newest = r.ID
		if err := db.SaveRun(ctx, r); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}
	}

	deleted, err := db.PruneRuns(ctx, 1)
	if err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	if deleted != 3 {
		t.Errorf("expected 3 deleted, got %d", deleted)
	}
	left, err := db.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(left) != 1 || left[0].ID != newest {
		t.Errorf("expected only %s to remain, got %+v", newest, left)
	}
}

// TestParseTimestamp tests parsing of stored timestamp formats.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	want := time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC)
	tests := []struct {
		name  string
		input string
		zero  bool
	}{
		{name: "fixed layout", input: "2024-01-15 10:30:45.000000000"},
		{name: "SQLite default format", input: "2024-01-15 10:30:45"},
		{name: "ISO 8601 with Z", input: "2024-01-15T10:30:45Z"},
		{name: "RFC3339", input: "2024-01-15T10:30:45Z"},
		{name: "empty string", input: "", zero: true},
		{name: "invalid format", input: "not a timestamp", zero: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := parseTimestamp(tt.input)
			if tt.zero {
				if !got.IsZero() {
					t.Errorf("expected zero time, got %v", got)
				}
				return
			}
			if !got.Equal(want) {
				t.Errorf("parseTimestamp(%q) = %v, want %v", tt.input, got, want)
			}
		})
	}
}

// TestFormatTimestamp tests that the fixed layout sorts like time.
func TestFormatTimestamp(t *testing.T) {
	t.Parallel()

	if formatTimestamp(time.Time{}) != "" {
		t.Error("expected empty string for zero time")
	}

	a := time.Date(2024, 1, 1, 0, 0, 5, 0, time.UTC)
	b := a.Add(100 * time.Millisecond)
	if formatTimestamp(a) >= formatTimestamp(b) {
		t.Errorf("expected %s < %s", formatTimestamp(a), formatTimestamp(b))
	}
}
