package main

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/youpower/greenbutton/internal/config"
	"github.com/youpower/greenbutton/internal/report"
)

// TestNewHistoryCmd tests the history command flags.
func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()
	for _, name := range []string{"limit", "id", "latest", "keep", "db-dir", "json", "markdown"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected %s flag", name)
		}
	}
	if got := cmd.Flags().Lookup("keep").DefValue; got != "-1" {
		t.Errorf("expected keep default -1, got %s", got)
	}
}

// TestRunHistoryCmd tests history without recorded runs.
func TestRunHistoryCmd(t *testing.T) {
	t.Parallel()

	t.Run("empty database directory", func(t *testing.T) {
		t.Parallel()

		res := execute(NewHistoryCmd(), "", "--db-dir", t.TempDir())
		if res.err != nil {
			t.Fatalf("unexpected error: %v", res.err)
		}
		if !strings.Contains(res.stdout, "No runs recorded") {
			t.Errorf("expected empty history, got %q", res.stdout)
		}
	})

	t.Run("empty JSON history", func(t *testing.T) {
		t.Parallel()

		res := execute(NewHistoryCmd(), "", "--db-dir", t.TempDir(), "--json")
		if res.err != nil {
			t.Fatalf("unexpected error: %v", res.err)
		}
		var h report.JSONHistory
		if err := json.Unmarshal([]byte(res.stdout), &h); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if h.Count != 0 || h.Runs == nil {
			t.Errorf("expected empty runs array, got %+v", h)
		}
	})

	t.Run("conflicting formats", func(t *testing.T) {
		t.Parallel()

		res := execute(NewHistoryCmd(), "", "--db-dir", t.TempDir(), "--json", "--markdown")
		if !errors.Is(res.err, config.ErrConflictingReportFormats) {
			t.Errorf("expected ErrConflictingReportFormats, got %v", res.err)
		}
	})

	t.Run("run not found", func(t *testing.T) {
		t.Parallel()

		for _, args := range [][]string{{"--id", "missing"}, {"--latest"}} {
			res := execute(NewHistoryCmd(), "", append([]string{"--db-dir", t.TempDir()}, args...)...)
			if !errors.Is(res.err, ErrRunNotFound) {
				t.Errorf("%v: expected ErrRunNotFound, got %v", args, res.err)
			}
		}
	})
}

// TestHistoryAfterRuns tests listing, lookup and pruning of recorded runs.
func TestHistoryAfterRuns(t *testing.T) {
	t.Parallel()

	dbDir := t.TempDir()
	for range 2 {
		args := downloadArgs(t, "--config", writeConfigFile(t, ""), "--db-dir", dbDir)
		if res := execute(newDownloadCmd(siteOpener(newSite())), "secret\n", args...); res.err != nil {
			t.Fatalf("download failed: %v", res.err)
		}
	}

	list := execute(NewHistoryCmd(), "", "--db-dir", dbDir, "--json")
	if list.err != nil {
		t.Fatalf("unexpected error: %v", list.err)
	}
	var h report.JSONHistory
	if err := json.Unmarshal([]byte(list.stdout), &h); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if h.Count != 2 {
		t.Fatalf("expected 2 runs, got %d", h.Count)
	}

	byID := execute(NewHistoryCmd(), "", "--db-dir", dbDir, "--id", h.Runs[1].ID, "--json")
	if byID.err != nil {
		t.Fatalf("unexpected error: %v", byID.err)
	}
	var rep report.JSONReport
	if err := json.Unmarshal([]byte(byID.stdout), &rep); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if rep.Run.ID != h.Runs[1].ID {
		t.Errorf("expected run %s, got %s", h.Runs[1].ID, rep.Run.ID)
	}

	newest := h.Runs[0].ID
	pruned := execute(NewHistoryCmd(), "", "--db-dir", dbDir, "--keep", "1", "--json")
	if pruned.err != nil {
		t.Fatalf("unexpected error: %v", pruned.err)
	}
	if !strings.Contains(pruned.stderr, "Deleted 1 run(s)") {
		t.Errorf("unexpected prune output %q", pruned.stderr)
	}
	if err := json.Unmarshal([]byte(pruned.stdout), &h); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if h.Count != 1 || h.Runs[0].ID != newest {
		t.Errorf("expected only %s after pruning, got %+v", newest, h.Runs)
	}
}
