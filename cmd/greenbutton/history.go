package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/youpower/greenbutton/internal/config"
	"github.com/youpower/greenbutton/internal/database"
	"github.com/youpower/greenbutton/internal/model"
)

// ErrRunNotFound is returned when --id names no recorded run.
var ErrRunNotFound = errors.New("run not found")

// DefaultHistoryLimit is the number of runs listed by default.
const DefaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previous download runs",
		Long: `History lists recorded download runs, newest first.

Runs are stored in a SQLite database in the XDG data directory
(~/.local/share/greenbutton on Linux). Credentials are never stored.

Examples:
  # The last 20 runs
  greenbutton history

  # Full report of the most recent run
  greenbutton history --latest

  # Full report of one run as Markdown
  greenbutton history --id 1b4e28ba-2fa1-11d2-883f-0016d3cca427 --markdown

  # Keep only the 50 newest runs
  greenbutton history --keep 50`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", DefaultHistoryLimit, "Number of runs to list (0 lists all)")
	cmd.Flags().String("id", "", "Show the full report of one run")
	cmd.Flags().Bool("latest", false, "Show the full report of the most recent run")
	cmd.Flags().Int("keep", -1, "Delete all but the newest N runs")
	cmd.Flags().String("db-dir", "", "History database directory (default: XDG data directory)")
	cmd.Flags().BoolP("json", "j", false, "Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false, "Output Markdown (mutually exclusive with --json)")

	return cmd
}

type historyOptions struct {
	limit    int
	id       string
	latest   bool
	keep     int
	dbDir    string
	json     bool
	markdown bool
}

func historyOptionsFrom(cmd *cobra.Command) (historyOptions, error) {
	var (
		o   historyOptions
		err error
	)
	f := cmd.Flags()
	if o.limit, err = f.GetInt("limit"); err != nil {
		return o, err
	}
	if o.id, err = f.GetString("id"); err != nil {
		return o, err
	}
	if o.latest, err = f.GetBool("latest"); err != nil {
		return o, err
	}
	if o.keep, err = f.GetInt("keep"); err != nil {
		return o, err
	}
	if o.dbDir, err = f.GetString("db-dir"); err != nil {
		return o, err
	}
	if o.json, err = f.GetBool("json"); err != nil {
		return o, err
	}
	if o.markdown, err = f.GetBool("markdown"); err != nil {
		return o, err
	}

	if o.json && o.markdown {
		return o, config.ErrConflictingReportFormats
	}
	if o.dbDir == "" {
		o.dbDir = config.XDGDataDir()
	}
	return o, nil
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	o, err := historyOptionsFrom(cmd)
	if err != nil {
		return err
	}
	w := newReportWriter(cmd.OutOrStdout(), o.json, o.markdown, getBoolFlag(cmd, "verbose"))

	// Nothing recorded yet; don't create an empty database just to read it.
	if _, err := os.Stat(filepath.Join(o.dbDir, database.FileName)); os.IsNotExist(err) {
		if o.id != "" || o.latest {
			return ErrRunNotFound
		}
		_, err := w.WriteHistory(nil)
		return err
	}

	db, err := database.Open(o.dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	if o.keep >= 0 {
		deleted, err := db.PruneRuns(ctx, o.keep)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Deleted %d run(s)\n", deleted)
	}

	if o.id != "" || o.latest {
		run, err := lookupRun(ctx, db, o)
		if err != nil {
			return err
		}
		_, err = w.Write(run)
		return err
	}

	runs, err := db.ListRuns(ctx, o.limit)
	if err != nil {
		return err
	}
	_, err = w.WriteHistory(runs)
	return err
}

func lookupRun(ctx context.Context, db *database.RunDB, o historyOptions) (*model.Run, error) {
	var (
		run *model.Run
		err error
	)
	if o.id != "" {
		run, err = db.GetRun(ctx, o.id)
	} else {
		run, err = db.LatestRun(ctx)
	}
	if err != nil {
		return nil, err
	}
	if run == nil {
		if o.id != "" {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, o.id)
		}
		return nil, ErrRunNotFound
	}
	return run, nil
}
