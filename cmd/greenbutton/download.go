package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/youpower/greenbutton/internal/automation"
	"github.com/youpower/greenbutton/internal/browser"
	"github.com/youpower/greenbutton/internal/config"
	"github.com/youpower/greenbutton/internal/database"
	"github.com/youpower/greenbutton/internal/log"
	"github.com/youpower/greenbutton/internal/model"
	"github.com/youpower/greenbutton/internal/portal"
	"github.com/youpower/greenbutton/internal/report"
)

// ErrRunFailed is returned when a download run ends without success.
// The run's own message has already been printed.
var ErrRunFailed = errors.New("download failed")

// openerFunc builds the browser session opener for a configuration.
type openerFunc func(cfg *config.Config, logger *slog.Logger) browser.Opener

// chromeOpener opens real Chrome sessions.
func chromeOpener(cfg *config.Config, logger *slog.Logger) browser.Opener {
	o := cfg.Opener()
	o.Logger = logger
	return o
}

// NewDownloadCmd creates the download command.
func NewDownloadCmd() *cobra.Command {
	return newDownloadCmd(chromeOpener)
}

func newDownloadCmd(newOpener openerFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download Green Button usage data for a date range",
		Long: `Download signs in to the PG&E portal, opens the energy usage details,
selects the date range and downloads the Green Button export.

The date range defaults to the month up to today. The export file is
saved to the download directory (default: your Downloads folder).

Examples:
  # Last month into ~/Downloads, credentials from PGE_USERNAME/PGE_PASSWORD
  greenbutton download

  # An explicit range into a directory, without a browser window
  greenbutton download --start 2024-01-05 --end 2024-01-31 -d ./usage --headless

  # Password from a secret manager
  pass show pge | greenbutton download -u jane@example.com --password-stdin

  # Use the mobile login flow and save a Markdown report
  greenbutton download --flow mobile --markdown -o report.md`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDownloadCmd(cmd, newOpener)
		},
	}

	f := cmd.Flags()
	f.String("start", "", "First day of the export window (YYYY-MM-DD, default: one month ago)")
	f.String("end", "", "Last day of the export window (YYYY-MM-DD, default: today)")
	f.StringP("dir", "d", "", "Download directory (default: your Downloads folder)")
	f.String("flow", string(config.DefaultFlow), "Login flow: desktop or mobile")

	f.StringP("username", "u", "", "Portal username (default: $"+config.EnvUsername+")")
	f.Bool("password-stdin", false, "Read the portal password from stdin")
	f.String("env-file", config.DefaultEnvFile, "Dotenv file with "+config.EnvUsername+" and "+config.EnvPassword)

	f.Bool("headless", false, "Run the browser without a window")
	f.String("exec-path", "", "Chrome binary (default: automatic lookup)")
	f.String("remote-url", "", "DevTools websocket URL of a running browser")

	f.Duration("element-timeout", config.DefaultElementTimeout, "Wait for each candidate selector")
	f.Duration("page-timeout", config.DefaultPageLoadTimeout, "Wait for a page to finish loading")
	f.Duration("settle", config.DefaultSettleDelay, "Pause after each navigation or click")
	f.Duration("download-timeout", config.DefaultDownloadTimeout, "Wait for the export file to appear")

	f.Bool("screenshots", false, "Save a screenshot into the download directory on failure")
	f.Bool("no-history", false, "Do not record the run in the history database")
	f.String("db-dir", "", "History database directory (default: XDG data directory)")
	f.StringP("config", "c", "", "Configuration file path (default: .greenbutton in current or home directory)")

	f.BoolP("json", "j", false, "Output JSON report (mutually exclusive with --markdown)")
	f.BoolP("markdown", "m", false, "Output Markdown report (mutually exclusive with --json)")
	f.StringP("output", "o", "", "Write report to specified file path (creates directories if needed)")

	return cmd
}

func runDownloadCmd(cmd *cobra.Command, newOpener openerFunc) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.New(cmd.ErrOrStderr(), cfg.Verbose, cfg.LogJSON)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runDownload(ctx, cmd, cfg, newOpener(cfg, logger), logger)
}

// buildConfig layers the configuration: defaults, then the config file,
// then flags, then environment credentials for anything still unset.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	f := cmd.Flags()

	cfg.Verbose = getBoolFlag(cmd, "verbose")
	cfg.LogJSON = getBoolFlag(cmd, "log-json")

	var err error
	if cfg.ConfigFilePath, err = f.GetString("config"); err != nil {
		return nil, err
	}
	if err := loadConfigFile(cfg); err != nil {
		return nil, err
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}

	envFile, err := f.GetString("env-file")
	if err != nil {
		return nil, err
	}
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	passwordStdin, err := f.GetBool("password-stdin")
	if err != nil {
		return nil, err
	}
	if passwordStdin {
		if cfg.Password, err = readPassword(cmd.InOrStdin()); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()

	return cfg, nil
}

// loadConfigFile applies the configuration file. An explicitly given
// file must exist; otherwise a missing file is ignored.
func loadConfigFile(cfg *config.Config) error {
	path := config.FindConfigFile(cfg.ConfigFilePath)
	if path == "" {
		if cfg.ConfigFilePath != "" {
			return fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
		}
		return nil
	}

	file, err := config.LoadConfigFile(path)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	return file.Apply(cfg)
}

// applyFlags copies every flag the user set onto cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()

	for _, d := range []struct {
		name string
		dst  *string
	}{
		{"dir", &cfg.DownloadDir},
		{"username", &cfg.Username},
		{"exec-path", &cfg.ExecPath},
		{"remote-url", &cfg.RemoteURL},
		{"output", &cfg.ReportFile},
		{"db-dir", &cfg.DBDir},
	} {
		if !f.Changed(d.name) {
			continue
		}
		v, err := f.GetString(d.name)
		if err != nil {
			return err
		}
		*d.dst = v
	}

	for _, d := range []struct {
		name string
		dst  *bool
	}{
		{"headless", &cfg.Headless},
		{"screenshots", &cfg.Screenshots},
		{"json", &cfg.JSONReport},
		{"markdown", &cfg.MarkdownReport},
	} {
		if !f.Changed(d.name) {
			continue
		}
		v, err := f.GetBool(d.name)
		if err != nil {
			return err
		}
		*d.dst = v
	}

	for _, d := range []struct {
		name string
		dst  *time.Duration
	}{
		{"element-timeout", &cfg.ElementTimeout},
		{"page-timeout", &cfg.PageLoadTimeout},
		{"settle", &cfg.SettleDelay},
		{"download-timeout", &cfg.DownloadTimeout},
	} {
		if !f.Changed(d.name) {
			continue
		}
		v, err := f.GetDuration(d.name)
		if err != nil {
			return err
		}
		*d.dst = v
	}

	if f.Changed("flow") {
		s, err := f.GetString("flow")
		if err != nil {
			return err
		}
		flow, err := portal.ParseFlow(s)
		if err != nil {
			return err
		}
		cfg.Flow = flow
	}

	for _, d := range []struct {
		name string
		dst  *time.Time
	}{
		{"start", &cfg.StartDate},
		{"end", &cfg.EndDate},
	} {
		s, err := f.GetString(d.name)
		if err != nil {
			return err
		}
		if s == "" {
			continue
		}
		t, err := model.ParseDate(s)
		if err != nil {
			return fmt.Errorf("--%s: %w", d.name, err)
		}
		*d.dst = t
	}

	noHistory, err := f.GetBool("no-history")
	if err != nil {
		return err
	}
	cfg.SaveToDB = !noHistory
	return nil
}

// readPassword reads the first line of r.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// getBoolFlag retrieves a flag from the command or the root's persistent flags.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// runDownload executes one run and reports it.
func runDownload(ctx context.Context, cmd *cobra.Command, cfg *config.Config, opener browser.Opener, logger *slog.Logger) error {
	p, err := cfg.Portal()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	runner := automation.NewRunner(opener, p, cfg.Timeouts(),
		automation.WithLogger(logger),
		automation.WithScreenshots(cfg.Screenshots),
	)

	logger.Info("starting download",
		"username", cfg.Username,
		"flow", cfg.Flow,
		"range", cfg.DateRange().String(),
		"dir", cfg.DownloadDir,
	)

	h, err := runner.Start(ctx, automation.Request{
		Credentials: cfg.Credentials(),
		Range:       cfg.DateRange(),
		DownloadDir: cfg.DownloadDir,
	})
	if err != nil {
		return err
	}

	var run *model.Run
	g := new(errgroup.Group)
	g.Go(func() error {
		return renderProgress(cmd.ErrOrStderr(), h.Events())
	})
	g.Go(func() error {
		run = h.Wait()
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if cfg.SaveToDB {
		if err := saveRun(ctx, cfg.DBDir, run, logger); err != nil {
			logger.Error("failed to save run", "error", err)
		}
	}
	if err := outputReport(cmd, cfg, run); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if !run.Success {
		return ErrRunFailed
	}
	return nil
}

// renderProgress prints progress events until the channel is closed.
func renderProgress(w io.Writer, events <-chan model.Event) error {
	const width = 20
	for ev := range events {
		switch ev.Kind {
		case model.EventProgress:
			filled := ev.Percent * width / 100
			if _, err := fmt.Fprintf(w, "[%s%s] %3d%%\n",
				strings.Repeat("#", filled), strings.Repeat(".", width-filled), ev.Percent); err != nil {
				return err
			}
		case model.EventResult:
			if _, err := fmt.Fprintln(w, ev.Message); err != nil {
				return err
			}
		}
	}
	return nil
}

// saveRun records the run in the history database.
func saveRun(ctx context.Context, dbDir string, run *model.Run, logger *slog.Logger) error {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// The run is over; record it even if ctx was cancelled.
	if err := db.SaveRun(context.WithoutCancel(ctx), run); err != nil {
		return err
	}
	logger.Info("run saved to history", "run", run.ID, "db", db.Path())
	return nil
}

// outputReport writes the run report in the requested format.
func outputReport(cmd *cobra.Command, cfg *config.Config, run *model.Run) error {
	output := cmd.OutOrStdout()
	if cfg.ReportFile != "" {
		f, err := createReportFile(cfg.ReportFile)
		if err != nil {
			return err
		}
		defer f.Close()
		output = f
	}

	_, err := newReportWriter(output, cfg.JSONReport, cfg.MarkdownReport, cfg.Verbose).Write(run)
	return err
}

// createReportFile creates path and its parent directories. The file is
// readable by the owner only.
func createReportFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided report path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

func newReportWriter(w io.Writer, jsonFormat, markdownFormat, verbose bool) report.Writer {
	switch {
	case jsonFormat:
		return report.NewJSONWriter(w, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case markdownFormat:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w, report.WithVerbose(verbose))
	}
}
