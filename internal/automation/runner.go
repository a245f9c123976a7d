package automation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/youpower/greenbutton/internal/browser"
	"github.com/youpower/greenbutton/internal/model"
	"github.com/youpower/greenbutton/internal/portal"
)

// screenshotTimeout bounds capturing a failure screenshot.
const screenshotTimeout = 10 * time.Second

// Request is the input of one run.
type Request struct {
	// Credentials are used for this run only.
	Credentials model.Credentials

	// Range is the export window.
	Range model.DateRange

	// DownloadDir is where the export file is saved.
	DownloadDir string
}

// Validate checks the request before any browser is started.
func (r Request) Validate() error {
	if err := r.Credentials.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.DownloadDir) == "" {
		return ErrMissingDownloadDir
	}
	return r.Range.Validate()
}

// Runner executes download runs, one at a time.
type Runner struct {
	opener      browser.Opener
	portal      *portal.Portal
	timeouts    Timeouts
	logger      *slog.Logger
	screenshots bool

	auth *Authenticator
	seq  *Sequencer

	running atomic.Bool
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger. If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithScreenshots saves a full-page screenshot into the download
// directory when login or export fails.
func WithScreenshots(enabled bool) RunnerOption {
	return func(r *Runner) {
		r.screenshots = enabled
	}
}

// NewRunner creates a Runner that opens sessions with opener.
func NewRunner(opener browser.Opener, p *portal.Portal, t Timeouts, opts ...RunnerOption) *Runner {
	r := &Runner{opener: opener, portal: p, timeouts: t}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.auth = NewAuthenticator(p, t, r.logger)
	r.seq = NewSequencer(p, t, r.logger)
	return r
}

// Run executes one run synchronously. emit receives progress events in
// order followed by exactly one result event. The returned run record
// holds the outcome; the error is non-nil only when the run could not
// start (invalid request or another run in progress), in which case no
// events are emitted.
func (r *Runner) Run(ctx context.Context, req Request, emit func(model.Event)) (*model.Run, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !r.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer r.running.Store(false)

	return r.run(ctx, req, emit), nil
}

// Handle is a run started in the background.
type Handle struct {
	events chan model.Event
	done   chan struct{}
	run    *model.Run
}

// Events delivers the run's events. It is closed after the result event.
func (h *Handle) Events() <-chan model.Event {
	return h.events
}

// Wait blocks until the run finished and returns its record.
func (h *Handle) Wait() *model.Run {
	<-h.done
	return h.run
}

// Start executes one run on a new goroutine. The request is validated
// and the run slot taken before Start returns.
func (r *Runner) Start(ctx context.Context, req Request) (*Handle, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !r.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}

	h := &Handle{
		// Room for every event, so the worker never waits on the reader.
		events: make(chan model.Event, model.TotalMilestones+1),
		done:   make(chan struct{}),
	}

	go func() {
		defer close(h.done)
		defer close(h.events)
		defer r.running.Store(false)

		h.run = r.run(ctx, req, func(ev model.Event) { h.events <- ev })
	}()

	return h, nil
}

// Running reports whether a run is in progress.
func (r *Runner) Running() bool {
	return r.running.Load()
}

func (r *Runner) run(ctx context.Context, req Request, emit func(model.Event)) *model.Run {
	if emit == nil {
		emit = func(model.Event) {}
	}

	run := model.NewRun(string(r.portal.Flow), req.DownloadDir, req.Range)
	logger := r.logger.With("run", run.ID)
	logger.Info("run started", "range", run.Range.String(), "flow", run.Flow)

	success, message := r.execute(ctx, run, req, emit, logger)
	run.Finish(success, message)

	logger.Info("run finished",
		"success", success,
		"stage", run.Stage,
		"duration", run.Duration(),
	)
	emit(model.ResultEvent(success, message))
	return run
}

// execute performs the run and always closes the session it opened.
func (r *Runner) execute(ctx context.Context, run *model.Run, req Request, emit func(model.Event), logger *slog.Logger) (success bool, message string) {
	var drv browser.Driver

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("run panicked", "panic", rec)
			run.Fail(fmt.Errorf("%w: %v", ErrUnexpected, rec))
			success, message = false, ErrorMessage(rec)
		}
		if drv != nil {
			if err := drv.Close(); err != nil {
				logger.Warn("failed to close browser session", "error", err)
			}
			run.Enter(model.StageClosed)
		}
	}()

	var err error
	drv, err = r.opener.Open(ctx, req.DownloadDir)
	if err != nil {
		logger.Error("failed to open browser session", "error", err)
		run.Fail(err)
		return false, ErrorMessage(err)
	}
	run.DownloadDir = drv.DownloadDir()
	run.Enter(model.StageSessionOpen)

	start := time.Now()
	err = r.auth.Login(ctx, drv, req.Credentials)
	step := model.StepResult{Name: StepLogin, Status: model.StepOK, Duration: time.Since(start)}
	if err != nil {
		step.Status, step.Detail = model.StepFailed, err.Error()
		run.AddStep(step)
		run.Fail(err)
		logger.Error("login failed", "error", err)
		r.capture(ctx, drv, run, logger)
		return false, MessageLoginFailed
	}
	run.AddStep(step)
	run.Enter(model.StageAuthenticated)
	emit(model.ProgressEvent(run.Progress.Tick()))

	if err := r.seq.Export(ctx, drv, run, func(pct int) { emit(model.ProgressEvent(pct)) }); err != nil {
		logger.Error("export failed", "error", err)
		r.capture(ctx, drv, run, logger)
		return false, MessageExportFailed
	}

	return true, MessageSuccess
}

// capture saves a screenshot of the current page when enabled.
func (r *Runner) capture(ctx context.Context, drv browser.Driver, run *model.Run, logger *slog.Logger) {
	if !r.screenshots || drv == nil {
		return
	}

	shotCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), screenshotTimeout)
	defer cancel()

	data, err := drv.Screenshot(shotCtx)
	if err != nil {
		logger.Warn("failed to capture screenshot", "error", err)
		return
	}

	name := fmt.Sprintf("greenbutton-%s-%s.png", run.Stage, run.ID)
	path := filepath.Join(drv.DownloadDir(), name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		logger.Warn("failed to save screenshot", "path", path, "error", err)
		return
	}
	run.Screenshots = append(run.Screenshots, path)
	logger.Info("saved failure screenshot", "path", path)
}
