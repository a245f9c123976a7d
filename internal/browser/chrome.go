package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"

	"github.com/youpower/greenbutton/internal/selector"
)

// Default window geometry for new sessions.
const (
	DefaultWindowWidth  = 1920
	DefaultWindowHeight = 1080
)

// loadPollInterval is how often WaitLoad checks document.readyState.
const loadPollInterval = 200 * time.Millisecond

// ChromeOpener starts Chrome sessions with chromedp.
type ChromeOpener struct {
	// Headless runs Chrome without a window.
	Headless bool

	// ExecPath is the Chrome binary. Empty means chromedp's lookup.
	ExecPath string

	// RemoteURL connects to an already running browser's DevTools
	// websocket instead of launching one.
	RemoteURL string

	// UserAgent overrides the browser's user agent when set.
	UserAgent string

	// WindowWidth and WindowHeight set the window size. Zero means the
	// defaults.
	WindowWidth  int
	WindowHeight int

	// Logger receives browser diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

// Open starts a session whose downloads land in downloadDir without a
// prompt. The directory is normalized and created first.
func (o *ChromeOpener) Open(ctx context.Context, downloadDir string) (Driver, error) {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dir, err := NormalizeDownloadDir(downloadDir)
	if err != nil {
		return nil, err
	}

	// The session outlives the caller's context; Close releases it.
	base := context.WithoutCancel(ctx)

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if o.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(base, o.RemoteURL)
	} else {
		allocCtx, allocCancel = chromedp.NewExecAllocator(base, o.allocatorOptions()...)
	}

	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...), "component", "chromedp")
		}),
		chromedp.WithErrorf(func(format string, args ...any) {
			logger.Warn(fmt.Sprintf(format, args...), "component", "chromedp")
		}),
	)

	d := &chromeDriver{
		ctx:         browserCtx,
		cancel:      browserCancel,
		allocCancel: allocCancel,
		downloadDir: dir,
		logger:      logger,
	}

	chromedp.ListenTarget(browserCtx, d.onEvent)

	start := chromedp.Tasks{
		cdpbrowser.SetDownloadBehavior(cdpbrowser.SetDownloadBehaviorBehaviorAllow).
			WithDownloadPath(dir).
			WithEventsEnabled(true),
	}
	if err := chromedp.Run(browserCtx, start); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("%w: %w", ErrDriverInit, err)
	}

	logger.Info("browser session started",
		"remote", o.RemoteURL != "",
		"headless", o.Headless,
		"download_dir", dir,
	)
	return d, nil
}

func (o *ChromeOpener) allocatorOptions() []chromedp.ExecAllocatorOption {
	width, height := o.WindowWidth, o.WindowHeight
	if width <= 0 || height <= 0 {
		width, height = DefaultWindowWidth, DefaultWindowHeight
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.DisableGPU,
		chromedp.WindowSize(width, height),
		chromedp.Flag("headless", o.Headless),
	)
	if o.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(o.ExecPath))
	}
	if o.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(o.UserAgent))
	}
	return opts
}

// chromeDriver implements Driver for one chromedp browser context.
type chromeDriver struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	downloadDir string
	logger      *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// run executes actions in the browser, bounded by the caller's ctx.
func (d *chromeDriver) run(ctx context.Context, actions ...chromedp.Action) error {
	if d.ctx.Err() != nil {
		return ErrSessionClosed
	}

	runCtx, cancel := context.WithCancel(d.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func (d *chromeDriver) Navigate(ctx context.Context, url string) error {
	if err := d.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (d *chromeDriver) CurrentURL(ctx context.Context) (string, error) {
	var u string
	if err := d.run(ctx, chromedp.Location(&u)); err != nil {
		return "", fmt.Errorf("failed to read current URL: %w", err)
	}
	return u, nil
}

func (d *chromeDriver) WaitFor(ctx context.Context, loc selector.Locator, cond selector.Condition) error {
	sel, opt, err := query(loc)
	if err != nil {
		return err
	}

	var action chromedp.Action
	switch cond {
	case selector.Clickable:
		action = chromedp.Tasks{
			chromedp.WaitVisible(sel, opt),
			chromedp.WaitEnabled(sel, opt),
		}
	default:
		action = chromedp.WaitReady(sel, opt)
	}
	return d.run(ctx, action)
}

func (d *chromeDriver) Click(ctx context.Context, loc selector.Locator) error {
	sel, opt, err := query(loc)
	if err != nil {
		return err
	}
	if err := d.run(ctx, chromedp.Click(sel, opt, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("failed to click %s: %w", loc, err)
	}
	return nil
}

func (d *chromeDriver) Type(ctx context.Context, loc selector.Locator, text string) error {
	sel, opt, err := query(loc)
	if err != nil {
		return err
	}
	err = d.run(ctx,
		chromedp.Clear(sel, opt),
		chromedp.SendKeys(sel, text, opt),
	)
	if err != nil {
		// The text may be a password; never include it.
		return fmt.Errorf("failed to type into %s: %w", loc, err)
	}
	return nil
}

func (d *chromeDriver) ScrollToBottom(ctx context.Context) error {
	return d.run(ctx, chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil))
}

func (d *chromeDriver) WaitLoad(ctx context.Context) error {
	var complete bool
	return d.run(ctx, chromedp.Poll(`document.readyState === "complete"`, &complete,
		chromedp.WithPollingInterval(loadPollInterval),
	))
}

func (d *chromeDriver) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := d.run(ctx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

func (d *chromeDriver) DownloadDir() string {
	return d.downloadDir
}

// Close asks the browser to shut down gracefully and then releases the
// allocator. Only the first call has any effect.
func (d *chromeDriver) Close() error {
	d.closeOnce.Do(func() {
		if d.ctx.Err() == nil {
			d.closeErr = chromedp.Cancel(d.ctx)
		}
		d.cancel()
		d.allocCancel()
		d.logger.Debug("browser session closed")
	})
	return d.closeErr
}

func (d *chromeDriver) onEvent(ev any) {
	switch ev := ev.(type) {
	case *cdpbrowser.EventDownloadWillBegin:
		d.logger.Info("download started", "file", ev.SuggestedFilename)
	case *cdpbrowser.EventDownloadProgress:
		switch ev.State {
		case cdpbrowser.DownloadProgressStateCompleted:
			d.logger.Info("download completed", "bytes", ev.ReceivedBytes)
		case cdpbrowser.DownloadProgressStateCanceled:
			d.logger.Warn("download canceled")
		}
	}
}

// query translates a Locator into a chromedp selector and query option.
func query(loc selector.Locator) (string, chromedp.QueryOption, error) {
	if err := loc.Validate(); err != nil {
		return "", nil, err
	}

	switch loc.By {
	case selector.ByID:
		return "#" + loc.Value, chromedp.ByID, nil
	case selector.ByName:
		return fmt.Sprintf(`[name=%q]`, loc.Value), chromedp.ByQuery, nil
	case selector.ByCSS:
		return loc.Value, chromedp.ByQuery, nil
	default:
		return loc.Value, chromedp.BySearch, nil
	}
}
