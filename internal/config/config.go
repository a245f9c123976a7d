package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/youpower/greenbutton/internal/automation"
	"github.com/youpower/greenbutton/internal/browser"
	"github.com/youpower/greenbutton/internal/model"
	"github.com/youpower/greenbutton/internal/portal"
	"github.com/youpower/greenbutton/internal/selector"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "greenbutton"

	// DefaultElementTimeout bounds the wait for each candidate locator.
	DefaultElementTimeout = 5 * time.Second

	// DefaultIndicatorTimeout bounds the wait for each signed-in
	// indicator after the login form is submitted.
	DefaultIndicatorTimeout = 5 * time.Second

	// DefaultPageLoadTimeout bounds the wait for a page to finish loading.
	DefaultPageLoadTimeout = 30 * time.Second

	// DefaultSettleDelay is the pause after each navigation or click.
	// The portal renders most content with scripts after the load event.
	DefaultSettleDelay = 2 * time.Second

	// DefaultDownloadTimeout bounds the wait for the export file.
	DefaultDownloadTimeout = 30 * time.Second

	// DefaultFlow is the login flow used when none is configured.
	DefaultFlow = portal.FlowDesktop
)

// Config holds all configuration options for one invocation.
type Config struct {
	// Username and Password are the portal credentials. They are kept in
	// memory only.
	Username string
	Password string

	// StartDate and EndDate bound the export window.
	StartDate time.Time
	EndDate   time.Time

	// DownloadDir is where the export file is saved.
	DownloadDir string

	// Flow selects the desktop or mobile login flow.
	Flow portal.Flow

	// LoginURL, DashboardURL, UsageURL and DetailsURL override the
	// portal's URLs when set.
	LoginURL     string
	DashboardURL string
	UsageURL     string
	DetailsURL   string

	// Selectors are extra locators per element, tried before the
	// built-in ones.
	Selectors map[portal.Element][]Locator

	// Headless runs the browser without a window.
	Headless bool

	// ExecPath is the browser binary. Empty means automatic lookup.
	ExecPath string

	// RemoteURL connects to a running browser's DevTools websocket
	// instead of launching one.
	RemoteURL string

	// UserAgent overrides the browser's user agent.
	UserAgent string

	// WindowWidth and WindowHeight set the browser window size.
	WindowWidth  int
	WindowHeight int

	// ElementTimeout, IndicatorTimeout, PageLoadTimeout, SettleDelay and
	// DownloadTimeout bound the automation's waits.
	ElementTimeout   time.Duration
	IndicatorTimeout time.Duration
	PageLoadTimeout  time.Duration
	SettleDelay      time.Duration
	DownloadTimeout  time.Duration

	// Screenshots saves a page screenshot into DownloadDir on failure.
	Screenshots bool

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON writes logs as JSON instead of text.
	LogJSON bool

	// ConfigFilePath is the YAML file to load. Empty means search for
	// .greenbutton in the current and home directories.
	ConfigFilePath string

	// JSONReport and MarkdownReport select the report format. Both false
	// means the human-readable format.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// DBDir is the directory of the run history database.
	DBDir string

	// SaveToDB records the run in the history database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values. The export window
// defaults to the month up to today and downloads go to the user's
// download directory.
func NewConfig() *Config {
	r := model.DefaultDateRange(time.Now())
	return &Config{
		StartDate:        r.Start,
		EndDate:          r.End,
		DownloadDir:      DefaultDownloadDir(),
		Flow:             DefaultFlow,
		Selectors:        make(map[portal.Element][]Locator),
		WindowWidth:      browser.DefaultWindowWidth,
		WindowHeight:     browser.DefaultWindowHeight,
		ElementTimeout:   DefaultElementTimeout,
		IndicatorTimeout: DefaultIndicatorTimeout,
		PageLoadTimeout:  DefaultPageLoadTimeout,
		SettleDelay:      DefaultSettleDelay,
		DownloadTimeout:  DefaultDownloadTimeout,
		DBDir:            XDGDataDir(),
		SaveToDB:         true,
	}
}

// DefaultDownloadDir returns the user's download directory.
func DefaultDownloadDir() string {
	if xdg.UserDirs.Download != "" {
		return xdg.UserDirs.Download
	}
	return filepath.Join(xdg.Home, "Downloads")
}

// XDGDataDir returns the XDG data directory for greenbutton.
// On Linux: ~/.local/share/greenbutton
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for greenbutton.
// On Linux: ~/.config/greenbutton
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if c.Username == "" {
		return ErrNoUsername
	}
	if c.Password == "" {
		return ErrNoPassword
	}
	if c.DownloadDir == "" {
		return ErrNoDownloadDir
	}
	if c.EndDate.Before(c.StartDate) {
		return ErrInvalidDateRange
	}
	if _, err := portal.ParseFlow(string(c.Flow)); err != nil {
		return err
	}

	for _, d := range []time.Duration{c.ElementTimeout, c.IndicatorTimeout, c.PageLoadTimeout, c.DownloadTimeout} {
		if d <= 0 {
			return ErrInvalidTimeout
		}
	}
	if c.SettleDelay < 0 {
		return ErrInvalidSettleDelay
	}

	if c.WindowWidth < 0 || c.WindowHeight < 0 || (c.WindowWidth == 0) != (c.WindowHeight == 0) {
		return ErrInvalidWindowSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	for el, locs := range c.Selectors {
		for _, l := range locs {
			if _, err := l.Locator(); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrInvalidSelector, el, err)
			}
		}
	}
	return nil
}

// Credentials returns the portal credentials.
func (c *Config) Credentials() model.Credentials {
	return model.Credentials{Username: c.Username, Password: c.Password}
}

// DateRange returns the export window.
func (c *Config) DateRange() model.DateRange {
	return model.DateRange{Start: c.StartDate, End: c.EndDate}
}

// Timeouts returns the automation timeouts.
func (c *Config) Timeouts() automation.Timeouts {
	return automation.Timeouts{
		Element:   c.ElementTimeout,
		Indicator: c.IndicatorTimeout,
		PageLoad:  c.PageLoadTimeout,
		Settle:    c.SettleDelay,
		Download:  c.DownloadTimeout,
	}
}

// Portal returns the portal definition with URL and selector overrides
// applied.
func (c *Config) Portal() (*portal.Portal, error) {
	flow, err := portal.ParseFlow(string(c.Flow))
	if err != nil {
		return nil, err
	}

	p := portal.New(flow)
	for _, o := range []struct {
		dst *string
		val string
	}{
		{&p.LoginURL, c.LoginURL},
		{&p.DashboardURL, c.DashboardURL},
		{&p.UsageURL, c.UsageURL},
		{&p.DetailsURL, c.DetailsURL},
	} {
		if o.val != "" {
			*o.dst = o.val
		}
	}

	for el, locs := range c.Selectors {
		converted := make([]selector.Locator, 0, len(locs))
		for _, l := range locs {
			loc, err := l.Locator()
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrInvalidSelector, el, err)
			}
			converted = append(converted, loc)
		}
		p.Override(el, converted...)
	}
	return p, nil
}

// Opener returns the Chrome session opener for this configuration.
func (c *Config) Opener() *browser.ChromeOpener {
	return &browser.ChromeOpener{
		Headless:     c.Headless,
		ExecPath:     c.ExecPath,
		RemoteURL:    c.RemoteURL,
		UserAgent:    c.UserAgent,
		WindowWidth:  c.WindowWidth,
		WindowHeight: c.WindowHeight,
	}
}
