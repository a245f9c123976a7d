package config

import (
	"fmt"
	"time"

	"github.com/youpower/greenbutton/internal/portal"
	"github.com/youpower/greenbutton/internal/selector"
)

// Locator is a selector override as written in the configuration file.
type Locator struct {
	// By is "id", "name", "css" or "xpath".
	By string `yaml:"by"`

	// Value is the id, name, CSS selector or XPath expression.
	Value string `yaml:"value"`
}

// Locator converts l to a validated selector.Locator.
func (l Locator) Locator() (selector.Locator, error) {
	by, err := selector.ParseStrategy(l.By)
	if err != nil {
		return selector.Locator{}, err
	}
	loc := selector.Locator{By: by, Value: l.Value}
	if err := loc.Validate(); err != nil {
		return selector.Locator{}, err
	}
	return loc, nil
}

// PortalSection overrides portal settings.
type PortalSection struct {
	// Flow is "desktop" or "mobile".
	Flow string `yaml:"flow,omitempty"`

	// LoginURL, DashboardURL, UsageURL and DetailsURL override the
	// built-in URLs.
	LoginURL     string `yaml:"loginURL,omitempty"`
	DashboardURL string `yaml:"dashboardURL,omitempty"`
	UsageURL     string `yaml:"usageURL,omitempty"`
	DetailsURL   string `yaml:"detailsURL,omitempty"`
}

// BrowserSection overrides browser settings.
type BrowserSection struct {
	// Headless runs the browser without a window. Nil keeps the default.
	Headless *bool `yaml:"headless,omitempty"`

	ExecPath     string `yaml:"execPath,omitempty"`
	RemoteURL    string `yaml:"remoteURL,omitempty"`
	UserAgent    string `yaml:"userAgent,omitempty"`
	WindowWidth  int    `yaml:"windowWidth,omitempty"`
	WindowHeight int    `yaml:"windowHeight,omitempty"`
}

// TimeoutSection overrides wait durations, written like "5s" or "1m".
// Zero keeps the default.
type TimeoutSection struct {
	Element   time.Duration `yaml:"element,omitempty"`
	Indicator time.Duration `yaml:"indicator,omitempty"`
	PageLoad  time.Duration `yaml:"pageLoad,omitempty"`
	Settle    time.Duration `yaml:"settle,omitempty"`
	Download  time.Duration `yaml:"download,omitempty"`
}

// File represents the structure of the .greenbutton configuration file.
type File struct {
	// Portal overrides the login flow and URLs.
	Portal PortalSection `yaml:"portal,omitempty"`

	// Browser overrides how the browser is started.
	Browser BrowserSection `yaml:"browser,omitempty"`

	// Timeouts overrides wait durations.
	Timeouts TimeoutSection `yaml:"timeouts,omitempty"`

	// Selectors maps an element name (e.g. "login_button") to locators
	// tried before the built-in ones.
	Selectors map[string][]Locator `yaml:"selectors,omitempty"`

	// Screenshots saves a screenshot on failure. Nil keeps the default.
	Screenshots *bool `yaml:"screenshots,omitempty"`

	// DownloadDir overrides the default download directory.
	DownloadDir string `yaml:"downloadDir,omitempty"`
}

// Validate checks flow names, element names and locators.
func (f *File) Validate() error {
	if _, err := portal.ParseFlow(f.Portal.Flow); err != nil {
		return err
	}
	for name, locs := range f.Selectors {
		if _, err := portal.ParseElement(name); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSelector, err)
		}
		for _, l := range locs {
			if _, err := l.Locator(); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrInvalidSelector, name, err)
			}
		}
	}
	return nil
}

// Apply copies every value set in the file onto c. Call it before
// applying command-line flags so that flags win.
func (f *File) Apply(c *Config) error {
	if err := f.Validate(); err != nil {
		return err
	}

	if f.Portal.Flow != "" {
		flow, _ := portal.ParseFlow(f.Portal.Flow)
		c.Flow = flow
	}
	setString(&c.LoginURL, f.Portal.LoginURL)
	setString(&c.DashboardURL, f.Portal.DashboardURL)
	setString(&c.UsageURL, f.Portal.UsageURL)
	setString(&c.DetailsURL, f.Portal.DetailsURL)

	if f.Browser.Headless != nil {
		c.Headless = *f.Browser.Headless
	}
	setString(&c.ExecPath, f.Browser.ExecPath)
	setString(&c.RemoteURL, f.Browser.RemoteURL)
	setString(&c.UserAgent, f.Browser.UserAgent)
	if f.Browser.WindowWidth > 0 && f.Browser.WindowHeight > 0 {
		c.WindowWidth = f.Browser.WindowWidth
		c.WindowHeight = f.Browser.WindowHeight
	}

	setDuration(&c.ElementTimeout, f.Timeouts.Element)
	setDuration(&c.IndicatorTimeout, f.Timeouts.Indicator)
	setDuration(&c.PageLoadTimeout, f.Timeouts.PageLoad)
	setDuration(&c.SettleDelay, f.Timeouts.Settle)
	setDuration(&c.DownloadTimeout, f.Timeouts.Download)

	if f.Screenshots != nil {
		c.Screenshots = *f.Screenshots
	}
	setString(&c.DownloadDir, f.DownloadDir)

	if c.Selectors == nil {
		c.Selectors = make(map[portal.Element][]Locator)
	}
	for name, locs := range f.Selectors {
		el, _ := portal.ParseElement(name)
		c.Selectors[el] = append(c.Selectors[el], locs...)
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}
