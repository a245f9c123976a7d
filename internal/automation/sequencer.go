package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/youpower/greenbutton/internal/browser"
	"github.com/youpower/greenbutton/internal/download"
	"github.com/youpower/greenbutton/internal/model"
	"github.com/youpower/greenbutton/internal/pipeline"
	"github.com/youpower/greenbutton/internal/portal"
	"github.com/youpower/greenbutton/internal/selector"
)

// Step names, in execution order.
const (
	StepLogin         = "login"
	StepSwitchDesktop = "switch_desktop"
	StepEnergyUsage   = "energy_usage"
	StepUsageDetails  = "usage_details"
	StepGreenButton   = "green_button"
	StepRangeMode     = "range_mode"
	StepDateRange     = "date_range"
	StepDownload      = "download"
)

// Sequencer walks a signed-in session from the dashboard to the Green
// Button export and triggers the download.
type Sequencer struct {
	portal   *portal.Portal
	timeouts Timeouts
	logger   *slog.Logger
}

// NewSequencer creates a Sequencer. A nil logger means slog.Default().
func NewSequencer(p *portal.Portal, t Timeouts, logger *slog.Logger) *Sequencer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sequencer{portal: p, timeouts: t, logger: logger}
}

// ExportUsage runs the export on a signed-in session and returns nil
// once the download was triggered.
func (s *Sequencer) ExportUsage(ctx context.Context, drv browser.Driver, dateRange model.DateRange) error {
	run := model.NewRun(string(s.portal.Flow), drv.DownloadDir(), dateRange)
	return s.Export(ctx, drv, run, nil)
}

// Export runs the export steps, recording them in run. notify, if not
// nil, receives the new percentage after each of the four milestones.
func (s *Sequencer) Export(ctx context.Context, drv browser.Driver, run *model.Run, notify func(percent int)) error {
	opts := []pipeline.Option{pipeline.WithLogger(s.logger)}
	if notify != nil {
		opts = append(opts, pipeline.WithProgress(notify))
	}

	p := pipeline.New(opts...)
	p.AddSteps(s.Steps(drv)...)
	return p.Execute(ctx, run)
}

// Steps returns the export steps bound to drv.
func (s *Sequencer) Steps(drv browser.Driver) []pipeline.Step {
	return []pipeline.Step{
		pipeline.NewStep(StepSwitchDesktop, s.switchDesktop(drv)),
		pipeline.NewStep(StepEnergyUsage, s.openByLinkOrURL(drv, portal.EnergyUsage, s.portal.UsageURL, portal.OnUsagePage),
			pipeline.AsRequired(), pipeline.AsMilestone(), pipeline.Entering(model.StageUsageOpen)),
		pipeline.NewStep(StepUsageDetails, s.openByLinkOrURL(drv, portal.UsageDetails, s.portal.DetailsURL, portal.OnDetailsPage),
			pipeline.AsRequired(), pipeline.AsMilestone(), pipeline.Entering(model.StageDetailsOpen)),
		pipeline.NewStep(StepGreenButton, s.openExportPanel(drv),
			pipeline.AsRequired(), pipeline.AsMilestone(), pipeline.Entering(model.StageExportPanelOpen)),
		pipeline.NewStep(StepRangeMode, s.selectRangeMode(drv),
			pipeline.Entering(model.StageRangeSelected)),
		pipeline.NewStep(StepDateRange, s.fillDates(drv),
			pipeline.Entering(model.StageRangeSelected)),
		pipeline.NewStep(StepDownload, s.triggerDownload(drv),
			pipeline.AsRequired(), pipeline.AsMilestone(), pipeline.Entering(model.StageDownloadTriggered)),
	}
}

// clickThrough resolves el as clickable, clicks it and lets the page
// settle.
func (s *Sequencer) clickThrough(ctx context.Context, drv browser.Driver, el portal.Element) (selector.Match, error) {
	m, err := selector.Resolve(ctx, drv, s.portal.Target(el, selector.Clickable, s.timeouts.Element))
	if err != nil {
		return selector.Match{}, err
	}
	if err := drv.Click(ctx, m.Locator); err != nil {
		return selector.Match{}, fmt.Errorf("failed to click %s: %w", el, err)
	}
	if err := settle(ctx, drv, s.timeouts); err != nil {
		return selector.Match{}, err
	}
	return m, nil
}

// navigate loads url as a fallback and lets the page settle.
func (s *Sequencer) navigate(ctx context.Context, drv browser.Driver, url string) (pipeline.Outcome, error) {
	s.logger.Info("navigating directly", "url", url)
	if err := drv.Navigate(ctx, url); err != nil {
		return pipeline.Outcome{}, err
	}
	if err := settle(ctx, drv, s.timeouts); err != nil {
		return pipeline.Outcome{}, err
	}
	return pipeline.FellBack(url), nil
}

func (s *Sequencer) switchDesktop(drv browser.Driver) pipeline.Func {
	return func(ctx context.Context, _ *model.Run) (pipeline.Outcome, error) {
		current, err := drv.CurrentURL(ctx)
		if err != nil {
			return pipeline.Outcome{}, err
		}
		if s.portal.Flow != portal.FlowMobile && !s.portal.IsMobile(current) {
			return pipeline.Outcome{Status: model.StepSkipped, Detail: "already on the full site"}, nil
		}

		m, err := s.clickThrough(ctx, drv, portal.DesktopLink)
		if err == nil {
			return pipeline.Matched(m.Locator.String()), nil
		}
		if !errors.Is(err, selector.ErrElementNotFound) {
			return pipeline.Outcome{}, err
		}
		if s.portal.IsMobile(current) {
			return s.navigate(ctx, drv, s.portal.DashboardURL)
		}
		return pipeline.Outcome{}, err
	}
}

// openByLinkOrURL clicks el, falling back to the URL when no candidate
// matches or when the click lands on a page that fails landed.
func (s *Sequencer) openByLinkOrURL(drv browser.Driver, el portal.Element, fallback string, landed func(string) bool) pipeline.Func {
	return func(ctx context.Context, _ *model.Run) (pipeline.Outcome, error) {
		m, err := s.clickThrough(ctx, drv, el)
		if err != nil {
			if !errors.Is(err, selector.ErrElementNotFound) {
				return pipeline.Outcome{}, err
			}
			s.logger.Warn("link not found, using direct URL", "element", string(el))
			return s.navigate(ctx, drv, fallback)
		}

		current, err := drv.CurrentURL(ctx)
		if err != nil {
			return pipeline.Outcome{}, err
		}
		if !landed(current) {
			s.logger.Warn("link opened an unexpected page", "element", string(el), "url", current)
			return s.navigate(ctx, drv, fallback)
		}
		return pipeline.Matched(m.Locator.String()), nil
	}
}

func (s *Sequencer) openExportPanel(drv browser.Driver) pipeline.Func {
	return func(ctx context.Context, _ *model.Run) (pipeline.Outcome, error) {
		if err := drv.ScrollToBottom(ctx); err != nil {
			s.logger.Debug("scroll failed", "error", err)
		}
		if err := sleep(ctx, s.timeouts.Settle); err != nil {
			return pipeline.Outcome{}, err
		}

		m, err := s.clickThrough(ctx, drv, portal.GreenButton)
		if err != nil {
			if errors.Is(err, selector.ErrElementNotFound) {
				return pipeline.Outcome{}, fmt.Errorf("%w: %w", ErrExportControlNotFound, err)
			}
			return pipeline.Outcome{}, err
		}
		return pipeline.Matched(m.Locator.String()), nil
	}
}

func (s *Sequencer) selectRangeMode(drv browser.Driver) pipeline.Func {
	return func(ctx context.Context, _ *model.Run) (pipeline.Outcome, error) {
		m, err := s.clickThrough(ctx, drv, portal.RangeOption)
		if err != nil {
			return pipeline.Outcome{}, err
		}
		return pipeline.Matched(m.Locator.String()), nil
	}
}

// fillDates types the range into the from and to fields. Each field is
// optional on its own; the step fails only when neither exists.
func (s *Sequencer) fillDates(drv browser.Driver) pipeline.Func {
	return func(ctx context.Context, run *model.Run) (pipeline.Outcome, error) {
		fields := []struct {
			el    portal.Element
			value string
		}{
			{portal.FromDate, run.Range.FormatStart()},
			{portal.ToDate, run.Range.FormatEnd()},
		}

		var filled []string
		var missing []error
		for _, f := range fields {
			m, err := selector.Resolve(ctx, drv, s.portal.Target(f.el, selector.Present, s.timeouts.Element))
			if err == nil {
				err = drv.Type(ctx, m.Locator, f.value)
			}
			if err != nil {
				if ctx.Err() != nil {
					return pipeline.Outcome{}, ctx.Err()
				}
				s.logger.Warn("could not fill date field", "element", string(f.el), "error", err)
				missing = append(missing, err)
				continue
			}
			s.logger.Debug("filled date field", "element", string(f.el), "value", f.value)
			filled = append(filled, m.Locator.String())
		}

		if len(filled) == 0 {
			return pipeline.Outcome{}, errors.Join(missing...)
		}
		out := pipeline.Matched(filled[0])
		if len(missing) > 0 {
			out.Detail = errors.Join(missing...).Error()
		}
		return out, nil
	}
}

// triggerDownload clicks the download control and waits, bounded by the
// download timeout, for a completed file. Not seeing a file in time is
// logged but does not fail the step. When the directory cannot be
// watched, it waits the full download timeout instead.
func (s *Sequencer) triggerDownload(drv browser.Driver) pipeline.Func {
	return func(ctx context.Context, run *model.Run) (pipeline.Outcome, error) {
		watcher, werr := download.NewWatcher(drv.DownloadDir())
		if werr != nil {
			s.logger.Warn("cannot watch download directory", "error", werr)
		}

		m, err := selector.Resolve(ctx, drv, s.portal.Target(portal.DownloadButton, selector.Clickable, s.timeouts.Element))
		if err != nil {
			if errors.Is(err, selector.ErrElementNotFound) {
				return pipeline.Outcome{}, fmt.Errorf("%w: %w", ErrDownloadControlNotFound, err)
			}
			return pipeline.Outcome{}, err
		}
		if err := drv.Click(ctx, m.Locator); err != nil {
			return pipeline.Outcome{}, fmt.Errorf("failed to click download control: %w", err)
		}

		out := pipeline.Matched(m.Locator.String())
		if watcher == nil {
			if err := sleep(ctx, s.timeouts.Download); err != nil {
				return pipeline.Outcome{}, err
			}
			out.Detail = "download directory not watched"
			return out, nil
		}

		files, err := watcher.Wait(ctx, s.timeouts.Download)
		run.Downloads = append(run.Downloads, files...)
		switch {
		case err == nil:
			for _, f := range files {
				s.logger.Info("downloaded file", "file", f.Name, "size", f.Size, "sha3", f.SHA3)
			}
		case errors.Is(err, download.ErrTimeout):
			s.logger.Warn("no completed download detected", "dir", drv.DownloadDir(), "timeout", s.timeouts.Download)
			out.Detail = err.Error()
		case ctx.Err() != nil:
			return pipeline.Outcome{}, ctx.Err()
		default:
			s.logger.Warn("failed to inspect download directory", "error", err)
			out.Detail = err.Error()
		}
		return out, nil
	}
}
