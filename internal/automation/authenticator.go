package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/youpower/greenbutton/internal/browser"
	"github.com/youpower/greenbutton/internal/model"
	"github.com/youpower/greenbutton/internal/portal"
	"github.com/youpower/greenbutton/internal/selector"
)

// Authenticator signs in to the portal.
type Authenticator struct {
	portal   *portal.Portal
	timeouts Timeouts
	logger   *slog.Logger
}

// NewAuthenticator creates an Authenticator. A nil logger means
// slog.Default().
func NewAuthenticator(p *portal.Portal, t Timeouts, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{portal: p, timeouts: t, logger: logger}
}

// Login opens the login page, submits creds and checks for a signed-in
// page. It returns nil when signed in.
//
// A missing form element is reported as *selector.ElementNotFoundError
// naming the element. A submitted form with no signed-in indicator is
// reported as ErrAuthenticationRejected, or one of its refinements
// ErrMFARequired and ErrCredentialsRejected.
func (a *Authenticator) Login(ctx context.Context, drv browser.Driver, creds model.Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}

	a.logger.Info("logging in",
		"flow", a.portal.Flow,
		"credentials", creds,
	)

	if err := drv.Navigate(ctx, a.portal.LoginURL); err != nil {
		return fmt.Errorf("failed to open login page: %w", err)
	}
	if err := settle(ctx, drv, a.timeouts); err != nil {
		return err
	}

	if err := a.fill(ctx, drv, portal.Username, creds.Username); err != nil {
		return err
	}
	if err := a.fill(ctx, drv, portal.Password, creds.Password); err != nil {
		return err
	}

	button, err := selector.Resolve(ctx, drv, a.portal.Target(portal.LoginButton, selector.Clickable, a.timeouts.Element))
	if err != nil {
		return err
	}
	if err := drv.Click(ctx, button.Locator); err != nil {
		return fmt.Errorf("failed to submit login form: %w", err)
	}
	if err := settle(ctx, drv, a.timeouts); err != nil {
		return err
	}

	indicator, err := selector.Resolve(ctx, drv, a.portal.Target(portal.SuccessIndicator, selector.Present, a.timeouts.Indicator))
	if err == nil {
		a.logger.Info("login successful", "indicator", indicator.Locator.String())
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	return a.classifyRejection(ctx, drv)
}

func (a *Authenticator) fill(ctx context.Context, drv browser.Driver, el portal.Element, value string) error {
	m, err := selector.Resolve(ctx, drv, a.portal.Target(el, selector.Present, a.timeouts.Element))
	if err != nil {
		return err
	}
	a.logger.Debug("found field", "element", string(el), "locator", m.Locator.String())

	if err := drv.Type(ctx, m.Locator, value); err != nil {
		return fmt.Errorf("failed to fill %s: %w", el, err)
	}
	return nil
}

// classifyRejection looks for a verification prompt or an error banner
// on the page left after a failed sign-in.
func (a *Authenticator) classifyRejection(ctx context.Context, drv browser.Driver) error {
	probes := []struct {
		el  portal.Element
		err error
	}{
		{portal.MFAPrompt, ErrMFARequired},
		{portal.LoginError, ErrCredentialsRejected},
	}

	for _, p := range probes {
		_, err := selector.Resolve(ctx, drv, a.portal.Target(p.el, selector.Present, a.timeouts.Element))
		if err == nil {
			a.logger.Warn("login rejected", "reason", p.err)
			return p.err
		}
		if !errors.Is(err, selector.ErrElementNotFound) {
			return err
		}
	}

	a.logger.Warn("login verification failed: no signed-in indicator found")
	return ErrAuthenticationRejected
}
