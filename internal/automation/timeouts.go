package automation

import (
	"context"
	"time"

	"github.com/youpower/greenbutton/internal/browser"
)

// Timeouts bounds every wait of the automation.
type Timeouts struct {
	// Element bounds the wait for each candidate locator.
	Element time.Duration

	// Indicator bounds the wait for each signed-in page indicator.
	Indicator time.Duration

	// PageLoad bounds the wait for a document to finish loading.
	PageLoad time.Duration

	// Settle is the pause after a navigation or click.
	Settle time.Duration

	// Download bounds the wait for the export file to appear.
	Download time.Duration
}

// DefaultTimeouts returns the timeouts used when nothing is configured.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Element:   5 * time.Second,
		Indicator: 5 * time.Second,
		PageLoad:  30 * time.Second,
		Settle:    2 * time.Second,
		Download:  30 * time.Second,
	}
}

// settle waits for the page to load and then pauses. A page that never
// reports loaded is not an error; the caller's context ending is.
func settle(ctx context.Context, drv browser.Driver, t Timeouts) error {
	if t.PageLoad > 0 {
		loadCtx, cancel := context.WithTimeout(ctx, t.PageLoad)
		_ = drv.WaitLoad(loadCtx)
		cancel()
	}
	return sleep(ctx, t.Settle)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
