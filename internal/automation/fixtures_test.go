package automation

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"testing"
	"time"

	"github.com/youpower/greenbutton/internal/browser"
	"github.com/youpower/greenbutton/internal/browser/static"
	"github.com/youpower/greenbutton/internal/model"
	"github.com/youpower/greenbutton/internal/portal"
	"github.com/youpower/greenbutton/internal/selector"
)

const (
	loginPage = `<html><body>
		<form action="https://www.pge.com/myaccount/dashboard">
			<input id="username" type="text" placeholder="Username">
			<input id="password" type="password" placeholder="Password">
			<button id="login">Log In</button>
		</form>
	</body></html>`

	dashboardPage = `<html><body>
		<nav><a href="/myaccount/usage">Energy Usage</a></nav>
	</body></html>`

	usagePage = `<html><body>
		<a href="/myaccount/usage/details">Energy Usage Details</a>
	</body></html>`

	detailsPage = `<html><body>
		<button class="green-button">Green Button</button>
		<label>Select a range of days <input type="radio" name="mode" value="range"></label>
		<input id="from-date" type="text">
		<input id="to-date" type="text">
		<button class="download-button" data-download="pge_electric_usage.xml">Download</button>
	</body></html>`
)

// portalPages returns a site where every step succeeds by clicking.
func portalPages() map[string]string {
	return map[string]string{
		portal.DesktopLoginURL: loginPage,
		portal.DashboardURL:    dashboardPage,
		portal.UsageURL:        usagePage,
		portal.DetailsURL:      detailsPage,
	}
}

// with returns pages with the given URLs replaced.
func with(pages map[string]string, overrides map[string]string) map[string]string {
	out := maps.Clone(pages)
	maps.Copy(out, overrides)
	return out
}

func testTimeouts() Timeouts {
	return Timeouts{
		Element:   50 * time.Millisecond,
		Indicator: 50 * time.Millisecond,
		Download:  time.Second,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRange() model.DateRange {
	return model.DateRange{
		Start: time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC),
	}
}

func testRequest(t *testing.T) Request {
	t.Helper()
	return Request{
		Credentials: model.Credentials{Username: "jane@example.com", Password: "secret"},
		Range:       testRange(),
		DownloadDir: t.TempDir(),
	}
}

func newTestRunner(site *static.Site, flow portal.Flow, opts ...RunnerOption) *Runner {
	opts = append([]RunnerOption{WithLogger(testLogger())}, opts...)
	return NewRunner(site, portal.New(flow), testTimeouts(), opts...)
}

// collect runs r synchronously and returns the run and its events.
func collect(t *testing.T, r *Runner, req Request) (*model.Run, []model.Event) {
	t.Helper()

	var events []model.Event
	run, err := r.Run(context.Background(), req, func(ev model.Event) {
		events = append(events, ev)
	})
	if err != nil {
		t.Fatalf("run did not start: %v", err)
	}
	return run, events
}

// progress returns the percentages of the progress events.
func progress(events []model.Event) []int {
	var out []int
	for _, ev := range events {
		if ev.Kind == model.EventProgress {
			out = append(out, ev.Percent)
		}
	}
	return out
}

// result returns the single result event, failing if there is not
// exactly one or it is not last.
func result(t *testing.T, events []model.Event) model.Event {
	t.Helper()

	var found []model.Event
	for _, ev := range events {
		if ev.Kind == model.EventResult {
			found = append(found, ev)
		}
	}
	if len(found) != 1 {
		t.Fatalf("expected exactly 1 result event, got %d", len(found))
	}
	if events[len(events)-1].Kind != model.EventResult {
		t.Fatal("result event is not last")
	}
	return found[0]
}

// onlyDriver returns the single driver the site opened.
func onlyDriver(t *testing.T, site *static.Site) *static.Driver {
	t.Helper()

	opened := site.Opened()
	if len(opened) != 1 {
		t.Fatalf("expected 1 session, got %d", len(opened))
	}
	return opened[0]
}

// panicDriver panics when clicking.
type panicDriver struct {
	*static.Driver
}

func (panicDriver) Click(context.Context, selector.Locator) error {
	panic("boom")
}

// blockingDriver holds navigation until release is closed.
type blockingDriver struct {
	*static.Driver
	release <-chan struct{}
}

func (b blockingDriver) Navigate(ctx context.Context, url string) error {
	select {
	case <-b.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return b.Driver.Navigate(ctx, url)
}

var (
	_ browser.Driver = panicDriver{}
	_ browser.Driver = blockingDriver{}
)
