package main

import (
	"bytes"
	"log/slog"
	"maps"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/youpower/greenbutton/internal/browser"
	"github.com/youpower/greenbutton/internal/browser/static"
	"github.com/youpower/greenbutton/internal/config"
	"github.com/youpower/greenbutton/internal/portal"
)

const (
	loginPage = `<html><body>
		<form action="https://www.pge.com/myaccount/dashboard">
			<input id="username" type="text">
			<input id="password" type="password">
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

// portalPages returns a site where every step succeeds.
func portalPages() map[string]string {
	return map[string]string{
		portal.DesktopLoginURL: loginPage,
		portal.DashboardURL:    dashboardPage,
		portal.UsageURL:        usagePage,
		portal.DetailsURL:      detailsPage,
	}
}

func newSite() *static.Site {
	return &static.Site{Pages: portalPages()}
}

func with(pages map[string]string, overrides map[string]string) map[string]string {
	out := maps.Clone(pages)
	maps.Copy(out, overrides)
	return out
}

// siteOpener returns an openerFunc serving the static site.
func siteOpener(site *static.Site) openerFunc {
	return func(*config.Config, *slog.Logger) browser.Opener { return site }
}

// cmdResult holds the captured output of one command execution.
type cmdResult struct {
	stdout string
	stderr string
	err    error
}

func execute(cmd *cobra.Command, stdin string, args ...string) cmdResult {
	var stdout, stderr bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.Execute()
	return cmdResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// downloadArgs returns fast, isolated flags for a download run.
func downloadArgs(t *testing.T, extra ...string) []string {
	t.Helper()
	dir := t.TempDir()
	args := []string{
		"--dir", filepath.Join(dir, "downloads"),
		"--db-dir", filepath.Join(dir, "db"),
		"--env-file", filepath.Join(dir, "missing.env"),
		"--username", "jane@example.com",
		"--password-stdin",
		"--start", "2024-01-05",
		"--end", "2024-01-31",
		"--element-timeout", "50ms",
		"--settle", "0s",
		"--download-timeout", "2s",
	}
	return append(args, extra...)
}

func flagValue(args []string, name string) string {
	for i, a := range args {
		if a == name && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
