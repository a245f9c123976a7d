package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/youpower/greenbutton/internal/selector"
)

// ErrDriverInit is returned when a browser session cannot be started.
var ErrDriverInit = errors.New("failed to start browser session")

// ErrSessionClosed is returned by Driver methods called after Close.
var ErrSessionClosed = errors.New("browser session is closed")

// Driver is a live browser session.
type Driver interface {
	// Navigate loads url and waits for the navigation to commit.
	Navigate(ctx context.Context, url string) error

	// CurrentURL returns the URL of the current page.
	CurrentURL(ctx context.Context) (string, error)

	// WaitFor blocks until an element matching loc satisfies cond or ctx
	// ends.
	WaitFor(ctx context.Context, loc selector.Locator, cond selector.Condition) error

	// Click clicks the first element matching loc.
	Click(ctx context.Context, loc selector.Locator) error

	// Type clears the first element matching loc and types text into it.
	Type(ctx context.Context, loc selector.Locator, text string) error

	// ScrollToBottom scrolls the page to the end of the document.
	ScrollToBottom(ctx context.Context) error

	// WaitLoad blocks until the document has finished loading.
	WaitLoad(ctx context.Context) error

	// Screenshot captures the full page as PNG.
	Screenshot(ctx context.Context) ([]byte, error)

	// DownloadDir is the directory downloads are written to.
	DownloadDir() string

	// Close ends the session. Calling it more than once is safe.
	Close() error
}

// Opener starts browser sessions.
type Opener interface {
	Open(ctx context.Context, downloadDir string) (Driver, error)
}

// NormalizeDownloadDir makes dir absolute and clean with the host's path
// separators, and creates it if missing.
func NormalizeDownloadDir(dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("%w: download directory is empty", ErrDriverInit)
	}

	abs, err := filepath.Abs(filepath.FromSlash(dir))
	if err != nil {
		return "", fmt.Errorf("failed to resolve download directory %s: %w", dir, err)
	}
	abs = filepath.Clean(abs)

	if err := os.MkdirAll(abs, 0750); err != nil {
		return "", fmt.Errorf("failed to create download directory %s: %w", abs, err)
	}
	return abs, nil
}
