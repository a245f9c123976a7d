package static

import (
	"context"
	"sync"

	"github.com/youpower/greenbutton/internal/browser"
)

// Site is a set of pages and a browser.Opener serving them.
type Site struct {
	// Pages maps a URL to its HTML source.
	Pages map[string]string

	// OpenErr, when set, makes Open fail with it.
	OpenErr error

	// Wrap, when set, is applied to every driver before Open returns it.
	Wrap func(*Driver) browser.Driver

	mu     sync.Mutex
	opened []*Driver
}

// Open implements browser.Opener. The directory is normalized and
// created like a real session would.
func (s *Site) Open(_ context.Context, downloadDir string) (browser.Driver, error) {
	if s.OpenErr != nil {
		return nil, s.OpenErr
	}
	dir, err := browser.NormalizeDownloadDir(downloadDir)
	if err != nil {
		return nil, err
	}

	d := New(s.Pages, dir)

	s.mu.Lock()
	s.opened = append(s.opened, d)
	s.mu.Unlock()

	if s.Wrap != nil {
		return s.Wrap(d), nil
	}
	return d, nil
}

// Opened returns every driver opened so far.
func (s *Site) Opened() []*Driver {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Driver(nil), s.opened...)
}
