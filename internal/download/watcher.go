package download

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"

	"github.com/youpower/greenbutton/internal/model"
)

// DefaultPollInterval is how often Wait rescans the directory.
const DefaultPollInterval = 250 * time.Millisecond

// ErrTimeout is returned by Wait when no completed download appeared in
// time.
var ErrTimeout = errors.New("timed out waiting for download")

// partialSuffixes mark files a browser is still writing.
var partialSuffixes = []string{".crdownload", ".part", ".tmp", ".download"}

// Watcher reports files that appear in a directory after it was created.
type Watcher struct {
	dir      string
	before   map[string]struct{}
	interval time.Duration
}

// NewWatcher snapshots the files currently in dir.
func NewWatcher(dir string) (*Watcher, error) {
	w := &Watcher{dir: dir, interval: DefaultPollInterval}

	names, err := w.list()
	if err != nil {
		return nil, err
	}
	w.before = make(map[string]struct{}, len(names))
	for _, name := range names {
		w.before[name] = struct{}{}
	}
	return w, nil
}

// Wait polls until at least one new completed file exists and no new
// file is still partial, then returns the new files. It returns
// ErrTimeout after timeout, together with any completed files seen.
func (w *Watcher) Wait(ctx context.Context, timeout time.Duration) ([]model.DownloadedFile, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		done, partial, err := w.scan()
		if err != nil {
			return nil, err
		}
		if len(done) > 0 && partial == 0 {
			return w.describe(done)
		}

		select {
		case <-ctx.Done():
			files, _ := w.describe(done)
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return files, ErrTimeout
			}
			return files, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *Watcher) scan() (done []string, partial int, err error) {
	names, err := w.list()
	if err != nil {
		return nil, 0, err
	}
	for _, name := range names {
		if _, old := w.before[name]; old {
			continue
		}
		if IsPartial(name) {
			partial++
			continue
		}
		done = append(done, name)
	}
	return done, partial, nil
}

func (w *Watcher) list() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read download directory %s: %w", w.dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (w *Watcher) describe(names []string) ([]model.DownloadedFile, error) {
	files := make([]model.DownloadedFile, 0, len(names))
	for _, name := range names {
		f, err := Describe(filepath.Join(w.dir, name))
		if err != nil {
			return files, err
		}
		files = append(files, f)
	}
	return files, nil
}

// IsPartial reports whether name is a browser's in-progress download.
func IsPartial(name string) bool {
	lower := strings.ToLower(name)
	for _, s := range partialSuffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

// Describe stats the file at path and computes its SHA3-256 digest.
func Describe(path string) (model.DownloadedFile, error) {
	f, err := os.Open(path) //nolint:gosec // path is inside the run's download directory
	if err != nil {
		return model.DownloadedFile{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha3.New256()
	n, err := io.Copy(h, f)
	if err != nil {
		return model.DownloadedFile{}, fmt.Errorf("failed to hash %s: %w", path, err)
	}

	return model.DownloadedFile{
		Name: filepath.Base(path),
		Path: path,
		Size: n,
		SHA3: hex.EncodeToString(h.Sum(nil)),
	}, nil
}
