// Package progress persists last-read-page state to a single JSON
// document on disk, atomically written.
package progress

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/localcomicreader/readerd/pkg/coretypes"
)

type entry struct {
	PageIndex uint32 `json:"page_index"`
	UpdatedMs uint64 `json:"updated_ms"`
}

type file struct {
	Entries map[string]entry `json:"entries"`
}

// Store is a mutex-guarded JSON document mapping SourceId to its last
// read page. All reads and writes serialize through a single in-process
// lock and an atomic temp-file-plus-rename on disk.
type Store struct {
	path string
	mu   sync.Mutex
}

var (
	defaultOnce  sync.Once
	defaultStore *Store
	defaultErr   error
)

// Default returns the process-wide progress store, resolving the cache
// directory lazily on first use.
func Default() (*Store, error) {
	defaultOnce.Do(func() {
		dir, err := progressDir()
		if err != nil {
			defaultErr = err
			return
		}
		defaultStore, defaultErr = NewAt(filepath.Join(dir, "progress.json"))
	})
	return defaultStore, defaultErr
}

// NewAt constructs a store rooted at an explicit path, bypassing the
// default cache-directory resolution. Intended for tests and for daemons
// that wire in their own cache root via config.
func NewAt(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &Store{path: path}, nil
}

// Load returns the last-saved page for source, if any has been recorded.
func (s *Store) Load(source coretypes.SourceId) (coretypes.PageId, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.readFile()
	if err != nil {
		return coretypes.PageId{}, false, err
	}

	e, ok := f.Entries[source.String()]
	if !ok {
		return coretypes.PageId{}, false, nil
	}
	return coretypes.PageId{SourceId: source, Index: e.PageIndex}, true, nil
}

// Save records page as the latest progress for its source.
func (s *Store) Save(page coretypes.PageId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.readFile()
	if err != nil {
		return err
	}

	if f.Entries == nil {
		f.Entries = make(map[string]entry)
	}
	f.Entries[page.SourceId.String()] = entry{
		PageIndex: page.Index,
		UpdatedMs: nowMs(),
	}
	return s.writeFile(f)
}

func (s *Store) readFile() (file, error) {
	bytes, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return file{Entries: make(map[string]entry)}, nil
		}
		return file{}, err
	}

	var f file
	if err := json.Unmarshal(bytes, &f); err != nil {
		return file{}, err
	}
	if f.Entries == nil {
		f.Entries = make(map[string]entry)
	}
	return f, nil
}

// writeFile writes f atomically: a temp file in the same directory,
// fsynced, then renamed over the target. If the rename loses a race to a
// concurrent writer that has just created the destination, the stale
// destination is removed and the rename retried once.
func (s *Store) writeFile(f file) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "progress-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		if os.IsExist(err) {
			if removeErr := os.Remove(s.path); removeErr != nil && !os.IsNotExist(removeErr) {
				return removeErr
			}
			return os.Rename(tmpPath, s.path)
		}
		return err
	}
	return nil
}

// progressDir resolves the "state" subdirectory of the OS user-cache
// directory, falling back to a process-local tempdir if the platform
// offers no such directory (no directories-crate equivalent exists in
// the pack; see DESIGN.md).
func progressDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		base, err = os.MkdirTemp("", "readerd-cache")
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(base, "local-comic-reader", "state"), nil
}

func nowMs() uint64 {
	return uint64(time.Now().UnixMilli())
}
