// Package artifact keeps generated documents as short-lived temp files. A Store
// holds at most one live artifact; publishing a new one releases the previous.
package artifact

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/pkg/browser"
)

// ErrReleased is returned when acting on an artifact that is no longer live.
var ErrReleased = errors.New("artifact released")

// ErrInvalidName is returned for download names that would escape the target directory.
var ErrInvalidName = errors.New("invalid artifact name")

// Artifact is a generated document and the temp file that references it.
type Artifact struct {
	ID      uuid.UUID
	Name    string
	Path    string
	Size    int64
	Created time.Time
}

type Store struct {
	mu    sync.Mutex
	dir   string
	owned bool
	live  *Artifact
}

// NewStore keeps artifacts in dir, or in a private temp directory when dir is
// empty. A private directory is removed by Close.
func NewStore(dir string) (*Store, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create artifact dir: %w", err)
		}
		return &Store{dir: dir}, nil
	}

	tmp, err := os.MkdirTemp("", "sheetpdf-")
	if err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &Store{dir: tmp, owned: true}, nil
}

// Dir returns the directory artifacts are written to.
func (s *Store) Dir() string {
	return s.dir
}

// Publish writes data as the new live artifact, releasing the previous one first.
func (s *Store) Publish(name string, data []byte) (*Artifact, error) {
	if err := validName(name); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.releaseLocked(); err != nil {
		log.Warn("release previous artifact", "err", err)
	}

	id := uuid.New()
	path := filepath.Join(s.dir, id.String()+filepath.Ext(name))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("write artifact: %w", err)
	}

	s.live = &Artifact{
		ID:      id,
		Name:    name,
		Path:    path,
		Size:    int64(len(data)),
		Created: time.Now(),
	}
	log.Debug("published artifact", "id", id, "name", name, "bytes", len(data))
	return s.live, nil
}

// Current returns the live artifact, or nil.
func (s *Store) Current() *Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

// Release removes a if it is the live artifact. Releasing anything else is a no-op.
func (s *Store) Release(a *Artifact) error {
	if a == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.live == nil || s.live.ID != a.ID {
		return nil
	}
	return s.releaseLocked()
}

func (s *Store) releaseLocked() error {
	if s.live == nil {
		return nil
	}
	a := s.live
	s.live = nil
	if err := os.Remove(a.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove artifact %s: %w", a.ID, err)
	}
	log.Debug("released artifact", "id", a.ID)
	return nil
}

// Close releases the live artifact and removes a private directory.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.releaseLocked()
	if s.owned {
		if rmErr := os.RemoveAll(s.dir); rmErr != nil && err == nil {
			err = rmErr
		}
	}
	return err
}

// Save copies the live artifact a into dir under its download name and returns the
// written path.
func (s *Store) Save(a *Artifact, dir string) (string, error) {
	if err := validName(a.Name); err != nil {
		return "", err
	}

	s.mu.Lock()
	live := s.live != nil && s.live.ID == a.ID
	s.mu.Unlock()
	if !live {
		return "", ErrReleased
	}

	src, err := os.Open(a.Path)
	if err != nil {
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer src.Close()

	dest := filepath.Join(dir, a.Name)
	if err := writeAtomic(dest, src); err != nil {
		return "", err
	}
	log.Info("saved document", "path", dest)
	return dest, nil
}

// Open shows the live artifact a in the system's default viewer.
func (s *Store) Open(a *Artifact) error {
	s.mu.Lock()
	live := s.live != nil && s.live.ID == a.ID
	s.mu.Unlock()
	if !live {
		return ErrReleased
	}
	return openFile(a.Path)
}

// openFile is swapped out in tests.
var openFile = func(path string) error {
	// The TUI owns the terminal; keep the launcher quiet.
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
	return browser.OpenFile(path)
}

// WriteFile atomically writes data to path.
func WriteFile(path string, data []byte) error {
	return writeAtomic(path, bytes.NewReader(data))
}

// writeAtomic writes through a temp file in the destination directory and renames
// it into place, so readers never see a partial document.
func writeAtomic(dest string, r io.Reader) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmpPath != "" {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", dest, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dest, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", dest, err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("rename into %s: %w", dest, err)
	}
	tmpPath = ""
	return nil
}

func validName(name string) error {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
