package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// ErrLockHeld is returned by Open while another live process holds the
// lock file.
var ErrLockHeld = errors.New("lock file held by another process")

// LockSurface is an engine.Surface backed by a lock file.
//
// Open writes the session ID and the process ID to the lock file and
// watches it in the background. A lock left by a process that no longer
// runs is replaced; if anything else removes the file while the session runs,
// onClosed is called. Close stops watching first and then removes the
// file, so a normal close never triggers onClosed.
type LockSurface struct {
	path     string
	onClosed func()

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	lock   Lock
}

// NewLockSurface creates a LockSurface. onClosed may be nil.
func NewLockSurface(path string, onClosed func()) *LockSurface {
	return &LockSurface{path: path, onClosed: onClosed}
}

// Path returns the lock file path.
func (s *LockSurface) Path() string {
	return s.path
}

// Open writes the lock file and starts watching it.
func (s *LockSurface) Open(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return errors.New("lock surface already open")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	lock := Lock{SessionID: sessionID, PID: os.Getpid()}
	if err := s.acquire(lock); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel, s.done, s.lock = cancel, done, lock

	go func() {
		defer close(done)
		err := LockFile(ctx, s.path, func(context.Context) error {
			if s.onClosed != nil {
				s.onClosed()
			}
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("lock file watch stopped", "path", s.path, "error", err)
		}
	}()
	return nil
}

// acquire creates the lock file exclusively, replacing a lock whose
// holder is gone.
func (s *LockSurface) acquire(lock Lock) error {
	for attempt := 0; ; attempt++ {
		f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			_, werr := f.Write(lock.encode())
			if cerr := f.Close(); werr == nil {
				werr = cerr
			}
			if werr != nil {
				return fmt.Errorf("write lock file: %w", werr)
			}
			return nil
		}
		if !errors.Is(err, fs.ErrExist) || attempt > 0 {
			return fmt.Errorf("create lock file: %w", err)
		}

		held, ok, err := ReadLock(s.path)
		if err != nil {
			return err
		}
		if ok && held.PID != lock.PID && held.Live() {
			return fmt.Errorf("%w: session %s, pid %d", ErrLockHeld, held.SessionID, held.PID)
		}
		slog.Debug("replacing stale lock file", "path", s.path, "session", held.SessionID, "pid", held.PID)
		if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove stale lock file: %w", err)
		}
	}
}

// Close stops watching and removes the lock file if it is still the one
// Open wrote. Closing a surface that is not open does nothing.
func (s *LockSurface) Close() error {
	s.mu.Lock()
	cancel, done, own := s.cancel, s.done, s.lock
	s.cancel, s.done, s.lock = nil, nil, Lock{}
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done

	current, ok, err := ReadLock(s.path)
	if err != nil || !ok || current != own {
		return err
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}
