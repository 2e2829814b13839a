package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// LockFile blocks until the file at path is removed or renamed, then runs
// onClosed once and returns its error. If the file does not exist when
// watching starts, onClosed runs immediately.
//
// Cancelling ctx stops the watch without running onClosed and returns
// ctx.Err().
func LockFile(ctx context.Context, path string, onClosed func(context.Context) error) error {
	path = filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: a watch on the file itself is lost when the
	// file is replaced.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	// Checked after Add so a removal in between is not missed.
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		slog.Debug("lock file absent", "path", path)
		return onClosed(ctx)
	} else if err != nil {
		return fmt.Errorf("stat lock file: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				slog.Info("lock file closed", "path", path, "op", event.Op.String())
				return onClosed(ctx)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			slog.Warn("lock file watcher error", "path", path, "error", err)
		}
	}
}

// Lock is the content of a lock file.
type Lock struct {
	SessionID string `json:"session_id"`
	PID       int    `json:"pid,omitempty"`
}

// Live reports whether the process that wrote the lock still runs. A lock
// without a PID is never live.
func (l Lock) Live() bool {
	return l.PID > 0 && processAlive(l.PID)
}

func (l Lock) encode() []byte {
	return []byte(fmt.Sprintf("%s\n%d\n", l.SessionID, l.PID))
}

func parseLock(data []byte) Lock {
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	lock := Lock{SessionID: strings.TrimSpace(lines[0])}
	if len(lines) > 1 {
		if pid, err := strconv.Atoi(strings.TrimSpace(lines[1])); err == nil {
			lock.PID = pid
		}
	}
	return lock
}

// ReadLock returns the lock held at path. The bool is false when no lock
// file exists.
func ReadLock(path string) (Lock, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Lock{}, false, nil
	}
	if err != nil {
		return Lock{}, false, fmt.Errorf("read lock file: %w", err)
	}
	return parseLock(data), true, nil
}
