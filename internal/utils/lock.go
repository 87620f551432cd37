package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/gofrs/flock"
	homedir "github.com/mitchellh/go-homedir"
)

const (
	lockFileSuffix = ".lock"
)

var unsafeLockChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// RunLock serializes mutating runs against the same store across processes.
type RunLock struct {
	lock *flock.Flock
	path string
}

// NewRunLock creates a lock for the named store under the shopadmin config dir.
func NewRunLock(storeName string) (*RunLock, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("could not resolve config dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create %s: %w", dir, err)
	}
	lockPath := filepath.Join(dir, unsafeLockChars.ReplaceAllString(storeName, "_")+lockFileSuffix)
	return &RunLock{
		lock: flock.New(lockPath),
		path: lockPath,
	}, nil
}

// Lock acquires the lock, waiting if necessary.
// It will print a message if it has to wait.
func (l *RunLock) Lock() error {
	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", l.path, err)
	}

	if !locked {
		fmt.Fprintf(os.Stderr, "Another shopadmin process is modifying this store, waiting for it to finish...\n")
		if err := l.lock.Lock(); err != nil {
			return fmt.Errorf("failed to acquire lock on %s after waiting: %w", l.path, err)
		}
	}
	return nil
}

// Unlock releases the lock.
func (l *RunLock) Unlock() error {
	if err := l.lock.Unlock(); err != nil {
		// Suppress error if the lock file doesn't exist, as it means we don't hold the lock.
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}

// Path returns the lock file location.
func (l *RunLock) Path() string { return l.path }

// ConfigDir is $HOME/.config/shopadmin.
func ConfigDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "shopadmin"), nil
}

// GetAbsDBPath resolves the journal database path.
func GetAbsDBPath(dbPath string) (string, error) {
	if dbPath == "" {
		dir, err := ConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "journal.sqlite"), nil
	}
	expanded, err := homedir.Expand(dbPath)
	if err != nil {
		return "", err
	}
	return filepath.Abs(expanded)
}
