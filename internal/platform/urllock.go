package platform

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
)

// ErrURLLocked is returned when another process is downloading the URL
var ErrURLLocked = errors.New("URL is being downloaded by another process")

// URLLocker hands out cross-process locks keyed by source URL, so two app
// instances never write the same download at once.
type URLLocker struct {
	dir string
}

// NewURLLocker creates lock files under dir (the system temp dir if empty)
func NewURLLocker(dir string) (*URLLocker, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "ytgrab-locks")
	}
	if err := CreateDirectoryIfNotExists(dir); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	return &URLLocker{dir: dir}, nil
}

// URLLock is a held lock; Release is safe to call more than once
type URLLock struct {
	fl   *flock.Flock
	once sync.Once
}

// TryLock acquires the lock for url without blocking. It returns
// ErrURLLocked when the lock is held elsewhere.
func (l *URLLocker) TryLock(url string) (*URLLock, error) {
	fl := flock.New(l.path(url))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire flock %s: %w", fl.Path(), err)
	}
	if !ok {
		return nil, ErrURLLocked
	}
	return &URLLock{fl: fl}, nil
}

// Release unlocks; the lock file is left in place for reuse
func (u *URLLock) Release() error {
	var err error
	u.once.Do(func() {
		if e := u.fl.Unlock(); e != nil {
			err = fmt.Errorf("release flock %s: %w", u.fl.Path(), e)
		}
	})
	return err
}

// path maps a URL to its lock file
func (l *URLLocker) path(url string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(url)))
	return filepath.Join(l.dir, hex.EncodeToString(sum[:8])+".lock")
}
