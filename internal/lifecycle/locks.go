package lifecycle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 50 * time.Millisecond

// coinLocks serializes commands per coin. The in-process mutex orders
// goroutines; the lock file orders separate mintada processes.
type coinLocks struct {
	dir string

	mu    sync.Mutex
	coins map[int64]*sync.Mutex
}

func newCoinLocks(dir string) *coinLocks {
	return &coinLocks{dir: dir, coins: make(map[int64]*sync.Mutex)}
}

func (l *coinLocks) mutex(coinID int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.coins[coinID]
	if !ok {
		m = &sync.Mutex{}
		l.coins[coinID] = m
	}
	return m
}

// acquire blocks until coinID is held by the caller or ctx ends.
func (l *coinLocks) acquire(ctx context.Context, coinID int64) (func(), error) {
	m := l.mutex(coinID)
	m.Lock()
	if l.dir == "" {
		return m.Unlock, nil
	}

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		m.Unlock()
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	fileLock := flock.New(filepath.Join(l.dir, fmt.Sprintf("coin-%d.lock", coinID)))
	ok, err := fileLock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !ok {
		m.Unlock()
		if err == nil {
			err = ctx.Err()
		}
		return nil, fmt.Errorf("lock coin %d: %w", coinID, err)
	}
	return func() {
		_ = fileLock.Unlock()
		m.Unlock()
	}, nil
}
