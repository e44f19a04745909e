package producer

import (
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/n-dise/ndnft/std/log"
)

// Default cache-evictor timing (§4.3 File-handle cache).
const (
	DefaultGCPeriod   = 256 * time.Second
	MinGCPeriod       = 16 * time.Second
	DefaultGCLifetime = 60 * time.Second
)

type cacheEntry struct {
	file       *os.File
	lastAccess time.Time
}

// fileCache is the producer's RWMutex-guarded, keyed-by-path handle
// cache (§4.3). open-on-miss is atomic from the caller's perspective:
// the write lock is held across the os.Open call on a miss.
type fileCache struct {
	mu       sync.RWMutex
	entries  map[string]*cacheEntry
	lifetime time.Duration

	closeOnce sync.Once
	stopCh    chan struct{}
	evictions atomic.Uint64
}

// stats reports the cache's current occupancy and cumulative eviction
// count, polled by ft/metrics.CacheCollector.
func (c *fileCache) stats() (openHandles int, evictions uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries), c.evictions.Load()
}

func newFileCache(gcPeriod, gcLifetime time.Duration) *fileCache {
	if gcPeriod < MinGCPeriod {
		gcPeriod = MinGCPeriod
	}
	c := &fileCache{
		entries:  make(map[string]*cacheEntry),
		lifetime: gcLifetime,
		stopCh:   make(chan struct{}),
	}
	go c.evictLoop(gcPeriod)
	return c
}

func (c *fileCache) String() string { return "producer file-handle cache" }

// open returns the cached *os.File for path, opening it on a miss.
func (c *fileCache) open(path string) (*os.File, error) {
	c.mu.RLock()
	e, ok := c.entries[path]
	c.mu.RUnlock()
	if ok {
		c.mu.Lock()
		e.lastAccess = time.Now()
		c.mu.Unlock()
		return e.file, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[path]; ok {
		e.lastAccess = time.Now()
		return e.file, nil
	}

	f, err := os.Open(path)
	if err != nil {
		var errno syscall.Errno
		if errors.As(err, &errno) {
			return nil, ErrFile{Op: "open", Path: path, Errno: int(errno)}
		}
		return nil, err
	}
	c.entries[path] = &cacheEntry{file: f, lastAccess: time.Now()}
	return f, nil
}

func (c *fileCache) evictLoop(period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.evictIdle()
		}
	}
}

func (c *fileCache) evictIdle() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for path, e := range c.entries {
		if now.Sub(e.lastAccess) > c.lifetime {
			if err := e.file.Close(); err != nil {
				log.Warn(c, "failed to close idle file handle", "path", path, "err", err)
			}
			c.evictions.Add(1)
			delete(c.entries, path)
		}
	}
}

// close stops the evictor and closes every cached handle.
func (c *fileCache) close() {
	c.closeOnce.Do(func() {
		close(c.stopCh)
		c.mu.Lock()
		defer c.mu.Unlock()
		for path, e := range c.entries {
			_ = e.file.Close()
			delete(c.entries, path)
		}
	})
}
