package loader

import (
	"os"
	"time"
)

// fileKey identifies a file's content cheaply: path plus size and mtime.
// Hashing the content would force a full read just to answer a cache hit.
type fileKey struct {
	size    int64
	modTime time.Time
}

type cacheEntry struct {
	key   fileKey
	table any
}

// lookup returns the cached table for path when the file on disk still
// matches the memoized identity.
func (l *Loader) lookup(path string) (any, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	key := fileKey{size: info.Size(), modTime: info.ModTime()}

	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.cache[path]
	if !ok || entry.key != key {
		return nil, false
	}
	return entry.table, true
}

func (l *Loader) remember(path string, table any) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache[path] = &cacheEntry{
		key:   fileKey{size: info.Size(), modTime: info.ModTime()},
		table: table,
	}
}

// Invalidate drops the memoized table for path, if any.
func (l *Loader) Invalidate(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.cache, path)
}
