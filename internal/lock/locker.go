// Package lock serializes read-check-write sequences on reservation keys
// (a zone queue or a member's reservation set).  Keys are always acquired
// in sorted order so that callers locking overlapping sets cannot
// deadlock.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrLockTimeout is returned when a key could not be acquired before the
// context was done.
var ErrLockTimeout = errors.New("lock wait timed out")

// Locker acquires a set of keys atomically from the caller's point of
// view.  The returned unlock function releases every key and is safe to
// call more than once.
type Locker interface {
	Lock(ctx context.Context, keys ...string) (func(), error)
}

// ZoneKey is the lock key guarding a zone's queue.
func ZoneKey(zone string) string { return "zone:" + zone }

// UserKey is the lock key guarding a member's reservation set.
func UserKey(userID string) string { return "user:" + userID }

// normalize sorts and deduplicates keys.
func normalize(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Local is an in-process keyed mutex.  Waiting honours context
// cancellation.  The zero value is not usable; call NewLocal.
type Local struct {
	mu   sync.Mutex
	keys map[string]*localEntry
}

type localEntry struct {
	sem  chan struct{}
	refs int
}

// NewLocal returns an empty in-process locker.
func NewLocal() *Local {
	return &Local{keys: make(map[string]*localEntry)}
}

func (l *Local) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = normalize(keys)
	held := make([]string, 0, len(keys))
	for _, k := range keys {
		if err := l.acquire(ctx, k); err != nil {
			l.releaseAll(held)
			return nil, err
		}
		held = append(held, k)
	}
	var once sync.Once
	return func() { once.Do(func() { l.releaseAll(held) }) }, nil
}

func (l *Local) acquire(ctx context.Context, key string) error {
	l.mu.Lock()
	e, ok := l.keys[key]
	if !ok {
		e = &localEntry{sem: make(chan struct{}, 1)}
		l.keys[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.unref(key)
		return fmt.Errorf("%w: %s: %v", ErrLockTimeout, key, ctx.Err())
	}
}

func (l *Local) releaseAll(keys []string) {
	for i := len(keys) - 1; i >= 0; i-- {
		l.mu.Lock()
		e := l.keys[keys[i]]
		l.mu.Unlock()
		<-e.sem
		l.unref(keys[i])
	}
}

func (l *Local) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.keys[key]
	e.refs--
	if e.refs == 0 {
		delete(l.keys, key)
	}
}
