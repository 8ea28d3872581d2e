package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, []string{"user:1", "zone:A"}, normalize([]string{"zone:A", "user:1", "zone:A"}))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "zone:Zone A", ZoneKey("Zone A"))
	assert.Equal(t, "user:42", UserKey("42"))
}

func TestLocal_MutualExclusion(t *testing.T) {
	l := NewLocal()
	var (
		inside  int32
		maxSeen int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "zone:A", "user:1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxSeen)
				if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, maxSeen)
	assert.Empty(t, l.keys, "entries must be dropped once unused")
}

func TestLocal_OverlappingSetsDoNotDeadlock(t *testing.T) {
	l := NewLocal()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "zone:A", "user:1")
			if assert.NoError(t, err) {
				unlock()
			}
		}()
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "user:1", "zone:A")
			if assert.NoError(t, err) {
				unlock()
			}
		}()
	}
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("lockers deadlocked")
	}
}

func TestLocal_TimeoutReleasesPartialAcquisition(t *testing.T) {
	l := NewLocal()
	unlock, err := l.Lock(context.Background(), "zone:B")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	// "user:1" sorts before "zone:B" and is acquired first, then released
	// when "zone:B" times out.
	_, err = l.Lock(ctx, "zone:B", "user:1")
	require.ErrorIs(t, err, ErrLockTimeout)

	other, err := l.Lock(context.Background(), "user:1")
	require.NoError(t, err)
	other()
	unlock()
}

func TestLocal_UnlockIsIdempotent(t *testing.T) {
	l := NewLocal()
	unlock, err := l.Lock(context.Background(), "zone:A")
	require.NoError(t, err)
	unlock()
	unlock()

	again, err := l.Lock(context.Background(), "zone:A")
	require.NoError(t, err)
	again()
}

func TestLocker_ImplementationsSatisfyInterface(t *testing.T) {
	var _ Locker = (*Redis)(nil)

	var l Locker = NewLocal()
	unlock, err := l.Lock(context.Background(), ZoneKey("A"), UserKey("1"))
	require.NoError(t, err)
	require.NotNil(t, unlock)
	unlock()
}
