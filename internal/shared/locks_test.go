package shared

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	ctx := context.Background()
	m := NewKeyedMutex()

	var (
		inside  int
		maxSeen int
		mu      sync.Mutex
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := m.Lock(ctx, ProductLockKey("arandanos-125"))
			require.NoError(t, err)
			defer unlock()
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()
	require.Equal(t, 1, maxSeen)
}

func TestRedisLockerMutualExclusion(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locker := NewRedisLocker(client, time.Second)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, ProductLockKey("p1"))
	require.NoError(t, err)

	// A second acquisition must block until release.
	blockedCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(blockedCtx, ProductLockKey("p1"))
	require.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()

	unlock2, err := locker.Lock(ctx, ProductLockKey("p1"))
	require.NoError(t, err)
	unlock2()
}

func TestRedisLockerReleaseIsScopedToHolder(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locker := NewRedisLocker(client, 50*time.Millisecond)
	ctx := context.Background()

	unlockA, err := locker.Lock(ctx, ProductLockKey("p2"))
	require.NoError(t, err)

	// Let the lease expire, then hand the lock to a second holder.
	mr.FastForward(100 * time.Millisecond)
	unlockB, err := locker.Lock(ctx, ProductLockKey("p2"))
	require.NoError(t, err)

	// The expired holder's release must not free B's lock.
	unlockA()
	require.True(t, mr.Exists(ProductLockKey("p2")))

	unlockB()
	require.False(t, mr.Exists(ProductLockKey("p2")))
}
