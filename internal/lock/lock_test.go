package lock

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSerialisesSameKey(t *testing.T) {
	l := NewLocal()
	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "/out/job")
			if err != nil {
				t.Error(err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside)
}

func TestLocalDistinctKeysIndependent(t *testing.T) {
	l := NewLocal()
	unlockA, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := l.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestLocalHonoursContext(t *testing.T) {
	l := NewLocal()
	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	unlock()
	unlock() // second release is a no-op
	again, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	again()
}

func TestNewWithoutRedisIsLocal(t *testing.T) {
	l, err := New(Options{})
	require.NoError(t, err)
	_, ok := l.(*Local)
	assert.True(t, ok)
}

func TestRedisLock(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	r, err := NewRedis(Options{RedisURL: url, TTL: 5 * time.Second, Poll: 10 * time.Millisecond})
	require.NoError(t, err)
	defer r.Close()

	unlock, err := r.Lock(context.Background(), "test-key")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = r.Lock(ctx, "test-key")
	assert.Error(t, err)

	unlock()
	unlock2, err := r.Lock(context.Background(), "test-key")
	require.NoError(t, err)
	unlock2()
}
