package workpool

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNew_DefaultSize(t *testing.T) {
	p := New(0)
	require.True(t, p.sem.TryAcquire(int64(runtime.GOMAXPROCS(0))))
	assert.False(t, p.sem.TryAcquire(1))

	p = New(3)
	require.True(t, p.sem.TryAcquire(3))
	assert.False(t, p.sem.TryAcquire(1))
}

func TestDo_BoundsConcurrency(t *testing.T) {
	const size = 2
	p := New(size)

	var running, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := p.Do(context.Background(), func(ctx context.Context) error {
				n := atomic.AddInt32(&running, 1)
				for {
					old := atomic.LoadInt32(&peak)
					if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(size))
}

func TestDo_PropagatesError(t *testing.T) {
	p := New(1)
	boom := errors.New("boom")
	err := p.Do(context.Background(), func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestDo_ContextCancelledWhileWaiting(t *testing.T) {
	p := New(1)

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = p.Do(context.Background(), func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := p.Do(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)

	close(release)
	<-done
}

func TestDoValue(t *testing.T) {
	p := New(1)
	v, err := DoValue(context.Background(), p, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}
