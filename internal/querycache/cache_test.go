package querycache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestCache() (*Cache, *clock) {
	clk := &clock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	return New(Options{Now: clk.Now}), clk
}

func counter(calls *int32, value string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		atomic.AddInt32(calls, 1)
		return value, nil
	}
}

func TestKey_HasPrefix(t *testing.T) {
	k := Key{"task", "detail", "TASK-001"}

	assert.True(t, k.HasPrefix(Key{}))
	assert.True(t, k.HasPrefix(Key{"task"}))
	assert.True(t, k.HasPrefix(Key{"task", "detail", "TASK-001"}))
	assert.False(t, k.HasPrefix(Key{"task", "list"}))
	assert.False(t, k.HasPrefix(Key{"task", "detail", "TASK-001", "x"}))
	assert.False(t, Key{"tasks"}.HasPrefix(Key{"task"}))
}

func TestFetch_ServesFreshEntry(t *testing.T) {
	c, clk := newTestCache()
	key := Key{"task", "detail", "TASK-001"}
	var calls int32

	for i := 0; i < 3; i++ {
		v, err := Fetch(context.Background(), c, key, counter(&calls, "v1"))
		require.NoError(t, err)
		assert.Equal(t, "v1", v)
	}
	assert.EqualValues(t, 1, calls)

	clk.Advance(DefaultStaleTime)
	_, err := Fetch(context.Background(), c, key, counter(&calls, "v2"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls)
}

func TestFetch_PerCallStaleTime(t *testing.T) {
	c, clk := newTestCache()
	key := Key{"contract-type", "all"}
	var calls int32

	_, err := Fetch(context.Background(), c, key, counter(&calls, "a"), WithStaleTime(time.Second))
	require.NoError(t, err)
	clk.Advance(2 * time.Second)
	_, err = Fetch(context.Background(), c, key, counter(&calls, "b"), WithStaleTime(time.Second))
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls)
}

func TestFetch_ErrorsAreNotCached(t *testing.T) {
	c, _ := newTestCache()
	key := Key{"task", "detail", "TASK-404"}
	boom := errors.New("boom")

	_, err := Fetch(context.Background(), c, key, func(context.Context) (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())

	var calls int32
	v, err := Fetch(context.Background(), c, key, counter(&calls, "ok"))
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestFetch_DeduplicatesConcurrentReads(t *testing.T) {
	c, _ := newTestCache()
	key := Key{"task", "list"}
	release := make(chan struct{})
	var calls int32

	fn := func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "shared", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := Fetch(context.Background(), c, key, fn)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls)
	for _, v := range results {
		assert.Equal(t, "shared", v)
	}
}

func TestInvalidate_OnlyMatchingPrefix(t *testing.T) {
	c, _ := newTestCache()
	ctx := context.Background()
	var calls int32

	for _, k := range []Key{
		{"task", "detail", "TASK-001"},
		{"task", "detail", "TASK-002"},
		{"task", "list", "", "", ""},
		{"contract-type", "all"},
	} {
		_, err := Fetch(ctx, c, k, counter(&calls, "x"))
		require.NoError(t, err)
	}

	assert.Equal(t, 1, c.Invalidate(Key{"task", "detail", "TASK-001"}))

	snap, ok := c.Peek(Key{"task", "detail", "TASK-001"})
	require.True(t, ok)
	assert.True(t, snap.Invalidated)
	assert.True(t, snap.Stale)

	snap, ok = c.Peek(Key{"task", "detail", "TASK-002"})
	require.True(t, ok)
	assert.False(t, snap.Invalidated)

	assert.Equal(t, 3, c.Invalidate(Key{"task"}))
	snap, _ = c.Peek(Key{"contract-type", "all"})
	assert.False(t, snap.Invalidated)

	// Invalidated entries are refetched, then fresh again.
	before := atomic.LoadInt32(&calls)
	_, err := Fetch(ctx, c, Key{"task", "detail", "TASK-002"}, counter(&calls, "y"))
	require.NoError(t, err)
	assert.Equal(t, before+1, atomic.LoadInt32(&calls))
	snap, _ = c.Peek(Key{"task", "detail", "TASK-002"})
	assert.False(t, snap.Invalidated)
	assert.Equal(t, "y", snap.Data)
}

func TestInvalidate_DuringFetchLeavesEntryStale(t *testing.T) {
	c, _ := newTestCache()
	key := Key{"task", "detail", "TASK-001"}
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan string)
	go func() {
		v, err := Fetch(context.Background(), c, key, func(context.Context) (string, error) {
			close(started)
			<-release
			return "old", nil
		})
		assert.NoError(t, err)
		done <- v
	}()

	<-started
	assert.Equal(t, 0, c.Invalidate(Key{"task"}))
	close(release)
	assert.Equal(t, "old", <-done)

	snap, ok := c.Peek(key)
	require.True(t, ok)
	assert.True(t, snap.Invalidated)

	var calls int32
	v, err := Fetch(context.Background(), c, key, counter(&calls, "new"))
	require.NoError(t, err)
	assert.Equal(t, "new", v)
	assert.EqualValues(t, 1, calls)
}

func TestInvalidate_ReadAfterInvalidateStartsNewFetch(t *testing.T) {
	c, _ := newTestCache()
	key := Key{"task", "detail", "TASK-001"}
	var version int32 = 1
	started := make(chan struct{})
	release := make(chan struct{})

	first := make(chan string)
	go func() {
		v, err := Fetch(context.Background(), c, key, func(context.Context) (string, error) {
			seen := atomic.LoadInt32(&version)
			close(started)
			<-release
			if seen == 1 {
				return "v1", nil
			}
			return "v2", nil
		})
		assert.NoError(t, err)
		first <- v
	}()

	<-started
	atomic.StoreInt32(&version, 2)
	c.Invalidate(Key{"task"})

	var calls int32
	v, err := Fetch(context.Background(), c, key, counter(&calls, "v2"))
	require.NoError(t, err)
	assert.Equal(t, "v2", v)
	assert.EqualValues(t, 1, calls)

	close(release)
	assert.Equal(t, "v1", <-first)

	// The late result must not replace the newer one.
	snap, ok := c.Peek(key)
	require.True(t, ok)
	assert.Equal(t, "v2", snap.Data)
	assert.False(t, snap.Invalidated)

	v, err = Fetch(context.Background(), c, key, counter(&calls, "v3"))
	require.NoError(t, err)
	assert.Equal(t, "v2", v)
	assert.EqualValues(t, 1, calls)
}

func TestFetch_SharedCallSurvivesFirstCallerCancel(t *testing.T) {
	c, _ := newTestCache()
	key := Key{"task", "list"}
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int32

	fn := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		close(started)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-release:
			return "shared", nil
		}
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error)
	go func() {
		_, err := Fetch(ctxA, c, key, fn)
		errA <- err
	}()
	<-started

	type result struct {
		v   string
		err error
	}
	resB := make(chan result)
	go func() {
		v, err := Fetch(context.Background(), c, key, fn)
		resB <- result{v, err}
	}()

	time.Sleep(50 * time.Millisecond)
	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	close(release)
	got := <-resB
	require.NoError(t, got.err)
	assert.Equal(t, "shared", got.v)
	assert.EqualValues(t, 1, calls)

	snap, ok := c.Peek(key)
	require.True(t, ok)
	assert.Equal(t, "shared", snap.Data)
}

func TestPeek_UsesEntryStaleTime(t *testing.T) {
	c, clk := newTestCache()
	var calls int32

	_, err := Fetch(context.Background(), c, Key{"contract-type", "all"}, counter(&calls, "a"), WithStaleTime(time.Second))
	require.NoError(t, err)
	_, err = Fetch(context.Background(), c, Key{"task", "list"}, counter(&calls, "b"))
	require.NoError(t, err)

	clk.Advance(2 * time.Second)

	snap, ok := c.Peek(Key{"contract-type", "all"})
	require.True(t, ok)
	assert.True(t, snap.Stale)
	assert.False(t, snap.Invalidated)

	snap, ok = c.Peek(Key{"task", "list"})
	require.True(t, ok)
	assert.False(t, snap.Stale)
}

func TestRemove(t *testing.T) {
	c, _ := newTestCache()
	var calls int32
	_, _ = Fetch(context.Background(), c, Key{"task", "detail", "1"}, counter(&calls, "a"))
	_, _ = Fetch(context.Background(), c, Key{"contract-type", "all"}, counter(&calls, "b"))

	assert.Equal(t, 1, c.Remove(Key{"task"}))
	assert.Equal(t, 1, c.Len())
	_, ok := c.Peek(Key{"task", "detail", "1"})
	assert.False(t, ok)
}

func TestSweep_EvictsAfterGCTime(t *testing.T) {
	c, clk := newTestCache()
	var calls int32
	_, _ = Fetch(context.Background(), c, Key{"task", "detail", "old"}, counter(&calls, "a"))
	clk.Advance(6 * time.Minute)
	_, _ = Fetch(context.Background(), c, Key{"task", "detail", "recent"}, counter(&calls, "b"))

	assert.Equal(t, 0, c.Sweep(clk.Now()))

	clk.Advance(5 * time.Minute)
	assert.Equal(t, 1, c.Sweep(clk.Now()))
	_, ok := c.Peek(Key{"task", "detail", "old"})
	assert.False(t, ok)
	_, ok = c.Peek(Key{"task", "detail", "recent"})
	assert.True(t, ok)
}

func TestRun_StopsWithContext(t *testing.T) {
	c := New(Options{SweepInterval: 10 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(stopped)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
