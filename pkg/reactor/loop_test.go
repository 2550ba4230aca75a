package reactor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallRunsAndReturns(t *testing.T) {
	l := New()
	defer l.Close()

	ran := false
	err := l.Call(context.Background(), func() error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)

	wantErr := errors.New("boom")
	err = l.Call(context.Background(), func() error { return wantErr })
	assert.ErrorIs(t, err, wantErr)
}

func TestDoSerializesAccess(t *testing.T) {
	l := New()
	defer l.Close()

	// Unsynchronized counter: only safe because the loop serializes tasks.
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Do(func() { counter++ })
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		var got int
		require.NoError(t, l.Call(context.Background(), func() error {
			got = counter
			return nil
		}))
		return got == 100
	}, time.Second, 5*time.Millisecond)
}

func TestScheduleFires(t *testing.T) {
	l := New()
	defer l.Close()

	fired := make(chan struct{})
	timer := l.Schedule(10*time.Millisecond, func() { close(fired) })

	assert.True(t, timer.Active(), "timer should be pending before the delay")

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
	assert.False(t, timer.Active(), "timer should be inactive after firing")
}

func TestScheduleZeroKeepsOrder(t *testing.T) {
	l := New()
	defer l.Close()

	var order []int
	l.Do(func() { order = append(order, 1) })
	l.Schedule(0, func() { order = append(order, 2) })
	l.Do(func() { order = append(order, 3) })

	require.NoError(t, l.Call(context.Background(), func() error { return nil }))
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestCancelSuppressesFire(t *testing.T) {
	l := New()
	defer l.Close()

	fired := false
	timer := l.Schedule(20*time.Millisecond, func() { fired = true })

	l.Cancel(timer)
	assert.False(t, timer.Active())

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, l.Call(context.Background(), func() error { return nil }))
	assert.False(t, fired, "canceled timer must not fire")
}

func TestCancelIsIdempotent(t *testing.T) {
	l := New()
	defer l.Close()

	timer := l.Schedule(10*time.Millisecond, func() {})
	l.Cancel(timer)
	l.Cancel(timer)
	l.Cancel(nil)

	// Canceling a fired timer is equally harmless.
	fired := make(chan struct{})
	t2 := l.Schedule(time.Millisecond, func() { close(fired) })
	<-fired
	l.Cancel(t2)
}

func TestPostingFromLoopTaskNeverBlocks(t *testing.T) {
	l := New()
	defer l.Close()

	// A single task fanning out far more work than any fixed buffer would
	// hold. Subscription delivery does exactly this: one mutation task posts
	// one Schedule(0) per armed cell, all from the loop goroutine.
	const fanout = 10_000
	counter := 0

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := l.Call(ctx, func() error {
		for i := 0; i < fanout; i++ {
			l.Schedule(0, func() { counter++ })
		}
		return nil
	})
	require.NoError(t, err, "posting from the loop goroutine must not block the loop")

	require.Eventually(t, func() bool {
		var got int
		require.NoError(t, l.Call(context.Background(), func() error {
			got = counter
			return nil
		}))
		return got == fanout
	}, 2*time.Second, 5*time.Millisecond)
}

func TestCallAfterClose(t *testing.T) {
	l := New()
	l.Close()
	l.Close() // idempotent

	err := l.Call(context.Background(), func() error { return nil })
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCallHonorsContext(t *testing.T) {
	l := New()
	defer l.Close()

	block := make(chan struct{})
	l.Do(func() { <-block })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Call(ctx, func() error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(block)
}
