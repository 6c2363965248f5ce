package loop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T) (*Loop, context.Context) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	l := New(WithFrameInterval(5 * time.Millisecond))
	go l.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-l.Done()
	})
	return l, ctx
}

func TestDoRunsOnLoop(t *testing.T) {
	l, ctx := startLoop(t)

	ran := false
	require.NoError(t, l.Do(ctx, func() { ran = true }))
	assert.True(t, ran)
}

func TestDoAfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := New()
	go l.Run(ctx)
	cancel()
	<-l.Done()

	err := l.Do(context.Background(), func() {})
	assert.ErrorIs(t, err, ErrStopped)
}

func TestAfterFiresOnce(t *testing.T) {
	l, ctx := startLoop(t)

	fired := make(chan struct{}, 4)
	require.NoError(t, l.Do(ctx, func() {
		l.After(5*time.Millisecond, func() { fired <- struct{}{} })
	}))

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}

	time.Sleep(20 * time.Millisecond)
	assert.Len(t, fired, 0)
}

func TestCancelledTimerNeverFires(t *testing.T) {
	l, ctx := startLoop(t)

	fired := make(chan struct{}, 1)
	require.NoError(t, l.Do(ctx, func() {
		h := l.After(10*time.Millisecond, func() { fired <- struct{}{} })
		l.Cancel(h)
	}))

	time.Sleep(40 * time.Millisecond)
	assert.Len(t, fired, 0)
}

func TestEveryRepeatsUntilCancelled(t *testing.T) {
	l, ctx := startLoop(t)

	count := 0
	var h Handle
	require.NoError(t, l.Do(ctx, func() {
		h = l.Every(2*time.Millisecond, func() { count++ })
	}))

	require.Eventually(t, func() bool {
		n := 0
		_ = l.Do(ctx, func() { n = count })
		return n >= 3
	}, time.Second, 5*time.Millisecond)

	var stopped int
	require.NoError(t, l.Do(ctx, func() {
		l.Cancel(h)
		stopped = count
	}))
	time.Sleep(20 * time.Millisecond)

	var after int
	require.NoError(t, l.Do(ctx, func() { after = count }))
	assert.Equal(t, stopped, after)
}

func TestFrameDelivered(t *testing.T) {
	l, ctx := startLoop(t)

	got := make(chan time.Duration, 1)
	require.NoError(t, l.Do(ctx, func() {
		l.Frame(func(elapsed time.Duration) { got <- elapsed })
	}))

	select {
	case elapsed := <-got:
		assert.Greater(t, elapsed, time.Duration(0))
	case <-time.After(time.Second):
		t.Fatal("frame not delivered")
	}
}

func TestPanicDoesNotKillLoop(t *testing.T) {
	l, ctx := startLoop(t)

	require.NoError(t, l.Do(ctx, func() { panic("boom") }))

	ran := false
	require.NoError(t, l.Do(ctx, func() { ran = true }))
	assert.True(t, ran)
}
