package reactor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReactor_RunsPacketsAndTasksOnOneGoroutine(t *testing.T) {
	r := New(4)
	packets := make(chan []byte)
	ctx, cancel := context.WithCancel(context.Background())

	var order []string
	done := make(chan error, 1)
	go func() {
		done <- r.Run(ctx, packets, func(p []byte) { order = append(order, string(p)) }, func() {
			order = append(order, "stop")
		})
	}()

	packets <- []byte("p1")
	require.NoError(t, r.Submit(ctx, func() { order = append(order, "t1") }))
	barrier := make(chan struct{})
	require.NoError(t, r.Submit(ctx, func() { close(barrier) }))
	<-barrier

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
	assert.Equal(t, []string{"p1", "t1", "stop"}, order)
	assert.ErrorIs(t, r.Submit(context.Background(), func() {}), ErrStopped)
}

func TestReactor_TasksRunInSubmissionOrder(t *testing.T) {
	r := New(16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		require.NoError(t, r.Submit(ctx, func() {
			got = append(got, i)
			if i == 4 {
				cancel()
			}
		}))
	}
	require.NoError(t, r.Run(ctx, nil, nil, nil))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestReactor_ExhaustedPackets(t *testing.T) {
	r := New(1)
	packets := make(chan []byte)
	close(packets)

	err := r.Run(context.Background(), packets, func([]byte) {}, nil)
	assert.ErrorIs(t, err, ErrPacketsExhausted)
}

func TestReactor_SubmitHonoursContext(t *testing.T) {
	r := New(1)
	require.NoError(t, r.Submit(context.Background(), func() {}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Submit(ctx, func() {}), context.DeadlineExceeded)
}

func TestReactor_AcceptedTasksRunBeforeStop(t *testing.T) {
	r := New(8)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var order []string
	for _, name := range []string{"a", "b", "c"} {
		name := name
		require.NoError(t, r.Submit(context.Background(), func() { order = append(order, name) }))
	}
	require.NoError(t, r.Run(ctx, nil, nil, func() { order = append(order, "stop") }))

	assert.Equal(t, []string{"a", "b", "c", "stop"}, order)
}

func TestReactor_NoAcceptedTaskIsLostAtShutdown(t *testing.T) {
	r := New(64)
	ctx, cancel := context.WithCancel(context.Background())

	ran := 0
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, nil, nil, nil) }()

	var (
		accepted atomic.Int32
		wg       sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if r.Submit(context.Background(), func() { ran++ }) == nil {
					accepted.Add(1)
				}
			}
		}()
	}
	time.Sleep(time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
	wg.Wait()
	assert.Equal(t, int(accepted.Load()), ran)
	assert.ErrorIs(t, r.Submit(context.Background(), func() {}), ErrStopped)
}
