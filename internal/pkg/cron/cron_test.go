package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestScheduler_Run(t *testing.T) {
	s := New(nil)
	s.Register(Job{Name: "ok", Interval: time.Hour, Fn: func(context.Context) error { return nil }})
	s.Register(Job{Name: "bad", Interval: time.Hour, Fn: func(context.Context) error { return errors.New("boom") }})

	require.NoError(t, s.Run(context.Background(), "ok"))
	require.NoError(t, s.Run(context.Background(), "bad"))
	assert.Error(t, s.Run(context.Background(), "missing"))

	items := s.List()
	require.Len(t, items, 2)
	assert.Equal(t, "bad", items[0].Name)
	assert.Equal(t, StatusFailed, items[0].Status)
	assert.Equal(t, "boom", items[0].Message)
	assert.Equal(t, StatusSucceeded, items[1].Status)
	assert.NotNil(t, items[1].LastRunAt)
}

func TestScheduler_StartStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	var runs atomic.Int32
	s := New(nil)
	s.Register(Job{Name: "tick", Interval: 10 * time.Millisecond, Fn: func(context.Context) error {
		runs.Add(1)
		return nil
	}})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	s.Wait()
}
