package client

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelSubject(t *testing.T) {
	assert.Equal(t, "approvals.levels.condo-7", LevelSubject("condo-7"))
}

func TestCoalescer_BurstFiresOnce(t *testing.T) {
	var calls atomic.Int32
	co := newCoalescer(30*time.Millisecond, func() { calls.Add(1) })

	// A copy-defaults run publishes one event per inserted level; viewers
	// should re-fetch once.
	for i := 0; i < 8; i++ {
		co.Trigger()
		time.Sleep(2 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 },
		time.Second, 5*time.Millisecond)

	// The window has passed with no further triggers; no extra refresh.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCoalescer_SeparateBurstsFireSeparately(t *testing.T) {
	var calls atomic.Int32
	co := newCoalescer(10*time.Millisecond, func() { calls.Add(1) })

	co.Trigger()
	require.Eventually(t, func() bool { return calls.Load() == 1 },
		time.Second, 2*time.Millisecond)

	co.Trigger()
	require.Eventually(t, func() bool { return calls.Load() == 2 },
		time.Second, 2*time.Millisecond)
}

func TestCoalescer_StopCancelsPending(t *testing.T) {
	var calls atomic.Int32
	co := newCoalescer(20*time.Millisecond, func() { calls.Add(1) })

	co.Trigger()
	co.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())

	// Triggers after Stop are ignored.
	co.Trigger()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}
