package distcount

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mirrors the canonical usage walkthrough: two brokers plus a direct add,
// then a rebasing exchange.
func TestBroker_ShardTransparency(t *testing.T) {
	c := New(0)
	a := NewBroker(c)
	b := NewBroker(c)

	a.Add(5)
	b.Add(10)
	c.Add(3)
	assert.Equal(t, int64(18), c.Load())

	assert.Equal(t, int64(18), c.Exchange(100))
	assert.Equal(t, int64(100), c.Load())

	a.Close()
	b.Close()
	assert.Equal(t, int64(100), c.Load())
	c.Close()
}

func TestBroker_VisibleToLoadBeforeClose(t *testing.T) {
	c := New(0)
	b := NewBroker(c)

	b.Add(4)
	// No flush has happened; the pending value is read out of the broker.
	assert.Equal(t, int64(4), c.Load())

	b.Close()
	c.Close()
}

func TestBroker_FlushOnClose(t *testing.T) {
	c := New(0)
	b := NewBroker(c)
	b.Add(9)
	b.Close()

	assert.Equal(t, int64(9), c.Load())
	assert.NotPanics(t, func() { c.Close() })
}

func TestBroker_Independence(t *testing.T) {
	c := New(0)
	a := NewBroker(c)
	b := NewBroker(c)

	a.Add(5)
	b.Add(7)
	assert.Equal(t, int64(12), c.Load())

	// Closing one broker must not disturb the other's pending value.
	a.Close()
	assert.Equal(t, int64(12), c.Load())
	b.Add(1)
	assert.Equal(t, int64(13), c.Load())

	b.Close()
	c.Close()
}

func TestBroker_SubGoesNegative(t *testing.T) {
	c := New(0)
	b := NewBroker(c)
	b.Sub(5)
	assert.Equal(t, int64(-5), c.Load())
	b.Close()
	assert.Equal(t, int64(-5), c.Load())
	c.Close()
}

func TestBroker_ExchangeDrainsPendingValue(t *testing.T) {
	c := New(0)
	b := NewBroker(c)
	b.Add(5)

	assert.Equal(t, int64(5), c.Exchange(0))

	// The broker was reset, not closed; it keeps working from zero.
	b.Add(2)
	assert.Equal(t, int64(2), c.Load())

	b.Close()
	c.Close()
}

// One writer increments through a broker while a reader polls Load. With no
// broker teardown in play every observation must be within range and
// non-decreasing.
func TestBroker_MonotonicLoadUnderSingleWriter(t *testing.T) {
	c := New(0)
	b := NewBroker(c)
	const total = 1000

	samples := make([]int64, 0, 200)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			b.Inc()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			samples = append(samples, c.Load())
		}
	}()
	wg.Wait()

	var prev int64
	for _, v := range samples {
		require.GreaterOrEqual(t, v, prev)
		require.LessOrEqual(t, v, int64(total))
		prev = v
	}
	require.Equal(t, int64(total), c.Load())
	b.Close()
	c.Close()
}
