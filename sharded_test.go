package distcount

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharded_AddSubLoad(t *testing.T) {
	s := NewSharded()
	s.Add(5)
	s.Add(10)
	s.Sub(3)
	assert.Equal(t, int64(12), s.Load())
	s.Close()
}

func TestSharded_Exchange(t *testing.T) {
	s := NewSharded()
	s.Add(10)
	assert.Equal(t, int64(10), s.Exchange(3))
	assert.Equal(t, int64(3), s.Load())
	s.Close()
}

func TestSharded_CloseFlushesPendingValues(t *testing.T) {
	s := NewSharded()
	s.Add(7)
	s.Close()
	// Per-P brokers were flushed into the residual.
	assert.Equal(t, int64(7), s.Load())
}

func TestSharded_ConcurrentWriters(t *testing.T) {
	s := NewSharded()
	const goroutines = 20
	const perG = 5000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				s.Inc()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(goroutines*perG), s.Load())
	require.Equal(t, int64(goroutines*perG), s.Exchange(0))
	require.Equal(t, int64(0), s.Load())
	s.Close()
}

func TestSharded_ConcurrentReadersDuringWrites(t *testing.T) {
	s := NewSharded()
	const total = 10000

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			s.Inc()
		}
	}()
	samples := make([]int64, 0, 100)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			samples = append(samples, s.Load())
		}
	}()
	wg.Wait()

	for _, v := range samples {
		require.GreaterOrEqual(t, v, int64(0))
		require.LessOrEqual(t, v, int64(total))
	}
	require.Equal(t, int64(total), s.Load())
	s.Close()
}

func TestSharded_InstancesAreIndependent(t *testing.T) {
	a := NewSharded()
	b := NewSharded()

	a.Add(5)
	b.Add(11)
	assert.Equal(t, int64(5), a.Load())
	assert.Equal(t, int64(11), b.Load())

	a.Close()
	b.Close()
}
