// Package distcount provides an int64 counter optimized for high-frequency
// concurrent writes at the cost of O(N) reads.
//
// A single shared atomic counter serializes every writer on one cache line.
// Counter instead lets each writer accumulate into a private Broker; reads
// briefly lock the broker registry and sum every live broker plus the
// counter's own residual value. ShardedCounter wraps this with one
// automatically managed broker per P, so callers never handle broker
// lifetimes themselves.
//
// Reads observe no snapshot across brokers: a Load that runs concurrently
// with writers may see a mix of before and after states for different
// brokers. Only the eventual aggregate is meaningful.
package distcount

import (
	"container/list"
	"fmt"
	"sync"
	"sync/atomic"
)

// Counter is a write-optimized counter. Increment it directly with Add/Sub,
// or distribute the write load across several Brokers bound to it. Reads are
// O(number of registered brokers).
//
// A Counter must not be copied after first use, and must outlive every
// Broker bound to it.
type Counter struct {
	residual atomic.Int64

	mu      sync.Mutex
	brokers list.List // of *Broker, guarded by mu
}

// New returns a Counter holding initial.
func New(initial int64) *Counter {
	c := &Counter{}
	c.residual.Store(initial)
	return c
}

// Add atomically adds delta to the counter's residual value. Safe under any
// number of concurrent callers.
func (c *Counter) Add(delta int64) {
	c.residual.Add(delta)
}

// Sub atomically subtracts delta from the counter's residual value.
func (c *Counter) Sub(delta int64) {
	c.residual.Add(-delta)
}

// Inc adds one.
func (c *Counter) Inc() { c.Add(1) }

// Dec subtracts one.
func (c *Counter) Dec() { c.Sub(1) }

// Load returns the current total: the sum of every registered broker's
// pending value plus the residual. Broker values are read without being
// reset.
//
// Load holds the registry lock while summing, but takes no snapshot across
// brokers: concurrent writers may be observed mid-flight, some before their
// latest update and some after. Values wrap on overflow.
func (c *Counter) Load() int64 {
	var sum int64
	c.mu.Lock()
	for e := c.brokers.Front(); e != nil; e = e.Next() {
		sum += e.Value.(*Broker).value.Load()
	}
	c.mu.Unlock()
	return sum + c.residual.Load()
}

// Exchange drains every registered broker to zero, swaps the residual to
// to, and returns the total that was held before the call. This is the one
// operation that resets broker state; use it to rebase the counter and avoid
// overflow, or to take a consume-once reading.
func (c *Counter) Exchange(to int64) int64 {
	var old int64
	c.mu.Lock()
	for e := c.brokers.Front(); e != nil; e = e.Next() {
		old += e.Value.(*Broker).value.Swap(0)
	}
	c.mu.Unlock()
	return old + c.residual.Swap(to)
}

// Close verifies that no brokers remain registered. Destroying a counter
// with live brokers is a programming error: the broker would flush into
// freed state. Close panics if any broker is still registered; callers must
// Close every Broker (and quiesce its writer) first.
func (c *Counter) Close() {
	c.mu.Lock()
	n := c.brokers.Len()
	c.mu.Unlock()
	if n != 0 {
		panic(fmt.Sprintf("distcount: Counter closed with %d live broker(s)", n))
	}
}

func (c *Counter) register(b *Broker) *list.Element {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.brokers.PushBack(b)
}

func (c *Counter) unregister(e *list.Element) {
	c.mu.Lock()
	c.brokers.Remove(e)
	c.mu.Unlock()
}
