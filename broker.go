package distcount

import (
	"container/list"
	"sync/atomic"
)

// Broker is a write-only accumulator bound to one Counter. It is intended to
// have exactly one writer at a time: a goroutine, a worker, or any other
// single logical owner. Under that contract its Add and Sub avoid the locked
// read-modify-write a shared atomic would need, while the parent counter's
// Load and Exchange can still read the value atomically from other
// goroutines.
//
// A Broker must not be copied. Its registration with the parent counter is
// part of its identity and lasts until Close.
type Broker struct {
	value  atomic.Int64
	parent *Counter
	elem   *list.Element
}

// NewBroker registers a new zero-valued broker with c. The broker is visible
// to c's Load and Exchange from the moment NewBroker returns. The caller
// owns the broker and must Close it before c is closed.
func NewBroker(c *Counter) *Broker {
	b := &Broker{parent: c}
	b.elem = c.register(b)
	return b
}

// Add adds delta to the broker's pending value.
//
// The update is a separate atomic load and atomic store, not a single
// fetch-add. That is only correct because a broker has one writer; two
// goroutines calling Add on the same broker concurrently will lose updates.
func (b *Broker) Add(delta int64) {
	b.value.Store(b.value.Load() + delta)
}

// Sub subtracts delta from the broker's pending value. Same single-writer
// contract as Add.
func (b *Broker) Sub(delta int64) {
	b.Add(-delta)
}

// Inc adds one.
func (b *Broker) Inc() { b.Add(1) }

// Dec subtracts one.
func (b *Broker) Dec() { b.Sub(1) }

// Close flushes the broker's pending value into the parent counter's
// residual, then deregisters it. Close must be called exactly once, after
// the broker's writer has stopped.
//
// Known limitation: the flush lands before the broker leaves the registry,
// and the pending value is not zeroed in between. A Load or Exchange on the
// parent that runs inside that window counts the flushed value twice, once
// via the residual and once via the still-registered broker. Callers that
// need exact reads during teardown must serialize teardown against reads
// themselves.
func (b *Broker) Close() {
	b.parent.Add(b.value.Load())
	b.parent.unregister(b.elem)
}
