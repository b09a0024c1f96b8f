package distcount

import (
	"runtime"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// ShardedCounter composes a Counter with one lazily created Broker per P, so
// callers get distributed writes without managing broker lifetimes. Each
// instance owns its own broker slots; two ShardedCounters never share a
// broker.
//
// The zero value is not usable; call NewSharded. A ShardedCounter must not
// be copied after first use.
type ShardedCounter struct {
	global Counter
	shards []shardSlot
}

// shardSlot is padded so neighboring slots never share a cache line.
type shardSlot struct {
	broker atomic.Pointer[Broker]
	_      cpu.CacheLinePad
}

// NewSharded returns a ShardedCounter with zero total and one broker slot
// per P, sized by GOMAXPROCS at the time of the call.
func NewSharded() *ShardedCounter {
	return &ShardedCounter{
		shards: make([]shardSlot, runtime.GOMAXPROCS(0)),
	}
}

// Add adds delta to the counter via the calling P's broker, creating the
// broker on first use.
//
// The broker update is weak-atomic: correctness needs a single writer, which
// is guaranteed here by pinning the goroutine to its P for the whole
// read-modify-write. If GOMAXPROCS has grown past the slot slice since
// construction, the write goes straight to the internal counter's residual,
// which is safe under any number of writers.
func (s *ShardedCounter) Add(delta int64) {
	for {
		pid := runtime_procPin()
		if pid >= len(s.shards) {
			runtime_procUnpin()
			s.global.Add(delta)
			return
		}
		if b := s.shards[pid].broker.Load(); b != nil {
			b.Add(delta)
			runtime_procUnpin()
			return
		}
		runtime_procUnpin()
		// Registration takes the counter's lock, so it must happen unpinned.
		s.populate(pid)
	}
}

// Sub subtracts delta. See Add.
func (s *ShardedCounter) Sub(delta int64) {
	s.Add(-delta)
}

// Inc adds one.
func (s *ShardedCounter) Inc() { s.Add(1) }

// Dec subtracts one.
func (s *ShardedCounter) Dec() { s.Sub(1) }

// populate installs a broker into slot pid unless another goroutine got
// there first.
func (s *ShardedCounter) populate(pid int) {
	b := NewBroker(&s.global)
	if !s.shards[pid].broker.CompareAndSwap(nil, b) {
		b.Close() // lost the install race; flushes zero
	}
}

// Load returns the current total. See Counter.Load for read semantics.
func (s *ShardedCounter) Load() int64 {
	return s.global.Load()
}

// Exchange drains all per-P brokers, rebases the total to to, and returns
// the total held before the call. See Counter.Exchange.
func (s *ShardedCounter) Exchange(to int64) int64 {
	return s.global.Exchange(to)
}

// Close flushes and deregisters every per-P broker, then closes the
// internal counter. All writers must have stopped before Close is called; a
// concurrent Add may register a fresh broker and make Close panic.
func (s *ShardedCounter) Close() {
	for i := range s.shards {
		if b := s.shards[i].broker.Swap(nil); b != nil {
			b.Close()
		}
	}
	s.global.Close()
}
