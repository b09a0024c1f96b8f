package distcount

import (
	"sync/atomic"
	"testing"
)

func BenchmarkAtomicInt64_Add(b *testing.B) {
	var n atomic.Int64
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			n.Add(1)
		}
	})
}

func BenchmarkCounter_DirectAdd(b *testing.B) {
	c := New(0)
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			c.Add(1)
		}
	})
	b.StopTimer()
	c.Close()
}

func BenchmarkSharded_Add(b *testing.B) {
	s := NewSharded()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			s.Add(1)
		}
	})
	b.StopTimer()
	s.Close()
}

func BenchmarkSharded_Load(b *testing.B) {
	s := NewSharded()
	s.Add(1)
	for i := 0; i < b.N; i++ {
		_ = s.Load()
	}
	b.StopTimer()
	s.Close()
}
