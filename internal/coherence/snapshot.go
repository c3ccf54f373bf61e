package coherence

import "github.com/joeycumines/moesi-sim/internal/cache"

// Snapshot is a point-in-time, read-only copy of every cache's lines and
// main memory's words, for asserting the outcome of a scenario once the
// system is quiescent (spec.md §8's invariants are only claimed to hold at
// such a moment).
type Snapshot struct {
	Caches [][]cache.Line
	Memory []uint16
}

// Snapshot copies the current state of every cache and main memory. It
// takes every cache's lock in processor order, one at a time, so it never
// observes a torn cache line; main memory is copied without any lock.
// Callers should only call it once the driver has
// stopped pushing instructions, since it makes no attempt to also quiesce
// in-flight bus traffic.
func (s *System) Snapshot() Snapshot {
	caches := make([][]cache.Line, len(s.caches))
	for i, c := range s.caches {
		s.cacheMu[i].Lock()
		caches[i] = c.Snapshot()
		s.cacheMu[i].Unlock()
	}
	return Snapshot{
		Caches: caches,
		Memory: s.memory.Snapshot(),
	}
}
