package coherence

import (
	"context"

	"github.com/joeycumines/moesi-sim/internal/bus"
	"github.com/joeycumines/moesi-sim/internal/moesi"
	"github.com/joeycumines/moesi-sim/internal/obslog"
)

// runSnoop is the per-processor controller loop of spec.md §4.5. It shares
// its cache with runCPU under the same mutex and releases the lock around
// every send on the data reply channel, so the arbiter can make progress
// even while the local CPU is contending for the cache.
func (s *System) runSnoop(ctx context.Context, id int) {
	defer s.wg.Done()

	c := s.caches[id]
	mu := &s.cacheMu[id]

	for {
		var sig bus.Signal
		select {
		case v, ok := <-s.busToCtrl[id]:
			if !ok {
				obslog.Disconnect(s.log, "snoop", id, "bus signal channel")
				return
			}
			sig = v
		case <-ctx.Done():
			return
		}

		switch sig.Kind {
		case bus.Invalidate:
			mu.Lock()
			c.Invalidate(sig.Address)
			mu.Unlock()

		case bus.ReadMiss:
			mu.Lock()
			line, hit := c.Lookup(sig.Address)
			if hit && (line.State == moesi.Exclusive || line.State == moesi.Modified) {
				c.ChangeState(sig.Address, moesi.Owned)
			}
			mu.Unlock()

			reply := bus.SnoopReply{Ok: hit}
			if hit {
				reply.Word = line.Word
			}
			select {
			case s.ctrlToBus <- reply:
			case <-ctx.Done():
				return
			}

		case bus.WriteMem:
			// main-memory write-backs never touch private caches.
		}
	}
}
