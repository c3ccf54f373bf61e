package coherence

import (
	"context"
	"sync"

	"github.com/joeycumines/moesi-sim/internal/bus"
	"github.com/joeycumines/moesi-sim/internal/cache"
	"github.com/joeycumines/moesi-sim/internal/events"
	"github.com/joeycumines/moesi-sim/internal/moesi"
	"github.com/joeycumines/moesi-sim/internal/obslog"
)

// runCPU is the front-end loop of spec.md §4.4: one instruction at a time,
// off a capacity-1 inlet, acquiring its cache only around the lookup/store,
// never across bus rendezvous.
func (s *System) runCPU(ctx context.Context, id int) {
	defer s.wg.Done()

	c := s.caches[id]
	mu := &s.cacheMu[id]

	for {
		var instr bus.Instruction
		select {
		case v, ok := <-s.inlets[id]:
			if !ok {
				obslog.Disconnect(s.log, "cpu", id, "instruction inlet")
				return
			}
			instr = v
		case <-ctx.Done():
			return
		}

		var ok bool
		switch instr.Kind {
		case bus.Calc:
			ok = true
		case bus.Read:
			ok = s.cpuRead(ctx, id, mu, c, instr.Address)
		case bus.Write:
			ok = s.cpuWrite(ctx, id, mu, c, instr.Address, instr.Word)
		}
		if !ok {
			return
		}
	}
}

// cpuRead implements the Read(a) case of spec.md §4.4. It returns false if
// ctx was cancelled or a bus channel closed mid-transaction, signalling the
// caller to exit.
func (s *System) cpuRead(ctx context.Context, id int, mu *sync.Mutex, c *cache.Cache, address uint64) bool {
	mu.Lock()
	_, hit := c.Lookup(address)
	mu.Unlock()
	if hit {
		return true
	}

	s.sink.Emit(events.Alert{ProcessorID: id, Address: address, Op: events.Read})

	select {
	case s.cpuToBus <- bus.Signal{Origin: id, Address: address, Kind: bus.ReadMiss}:
	case <-ctx.Done():
		return false
	}

	var reply bus.Reply
	select {
	case r, ok := <-s.busToCPU[id]:
		if !ok {
			obslog.Disconnect(s.log, "cpu", id, "bus data channel")
			return false
		}
		reply = r
	case <-ctx.Done():
		return false
	}

	state := moesi.Exclusive
	if reply.State == bus.StateShared {
		state = moesi.Shared
	}

	mu.Lock()
	evicted := c.Store(address, state, reply.Word)
	mu.Unlock()

	if evicted.State.Dirty() {
		return s.writeBack(ctx, id, c, address, evicted)
	}
	return true
}

// cpuWrite implements the Write(a, w) case of spec.md §4.4.
func (s *System) cpuWrite(ctx context.Context, id int, mu *sync.Mutex, c *cache.Cache, address uint64, word uint16) bool {
	mu.Lock()
	evicted := c.Store(address, moesi.Modified, word)
	mu.Unlock()

	if evicted.Tag != c.Tag(address) || evicted.State == moesi.Invalid {
		s.sink.Emit(events.Alert{ProcessorID: id, Address: address, Op: events.Write})
	}

	if evicted.State != moesi.Modified {
		// When the evicted line was already Modified its peers are, by
		// invariant, already Invalid for this block, so no broadcast is
		// needed.
		select {
		case s.cpuToBus <- bus.Signal{Origin: id, Address: address, Kind: bus.Invalidate}:
		case <-ctx.Done():
			return false
		}
	}

	if evicted.State.Dirty() {
		return s.writeBack(ctx, id, c, address, evicted)
	}
	return true
}

// writeBack issues the WriteMem bus signal for a dirty line just evicted
// from the set that address maps to, addressed at that line's own block
// address (not address itself, which may be a different block in the same
// set).
func (s *System) writeBack(ctx context.Context, id int, c *cache.Cache, address uint64, evicted cache.Line) bool {
	oldAddress := c.ReconstructAddress(evicted.Tag, address)
	select {
	case s.cpuToBus <- bus.Signal{Origin: id, Address: oldAddress, Kind: bus.WriteMem, Word: evicted.Word}:
		return true
	case <-ctx.Done():
		return false
	}
}
