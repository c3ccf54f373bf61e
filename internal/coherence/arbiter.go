package coherence

import (
	"context"
	"time"

	"github.com/joeycumines/moesi-sim/internal/bus"
	"github.com/joeycumines/moesi-sim/internal/obslog"
)

// runArbiter is the single serializing agent of spec.md §4.6: it owns main
// memory outright, handles one bus signal end-to-end before looking at the
// next (so the propagate-then-collect sequence of a ReadMiss is atomic with
// respect to every other signal), and never takes a cache lock itself.
func (s *System) runArbiter(ctx context.Context) {
	defer s.wg.Done()

	for {
		var sig bus.Signal
		select {
		case v, ok := <-s.cpuToBus:
			if !ok {
				obslog.Disconnect(s.log, "arbiter", -1, "cpu signal channel")
				return
			}
			sig = v
		case <-ctx.Done():
			return
		}

		if s.cfg.BusDelay > 0 {
			select {
			case <-time.After(s.cfg.BusDelay):
			case <-ctx.Done():
				return
			}
		}

		var ok bool
		switch sig.Kind {
		case bus.Invalidate:
			ok = s.propagate(ctx, sig)
		case bus.ReadMiss:
			ok = s.handleReadMiss(ctx, sig)
		case bus.WriteMem:
			s.memory.Write(s.layout.BlockAddress(sig.Address), sig.Word)
			ok = true
		}
		if !ok {
			return
		}
	}
}

// propagate sends sig to every controller but the one that originated it.
func (s *System) propagate(ctx context.Context, sig bus.Signal) bool {
	for i, ch := range s.busToCtrl {
		if i == sig.Origin {
			continue
		}
		select {
		case ch <- sig:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

// handleReadMiss propagates a ReadMiss, collects exactly N-1 replies,
// reduces them to at most one supplied word (by invariant, at most one
// peer answers Some; if more than one somehow did, any is acceptable and
// all are equal), and answers the requester: Shared if a peer supplied the
// data, Exclusive if only main memory did.
func (s *System) handleReadMiss(ctx context.Context, sig bus.Signal) bool {
	if !s.propagate(ctx, sig) {
		return false
	}

	var supplied bool
	var word uint16
	for i := 0; i < s.cfg.NumProcessors-1; i++ {
		select {
		case reply, ok := <-s.ctrlToBus:
			if !ok {
				obslog.Disconnect(s.log, "arbiter", -1, "controller reply channel")
				return false
			}
			if reply.Ok {
				supplied = true
				word = reply.Word
			}
		case <-ctx.Done():
			return false
		}
	}

	out := bus.Reply{State: bus.StateExclusive, Word: s.memory.Read(sig.Address)}
	if supplied {
		out = bus.Reply{State: bus.StateShared, Word: word}
	}

	select {
	case s.busToCPU[sig.Origin] <- out:
		return true
	case <-ctx.Done():
		return false
	}
}
