// Package coherence wires the six components of spec.md §4 into a running
// simulator: one CPU front-end and one snoop controller goroutine per
// processor, sharing that processor's cache under a mutex, plus a single
// bus arbiter goroutine serializing all cross-cache traffic and owning main
// memory outright. The concurrency shape follows spec.md §5 exactly:
// capacity-1 instruction inlets, capacity-0 rendezvous everywhere else, and
// cache locks always released before a goroutine blocks on the bus.
package coherence

import (
	"context"
	"sync"

	"github.com/joeycumines/moesi-sim/internal/addr"
	"github.com/joeycumines/moesi-sim/internal/bus"
	"github.com/joeycumines/moesi-sim/internal/cache"
	"github.com/joeycumines/moesi-sim/internal/events"
	"github.com/joeycumines/moesi-sim/internal/memory"
	"github.com/joeycumines/moesi-sim/internal/obslog"
)

// System is a fully wired coherence engine: N processors, one main memory,
// one bus. Construct with New, start its goroutines with Start, feed
// instructions through the channels returned by Inlets, and stop it by
// cancelling the context passed to Start.
type System struct {
	cfg    Config
	layout addr.Layout

	caches  []*cache.Cache
	cacheMu []sync.Mutex
	memory  *memory.Memory

	sink events.Sink
	log  *obslog.Logger

	inlets    []chan bus.Instruction
	cpuToBus  chan bus.Signal
	busToCtrl []chan bus.Signal
	ctrlToBus chan bus.SnoopReply
	busToCPU  []chan bus.Reply

	wg sync.WaitGroup
}

// New validates cfg and builds a System, cold (every cache line Invalid,
// every memory word zero). It starts no goroutines; call Start to run it.
func New(cfg Config, sink events.Sink, log *obslog.Logger) (*System, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = events.Discard
	}
	if log == nil {
		log = obslog.Discard
	}

	layout := addr.NewLayout(cfg.BytesPerWord, cfg.CacheSets)

	s := &System{
		cfg:       cfg,
		layout:    layout,
		caches:    make([]*cache.Cache, cfg.NumProcessors),
		cacheMu:   make([]sync.Mutex, cfg.NumProcessors),
		memory:    memory.New(cfg.MainMemoryBlocks, layout, sink),
		sink:      sink,
		log:       log,
		inlets:    make([]chan bus.Instruction, cfg.NumProcessors),
		cpuToBus:  make(chan bus.Signal),
		busToCtrl: make([]chan bus.Signal, cfg.NumProcessors),
		ctrlToBus: make(chan bus.SnoopReply),
		busToCPU:  make([]chan bus.Reply, cfg.NumProcessors),
	}

	for i := 0; i < cfg.NumProcessors; i++ {
		s.caches[i] = cache.New(i, cfg.CacheAssociativity, cfg.CacheSets, layout, sink)
		s.inlets[i] = make(chan bus.Instruction, 1)
		s.busToCtrl[i] = make(chan bus.Signal)
		s.busToCPU[i] = make(chan bus.Reply)
	}

	return s, nil
}

// Inlets returns the send-only instruction inlet for every processor, in
// processor order, for a Driver to push into.
func (s *System) Inlets() []chan<- bus.Instruction {
	out := make([]chan<- bus.Instruction, len(s.inlets))
	for i, ch := range s.inlets {
		out[i] = ch
	}
	return out
}

// NumProcessors returns the processor count this System was built with.
func (s *System) NumProcessors() int {
	return s.cfg.NumProcessors
}

// Start launches every goroutine: one CPU front-end and one snoop
// controller per processor, and the bus arbiter. They run until ctx is
// cancelled or their channels are closed. Call Wait to block for all of
// them to exit.
func (s *System) Start(ctx context.Context) {
	s.wg.Add(2*s.cfg.NumProcessors + 1)
	for i := 0; i < s.cfg.NumProcessors; i++ {
		go s.runCPU(ctx, i)
		go s.runSnoop(ctx, i)
	}
	go s.runArbiter(ctx)
}

// Wait blocks until every goroutine started by Start has exited.
func (s *System) Wait() {
	s.wg.Wait()
}

// Close closes every instruction inlet, which is the signal a CPU front-end
// uses to exit gracefully once it has drained any already-queued
// instruction. It does not cancel the context passed to Start; callers
// that also want the bus arbiter and snoop controllers to stop should
// cancel that context as well.
func (s *System) Close() {
	for _, ch := range s.inlets {
		close(ch)
	}
}
