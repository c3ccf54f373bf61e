package coherence_test

import (
	"context"
	"testing"
	"time"

	"github.com/joeycumines/moesi-sim/internal/addr"
	"github.com/joeycumines/moesi-sim/internal/bus"
	"github.com/joeycumines/moesi-sim/internal/cache"
	"github.com/joeycumines/moesi-sim/internal/coherence"
	"github.com/joeycumines/moesi-sim/internal/events"
	"github.com/joeycumines/moesi-sim/internal/moesi"
	"github.com/stretchr/testify/require"
)

// scenario geometry throughout: 4 processors, 2 sets, 2-way, 8 memory
// blocks, word width 2 (spec.md §8's concrete scenarios).
func newScenarioSystem(t *testing.T) (*coherence.System, context.Context) {
	t.Helper()
	cfg := coherence.Config{
		NumProcessors:      4,
		CacheAssociativity: 2,
		CacheSets:          2,
		MainMemoryBlocks:   8,
		BytesPerWord:       2,
	}
	sys, err := coherence.New(cfg, events.Discard, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	sys.Start(ctx)
	t.Cleanup(func() {
		cancel()
		sys.Wait()
	})
	return sys, ctx
}

// step pushes instrs[p] to processor p's inlet for every processor (Calc
// for any processor not present in the map), matching spec.md §6's
// synchronous per-step push.
func step(t *testing.T, ctx context.Context, sys *coherence.System, instrs map[int]bus.Instruction) {
	t.Helper()
	for i, inlet := range sys.Inlets() {
		select {
		case inlet <- instrs[i]:
		case <-ctx.Done():
			t.Fatal("scenario context cancelled mid-step")
		}
	}
}

var scenarioLayout = addr.NewLayout(2, 2)

// findLine locates the resident line (if any) for address within one
// processor's cache snapshot, mirroring Cache.Lookup against raw
// Snapshot data.
func findLine(t *testing.T, snap []cache.Line, address uint64) (cache.Line, bool) {
	t.Helper()
	tag := scenarioLayout.Tag(address)
	index := scenarioLayout.Index(address)
	start := int(index) * 2
	for i := start; i < start+2; i++ {
		if snap[i].State != moesi.Invalid && snap[i].Tag == tag {
			return snap[i], true
		}
	}
	return cache.Line{}, false
}

func requireLineEventually(t *testing.T, sys *coherence.System, cpu int, address uint64, state moesi.State, word uint16) {
	t.Helper()
	require.Eventually(t, func() bool {
		snap := sys.Snapshot()
		line, ok := findLine(t, snap.Caches[cpu], address)
		return ok && line.State == state && line.Word == word
	}, 2*time.Second, time.Millisecond, "cpu %d expected (%s, %#x) at %#x", cpu, state, word, address)
}

func requireInvalidEventually(t *testing.T, sys *coherence.System, cpu int, address uint64) {
	t.Helper()
	require.Eventually(t, func() bool {
		snap := sys.Snapshot()
		_, ok := findLine(t, snap.Caches[cpu], address)
		return !ok
	}, 2*time.Second, time.Millisecond, "cpu %d expected %#x to be invalid", cpu, address)
}

// TestScenarios_S1throughS4 walks spec.md §8's S1-S4 in sequence, the way a
// single simulation run would: exclusive fill, share on second reader,
// write invalidation, write-back on eviction.
func TestScenarios_S1throughS4(t *testing.T) {
	sys, ctx := newScenarioSystem(t)

	// S1 - exclusive fill.
	step(t, ctx, sys, map[int]bus.Instruction{0: {Kind: bus.Read, Address: 0x0}})
	requireLineEventually(t, sys, 0, 0x0, moesi.Exclusive, 0x0000)

	// S2 - share on second reader.
	step(t, ctx, sys, map[int]bus.Instruction{1: {Kind: bus.Read, Address: 0x0}})
	requireLineEventually(t, sys, 0, 0x0, moesi.Owned, 0x0000)
	requireLineEventually(t, sys, 1, 0x0, moesi.Shared, 0x0000)

	// S3 - write invalidation.
	step(t, ctx, sys, map[int]bus.Instruction{2: {Kind: bus.Write, Address: 0x0, Word: 0xBEEF}})
	requireLineEventually(t, sys, 2, 0x0, moesi.Modified, 0xBEEF)
	requireInvalidEventually(t, sys, 0, 0x0)
	requireInvalidEventually(t, sys, 1, 0x0)

	// S4 - eviction under minimum-MOESI-priority replacement: address 0x4
	// (block 2) maps to the same set as block 0 (2 sets, bit 1 of the byte
	// address - bit 0 of the block address - selects the set). That set's
	// other slot is still Invalid, which is
	// strictly lower priority than the Modified block-0 line, so the
	// Invalid slot is the victim and block 0 survives untouched - no
	// write-back is triggered here (see the replacement-policy decision in
	// DESIGN.md for why this departs from the spec's own S4 narrative).
	step(t, ctx, sys, map[int]bus.Instruction{2: {Kind: bus.Write, Address: 0x4, Word: 0x0001}})
	requireLineEventually(t, sys, 2, 0x4, moesi.Modified, 0x0001)
	requireLineEventually(t, sys, 2, 0x0, moesi.Modified, 0xBEEF)

	require.Eventually(t, func() bool {
		return sys.Snapshot().Memory[0] == 0x0000
	}, 2*time.Second, time.Millisecond, "memory block 0 is untouched: the Modified line was never evicted")
}

// TestScenario_S5_sourcingFromOwned sets up CPU0=Owned, CPU1=Shared for one
// block and checks that a third reader is answered Shared without
// disturbing the Owned/Shared pair. Nothing is written here, so backing
// memory is not stale: memory and every cached copy hold 0.
func TestScenario_S5_sourcingFromOwned(t *testing.T) {
	sys, ctx := newScenarioSystem(t)

	// block 1 (address 0x2) ends up Owned@CPU0, Shared@CPU1 via the same
	// fill-then-share path as S1/S2.
	step(t, ctx, sys, map[int]bus.Instruction{0: {Kind: bus.Read, Address: 0x2}})
	requireLineEventually(t, sys, 0, 0x2, moesi.Exclusive, 0x0000)

	step(t, ctx, sys, map[int]bus.Instruction{1: {Kind: bus.Read, Address: 0x2}})
	requireLineEventually(t, sys, 0, 0x2, moesi.Owned, 0x0000)
	requireLineEventually(t, sys, 1, 0x2, moesi.Shared, 0x0000)

	step(t, ctx, sys, map[int]bus.Instruction{2: {Kind: bus.Read, Address: 0x2}})
	requireLineEventually(t, sys, 2, 0x2, moesi.Shared, 0x0000)
	requireLineEventually(t, sys, 0, 0x2, moesi.Owned, 0x0000)
	requireLineEventually(t, sys, 1, 0x2, moesi.Shared, 0x0000)
}

// TestScenario_S6_calcIsNoOp asserts a Calc instruction leaves every cache
// and main memory unchanged. Events are not checked: the scenario system
// uses events.Discard.
func TestScenario_S6_calcIsNoOp(t *testing.T) {
	sys, ctx := newScenarioSystem(t)

	before := sys.Snapshot()
	step(t, ctx, sys, map[int]bus.Instruction{3: {Kind: bus.Calc}})
	time.Sleep(50 * time.Millisecond)

	after := sys.Snapshot()
	require.Equal(t, before, after)
}

func TestNew_rejectsInvalidConfig(t *testing.T) {
	base := coherence.Config{
		NumProcessors:      2,
		CacheAssociativity: 2,
		CacheSets:          2,
		MainMemoryBlocks:   4,
		BytesPerWord:       2,
	}

	cfg := base
	cfg.NumProcessors = 0
	_, err := coherence.New(cfg, nil, nil)
	require.ErrorIs(t, err, coherence.ErrNumProcessors)

	cfg = base
	cfg.CacheAssociativity = 0
	_, err = coherence.New(cfg, nil, nil)
	require.ErrorIs(t, err, coherence.ErrAssociativity)

	cfg = base
	cfg.CacheSets = 0
	_, err = coherence.New(cfg, nil, nil)
	require.ErrorIs(t, err, coherence.ErrSets)

	cfg = base
	cfg.MainMemoryBlocks = 0
	_, err = coherence.New(cfg, nil, nil)
	require.ErrorIs(t, err, coherence.ErrMemoryBlocks)

	cfg = base
	cfg.BytesPerWord = 0
	_, err = coherence.New(cfg, nil, nil)
	require.ErrorIs(t, err, coherence.ErrBytesPerWord)
}
