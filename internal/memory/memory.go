// Package memory implements main memory: a linear array of words, read and
// written only by the bus arbiter. It needs no locking of its own, since it
// is thread-confined to that single goroutine (spec.md §4.2, §5).
package memory

import (
	"github.com/joeycumines/moesi-sim/internal/addr"
	"github.com/joeycumines/moesi-sim/internal/events"
)

// Memory is B words, indexed by block address.
type Memory struct {
	words  []uint16
	layout addr.Layout
	sink   events.Sink
}

// New returns Memory with blocks words, all zeroed, reporting writes to
// sink. sink may be events.Discard. layout is used only by Read, to
// decompose a full address into its block address.
func New(blocks int, layout addr.Layout, sink events.Sink) *Memory {
	if blocks <= 0 {
		panic("memory: blocks must be positive")
	}
	if sink == nil {
		sink = events.Discard
	}
	return &Memory{
		words:  make([]uint16, blocks),
		layout: layout,
		sink:   sink,
	}
}

// Blocks returns the number of words in memory.
func (m *Memory) Blocks() int {
	return len(m.words)
}

// Read returns the word at address>>offsetBits, per spec.md §4.2.
func (m *Memory) Read(address uint64) uint16 {
	return m.words[m.layout.BlockAddress(address)]
}

// Snapshot returns a copy of every word in memory, for test/debug inspection.
func (m *Memory) Snapshot() []uint16 {
	out := make([]uint16, len(m.words))
	copy(out, m.words)
	return out
}

// Write stores word at blockIndex and emits a MemWrite event.
func (m *Memory) Write(blockIndex uint64, word uint16) {
	m.words[blockIndex] = word
	m.sink.Emit(events.MemWrite{BlockIndex: blockIndex, Word: word})
}
