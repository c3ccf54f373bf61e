// Package cache implements a private, set-associative, MOESI-tagged cache.
// One Cache is owned exclusively by a single processor's CPU front-end and
// snoop controller pair; callers are responsible for the mutual-exclusion
// discipline described in spec.md §5 (this package has no lock of its own).
package cache

import (
	"github.com/joeycumines/moesi-sim/internal/addr"
	"github.com/joeycumines/moesi-sim/internal/events"
	"github.com/joeycumines/moesi-sim/internal/moesi"
)

// Line is one cache line: its coherence state, block tag, and single-word
// payload.
type Line struct {
	State moesi.State
	Tag   uint64
	Word  uint16
}

// Cache is a fixed sets*associativity array of Lines, all cold (Invalid,
// tag 0, word 0) until written.
type Cache struct {
	id            int
	associativity int
	sets          int
	layout        addr.Layout
	lines         []Line
	sink          events.Sink
}

// New returns a cold Cache for processor id, with the given geometry and
// address layout, reporting mutations to sink (events.Discard is valid).
func New(id, associativity, sets int, layout addr.Layout, sink events.Sink) *Cache {
	if associativity <= 0 || sets <= 0 {
		panic("cache: associativity and sets must be positive")
	}
	if sink == nil {
		sink = events.Discard
	}
	return &Cache{
		id:            id,
		associativity: associativity,
		sets:          sets,
		layout:        layout,
		lines:         make([]Line, sets*associativity),
		sink:          sink,
	}
}

// Tag returns the tag field of address, for this cache's geometry.
func (c *Cache) Tag(address uint64) uint64 {
	return c.layout.Tag(address)
}

// Index returns the set index field of address.
func (c *Cache) Index(address uint64) uint64 {
	return c.layout.Index(address)
}

// Address reconstructs the full block address of the line currently at
// slot index, given its tag.
func (c *Cache) Address(slot int) uint64 {
	index := uint64(slot / c.associativity)
	return c.layout.Reconstruct(c.lines[slot].Tag, index)
}

// ReconstructAddress rebuilds the full block address of a line holding tag,
// in the same set that address maps to. Used by the caller after Store
// returns an evicted line, to recover that line's own address for a
// write-back.
func (c *Cache) ReconstructAddress(tag, address uint64) uint64 {
	return c.layout.Reconstruct(tag, c.Index(address))
}

func (c *Cache) setBounds(index uint64) (start, end int) {
	start = int(index) * c.associativity
	return start, start + c.associativity
}

// Lookup scans the target set for a line whose tag matches address and
// whose state is not Invalid, returning it by value so the caller may
// release the cache lock before issuing bus I/O.
func (c *Cache) Lookup(address uint64) (Line, bool) {
	tag := c.Tag(address)
	start, end := c.setBounds(c.Index(address))
	for i := start; i < end; i++ {
		if c.lines[i].State != moesi.Invalid && c.lines[i].Tag == tag {
			return c.lines[i], true
		}
	}
	return Line{}, false
}

// Store selects a victim slot in the target set by minimum MOESI priority
// (ties broken by lowest slot index), replaces it with (state, tag(address),
// word), emits a CacheWrite event, and returns the evicted line so the
// caller can inspect it for write-back duty.
func (c *Cache) Store(address uint64, state moesi.State, word uint16) Line {
	start, end := c.setBounds(c.Index(address))

	victim := start
	for i := start + 1; i < end; i++ {
		if c.lines[i].State.Priority() < c.lines[victim].State.Priority() {
			victim = i
		}
	}

	evicted := c.lines[victim]
	c.lines[victim] = Line{State: state, Tag: c.Tag(address), Word: word}
	c.emit(victim)
	return evicted
}

// Invalidate sets every line in the target set whose tag matches address to
// Invalid, leaving the stored word untouched. It does not emit an event:
// peers invalidating in response to bus traffic is part of normal coherence
// traffic, not a mutation a viewer needs to distinguish from the Invalidate
// signal itself.
func (c *Cache) Invalidate(address uint64) {
	tag := c.Tag(address)
	start, end := c.setBounds(c.Index(address))
	for i := start; i < end; i++ {
		if c.lines[i].Tag == tag {
			c.lines[i].State = moesi.Invalid
		}
	}
}

// ChangeState updates the state of the line in the target set currently
// holding address (tag match, not Invalid), emitting a CacheWrite event. It
// panics if no such line exists: callers only invoke this after a
// successful Lookup of the same address, so a miss here indicates an
// invariant violation (spec.md §7, "unreachable state").
func (c *Cache) ChangeState(address uint64, newState moesi.State) {
	tag := c.Tag(address)
	start, end := c.setBounds(c.Index(address))
	for i := start; i < end; i++ {
		if c.lines[i].State != moesi.Invalid && c.lines[i].Tag == tag {
			c.lines[i].State = newState
			c.emit(i)
			return
		}
	}
	panic("cache: change_state on a line that is not present")
}

func (c *Cache) emit(slot int) {
	c.sink.Emit(events.CacheWrite{
		CacheID:   c.id,
		SlotIndex: slot,
		Line: events.Line{
			State: c.lines[slot].State,
			Tag:   c.lines[slot].Tag,
			Word:  c.lines[slot].Word,
		},
	})
}

// Snapshot returns a copy of every line, for test/debug inspection.
func (c *Cache) Snapshot() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}
