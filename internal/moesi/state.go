// Package moesi defines the cache-line coherence states shared by every
// other component: the private cache, the CPU front-end, the snoop
// controller and the bus arbiter all reason about the same five-valued
// State.
package moesi

// State is a cache line's MOESI coherence state. The zero value is Invalid.
type State int

const (
	Invalid State = iota
	Shared
	Exclusive
	Modified
	Owned
)

// priority orders states for replacement selection: lower is evicted first.
// Owned is the highest priority, since its data has not yet been written
// back and is the sole canonical copy.
var priority = map[State]int{
	Invalid:   0,
	Shared:    1,
	Exclusive: 2,
	Modified:  3,
	Owned:     4,
}

// Priority returns s's replacement priority. Lower priority is evicted
// first.
func (s State) Priority() int {
	return priority[s]
}

// Dirty reports whether s requires a write-back before the line holding it
// may be discarded (Modified or Owned).
func (s State) Dirty() bool {
	return s == Modified || s == Owned
}

// String implements fmt.Stringer with the single-letter form used in the
// original design's trace output (M/O/E/S/I).
func (s State) String() string {
	switch s {
	case Modified:
		return "M"
	case Owned:
		return "O"
	case Exclusive:
		return "E"
	case Shared:
		return "S"
	case Invalid:
		return "I"
	default:
		return "?"
	}
}
