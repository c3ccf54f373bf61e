// Package bus defines the messages exchanged between CPU front-ends, snoop
// controllers and the bus arbiter: bus signals, the arbiter's reply to a
// ReadMiss, and the instruction stream a driver feeds into a CPU front-end.
// The concurrency glue that moves these messages (the arbiter loop, the
// rendezvous channels) lives in package coherence; this package only
// defines the wire types, as a small set of sum types rather than an
// interface hierarchy (spec.md §9).
package bus

// SignalKind distinguishes the three bus signal variants.
type SignalKind int

const (
	Invalidate SignalKind = iota
	ReadMiss
	WriteMem
)

// Signal is one message placed on the bus: (origin, address, action). Word
// is only meaningful when Kind is WriteMem.
type Signal struct {
	Origin  int
	Address uint64
	Kind    SignalKind
	Word    uint16
}

// Reply is the arbiter's answer to a ReadMiss: the state the requester's
// cache should install, and the word supplied.
type Reply struct {
	State State
	Word  uint16
}

// State is the subset of MOESI states a ReadMiss reply may install:
// Shared (a peer supplied the data) or Exclusive (only main memory did).
// Kept distinct from moesi.State so the arbiter can't accidentally answer
// with Modified or Owned, which spec.md §4.6 never produces.
type State int

const (
	StateShared State = iota
	StateExclusive
)

// SnoopReply is what a snoop controller sends back to the arbiter in
// response to a ReadMiss: the word, if it had the block cached, or ok=false
// if it was a miss.
type SnoopReply struct {
	Word uint16
	Ok   bool
}

// InstructionKind distinguishes the three instructions a driver may issue.
type InstructionKind int

const (
	Calc InstructionKind = iota
	Read
	Write
)

// Instruction is one unit of work for a CPU front-end.
type Instruction struct {
	Kind    InstructionKind
	Address uint64
	Word    uint16
}
