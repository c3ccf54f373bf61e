// Package driver synthesizes the instruction stream fed to each CPU
// front-end. spec.md §1 treats the driver as an external collaborator; this
// package supplies the two concrete shapes the simulator needs: a
// deterministic random generator for open-ended runs, and a scripted
// sequence for reproducing the fixed scenarios in spec.md §8.
package driver

import (
	"context"

	"github.com/joeycumines/moesi-sim/internal/bus"
	"github.com/joeycumines/moesi-sim/internal/rng"
)

// Driver pushes one instruction to every inlet, in processor order,
// synchronously: spec.md §6 requires pushing to every inlet each step, or
// none. done is true once the driver has no more instructions of its own to
// issue (only ScriptedDriver ever reports this; RandomDriver runs forever).
// Step returns early with a non-nil error (ctx.Err()) if ctx is cancelled
// before every inlet has received its instruction for this step.
type Driver interface {
	Step(ctx context.Context, inlets []chan<- bus.Instruction) (done bool, err error)
}

// RandomDriver synthesizes instructions from a seeded rng.Source, mirroring
// the original simulator's gen_random_instruction: a uniform three-way
// choice of variant, then an address and (for Write) a word drawn from the
// same stream.
type RandomDriver struct {
	src          *rng.Source
	addressSpace uint64
}

// NewRandomDriver returns a RandomDriver seeded with seed, choosing
// addresses in [0, addressSpace). addressSpace must be positive.
func NewRandomDriver(seed uint32, addressSpace uint64) *RandomDriver {
	if addressSpace == 0 {
		panic("driver: addressSpace must be positive")
	}
	return &RandomDriver{src: rng.New(seed), addressSpace: addressSpace}
}

// Step implements Driver.
func (d *RandomDriver) Step(ctx context.Context, inlets []chan<- bus.Instruction) (bool, error) {
	for _, inlet := range inlets {
		instr := d.next()
		select {
		case inlet <- instr:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	return false, nil
}

func (d *RandomDriver) next() bus.Instruction {
	switch d.src.Range(0, 2) {
	case 0:
		return bus.Instruction{Kind: bus.Calc}
	case 1:
		address := d.src.Range(0, uint32(d.addressSpace-1))
		return bus.Instruction{Kind: bus.Read, Address: uint64(address)}
	default:
		address := d.src.Range(0, uint32(d.addressSpace-1))
		word := uint16(d.src.Range(0, 0xFFFF))
		return bus.Instruction{Kind: bus.Write, Address: uint64(address), Word: word}
	}
}

// ScriptedDriver replays a fixed, per-processor instruction sequence. Once
// every processor's script is exhausted, Step reports done=true without
// sending anything; a processor whose script is shorter than others
// receives Calc for its remaining steps so the synchronous-push contract is
// never broken early for its peers.
type ScriptedDriver struct {
	scripts [][]bus.Instruction
	step    int
}

// NewScriptedDriver returns a ScriptedDriver replaying scripts[p] for
// processor p. The run ends once every script has been fully replayed.
func NewScriptedDriver(scripts [][]bus.Instruction) *ScriptedDriver {
	return &ScriptedDriver{scripts: scripts}
}

// Step implements Driver.
func (d *ScriptedDriver) Step(ctx context.Context, inlets []chan<- bus.Instruction) (bool, error) {
	done := true
	for p := range d.scripts {
		if d.step < len(d.scripts[p]) {
			done = false
		}
	}
	if done {
		return true, nil
	}

	for p, inlet := range inlets {
		var instr bus.Instruction
		if p < len(d.scripts) && d.step < len(d.scripts[p]) {
			instr = d.scripts[p][d.step]
		} else {
			instr = bus.Instruction{Kind: bus.Calc}
		}
		select {
		case inlet <- instr:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	d.step++
	return false, nil
}
