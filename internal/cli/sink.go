package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/moesi-sim/internal/events"
)

// printingSink renders batches of events to w, either as a human-readable
// trace line or (jsonLines) a JSON object per line, optionally paced by a
// rate limiter so a human watching the trace scroll by isn't overwhelmed.
// Pacing never drops an event; it only delays printing it.
type printingSink struct {
	w         io.Writer
	jsonLines bool
	limiter   *catrate.Limiter
}

func newPrintingSink(w io.Writer, jsonLines bool, limiter *catrate.Limiter) *printingSink {
	return &printingSink{w: w, jsonLines: jsonLines, limiter: limiter}
}

// emitBatch is the downstream func passed to events.NewBatchSink.
func (p *printingSink) emitBatch(batch []events.Event) {
	for _, e := range batch {
		p.pace()
		if p.jsonLines {
			p.printJSON(e)
		} else {
			p.printText(e)
		}
	}
}

func (p *printingSink) pace() {
	if p.limiter == nil {
		return
	}
	if next, ok := p.limiter.Allow("trace"); !ok {
		time.Sleep(time.Until(next))
	}
}

func (p *printingSink) printText(e events.Event) {
	switch v := e.(type) {
	case events.CacheWrite:
		fmt.Fprintf(p.w, "cache %d slot %d -> %s tag=%#x word=%#04x\n",
			v.CacheID, v.SlotIndex, v.Line.State, v.Line.Tag, v.Line.Word)
	case events.MemWrite:
		fmt.Fprintf(p.w, "memory block %#x <- %#04x\n", v.BlockIndex, v.Word)
	case events.Alert:
		fmt.Fprintf(p.w, "cpu %d miss: %s %#x\n", v.ProcessorID, v.Op, v.Address)
	}
}

// traceRecord is the JSON shape printed per event in --json mode; only the
// fields belonging to the record's Kind are populated.
type traceRecord struct {
	Kind        string  `json:"kind"`
	CacheID     *int    `json:"cache_id,omitempty"`
	SlotIndex   *int    `json:"slot_index,omitempty"`
	State       string  `json:"state,omitempty"`
	Tag         *uint64 `json:"tag,omitempty"`
	Word        *uint16 `json:"word,omitempty"`
	BlockIndex  *uint64 `json:"block_index,omitempty"`
	ProcessorID *int    `json:"processor_id,omitempty"`
	Address     *uint64 `json:"address,omitempty"`
	Op          string  `json:"op,omitempty"`
}

func (p *printingSink) printJSON(e events.Event) {
	var rec traceRecord
	switch v := e.(type) {
	case events.CacheWrite:
		rec = traceRecord{
			Kind:      "cache_write",
			CacheID:   &v.CacheID,
			SlotIndex: &v.SlotIndex,
			State:     v.Line.State.String(),
			Tag:       &v.Line.Tag,
			Word:      &v.Line.Word,
		}
	case events.MemWrite:
		rec = traceRecord{
			Kind:       "mem_write",
			BlockIndex: &v.BlockIndex,
			Word:       &v.Word,
		}
	case events.Alert:
		rec = traceRecord{
			Kind:        "alert",
			ProcessorID: &v.ProcessorID,
			Address:     &v.Address,
			Op:          v.Op.String(),
		}
	default:
		return
	}

	enc := json.NewEncoder(p.w)
	if err := enc.Encode(rec); err != nil {
		fmt.Fprintf(p.w, `{"kind":"encode_error","error":%q}`+"\n", err.Error())
	}
}
