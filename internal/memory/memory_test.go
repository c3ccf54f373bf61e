package memory_test

import (
	"testing"

	"github.com/joeycumines/moesi-sim/internal/addr"
	"github.com/joeycumines/moesi-sim/internal/events"
	"github.com/joeycumines/moesi-sim/internal/memory"
	"github.com/stretchr/testify/require"
)

func TestMemory_readWrite(t *testing.T) {
	layout := addr.NewLayout(2, 2)
	rec := events.NewRecorder()
	m := memory.New(8, layout, rec)

	require.Equal(t, uint16(0), m.Read(0x0))

	m.Write(0, 0xBEEF)
	require.Equal(t, uint16(0xBEEF), m.Read(0x0))

	writes := rec.MemWrites()
	require.Len(t, writes, 1)
	require.Equal(t, uint64(0), writes[0].BlockIndex)
	require.Equal(t, uint16(0xBEEF), writes[0].Word)
}

func TestMemory_readUsesAddressNotBlockIndex(t *testing.T) {
	layout := addr.NewLayout(2, 2)
	m := memory.New(8, layout, events.Discard)
	m.Write(2, 0x1234)
	// block address 2 corresponds to byte address 4 (offsetBits=1)
	require.Equal(t, uint16(0x1234), m.Read(0x4))
}

func TestMemory_panicsOnNonPositiveBlocks(t *testing.T) {
	require.Panics(t, func() { memory.New(0, addr.NewLayout(2, 2), events.Discard) })
}
