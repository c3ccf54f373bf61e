package addr_test

import (
	"testing"

	"github.com/joeycumines/moesi-sim/internal/addr"
	"github.com/stretchr/testify/require"
)

func TestLayout_wordSize2Sets2(t *testing.T) {
	l := addr.NewLayout(2, 2)
	require.Equal(t, uint(1), l.OffsetBits)
	require.Equal(t, uint(1), l.IndexBits)
	require.Equal(t, uint64(0x1), l.OffsetMask)
	require.Equal(t, uint64(0x2), l.IndexMask)
}

func TestLayout_singleSet(t *testing.T) {
	l := addr.NewLayout(2, 1)
	require.Equal(t, uint(0), l.IndexBits)
	require.Equal(t, uint64(0), l.Index(0xBEEF))
}

func TestLayout_roundTrip(t *testing.T) {
	l := addr.NewLayout(2, 4)
	for a := uint64(0); a < 256; a++ {
		got := (l.Tag(a) << (l.OffsetBits + l.IndexBits)) | (l.Index(a) << l.OffsetBits) | l.Offset(a)
		require.Equal(t, a, got)
	}
}

func TestLayout_reconstruct(t *testing.T) {
	l := addr.NewLayout(2, 2)
	const block4 = 0x4
	tag := l.Tag(block4)
	index := l.Index(block4)
	require.Equal(t, uint64(block4), l.Reconstruct(tag, index))
}

func TestLayout_blockAddress(t *testing.T) {
	l := addr.NewLayout(2, 2)
	require.Equal(t, uint64(0), l.BlockAddress(0x0))
	require.Equal(t, uint64(1), l.BlockAddress(0x2))
}
