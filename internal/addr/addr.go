// Package addr implements the address decomposition shared by the private
// cache and main memory: splitting a byte address into tag, index and
// offset fields, and reconstructing a block address from tag and index.
package addr

// Layout holds the derived bit widths and masks for one cache geometry.
// Bit widths are derived by ceil(log2(x)): offsetBits from the word size in
// bytes, indexBits from the number of sets.
type Layout struct {
	OffsetBits uint
	IndexBits  uint
	OffsetMask uint64
	IndexMask  uint64
}

// NewLayout derives a Layout from the number of bytes per word and the
// number of cache sets. Both must be positive.
func NewLayout(bytesPerWord, sets int) Layout {
	if bytesPerWord <= 0 || sets <= 0 {
		panic("addr: bytesPerWord and sets must be positive")
	}

	offsetBits := ceilLog2(bytesPerWord)
	indexBits := ceilLog2(sets)

	return Layout{
		OffsetBits: offsetBits,
		IndexBits:  indexBits,
		OffsetMask: mask(offsetBits),
		IndexMask:  mask(indexBits) << offsetBits,
	}
}

// ceilLog2 returns the number of bits needed to represent values
// [0, n-1], i.e. ceil(log2(n)) for n >= 1.
func ceilLog2(n int) uint {
	var bits uint
	x := n - 1
	for x != 0 {
		x >>= 1
		bits++
	}
	return bits
}

func mask(bits uint) uint64 {
	if bits == 0 {
		return 0
	}
	return (uint64(1) << bits) - 1
}

// Offset returns the offset field of address.
func (l Layout) Offset(address uint64) uint64 {
	return address & l.OffsetMask
}

// Index returns the set index field of address.
func (l Layout) Index(address uint64) uint64 {
	return (address & l.IndexMask) >> l.OffsetBits
}

// Tag returns the tag field of address.
func (l Layout) Tag(address uint64) uint64 {
	return (address &^ (l.IndexMask | l.OffsetMask)) >> (l.OffsetBits + l.IndexBits)
}

// BlockAddress returns address shifted right by OffsetBits, i.e. the
// word-granularity address used to index main memory.
func (l Layout) BlockAddress(address uint64) uint64 {
	return address >> l.OffsetBits
}

// Reconstruct rebuilds the block's byte address (offset zeroed) from a tag
// and index pair, the inverse of Tag/Index for a line actually resident at
// that tag/index.
func (l Layout) Reconstruct(tag, index uint64) uint64 {
	return ((tag << l.IndexBits) | index) << l.OffsetBits
}
