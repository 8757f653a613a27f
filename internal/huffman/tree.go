// Package huffman builds length-limited canonical Huffman codes from a
// symbol frequency table. It knows nothing about DEFLATE; the RFC 1951
// specific alphabets (literal/length, distance, bit-length) live in the
// deflate package and are expressed here only as plain frequency slices.
package huffman

const maxBits = 15 // longest code DEFLATE's bit-length alphabet can represent

// Tree holds one Huffman code construction. Freq is the caller-owned input
// frequency table; Len and Code are filled in by Build. A Tree is meant to
// be reused across many blocks so its scratch slices don't reallocate.
type Tree struct {
	Freq []int32
	Len  []uint8
	Code []uint16

	// Scratch sized for n leaves plus n-1 internal merge nodes, reused
	// across calls to Build.
	freq   []int32
	length []uint8
	parent []int32
	depth  []uint8
	heap   []int32

	heapLen int
	heapMax int
	blCount [maxBits + 1]int32
}

// NewTree allocates a Tree sized for an alphabet of n symbols.
func NewTree(n int) *Tree {
	size := 2*n + 1
	return &Tree{
		Freq:   make([]int32, n),
		Len:    make([]uint8, n),
		Code:   make([]uint16, n),
		freq:   make([]int32, size),
		length: make([]uint8, size),
		parent: make([]int32, size),
		depth:  make([]uint8, size),
		heap:   make([]int32, size),
	}
}

// Reset zeroes the frequency table so the tree can be reused for the next
// block.
func (t *Tree) Reset() {
	for i := range t.Freq {
		t.Freq[i] = 0
	}
}

// OptimalBits returns the bit cost of encoding this tree's frequencies with
// the lengths most recently computed by Build (excluding any extra bits the
// caller's alphabet attaches per symbol).
func (t *Tree) OptimalBits() int64 {
	var total int64
	for i, f := range t.Freq {
		if f != 0 {
			total += int64(f) * int64(t.Len[i])
		}
	}
	return total
}
