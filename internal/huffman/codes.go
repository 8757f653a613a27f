package huffman

import "math/bits"

// genCodes assigns canonical codes to every symbol with a non-zero length,
// in order of increasing length and, within a length, increasing symbol
// index. Codes are bit-reversed on the way out since DEFLATE transmits
// Huffman codes most-significant-bit first but everything else LSB-first.
func genCodes(lens []uint8, maxCode int, blCount []int32, codes []uint16) {
	var nextCode [maxBits + 1]uint32
	var code uint32
	for bits := 1; bits <= maxBits; bits++ {
		code = (code + uint32(blCount[bits-1])) << 1
		nextCode[bits] = code
	}
	for n := 0; n <= maxCode; n++ {
		l := lens[n]
		if l == 0 {
			continue
		}
		c := nextCode[l]
		nextCode[l]++
		codes[n] = ReverseBits(uint16(c), l)
	}
}

// CanonicalCodes assigns canonical Huffman codes given an already-decided
// length for every symbol 0..maxCode, counting the length histogram itself.
// It is the building block static (fixed) trees use, since their lengths
// are constants rather than something Build needs to compute.
func CanonicalCodes(lens []uint8, maxCode int, codes []uint16) {
	var blCount [maxBits + 1]int32
	for i := 0; i <= maxCode; i++ {
		blCount[lens[i]]++
	}
	blCount[0] = 0
	genCodes(lens, maxCode, blCount[:], codes)
}

// ReverseBits reverses the low `length` bits of code, as DEFLATE requires
// for transmitting Huffman codes most-significant-bit first.
func ReverseBits(code uint16, length uint8) uint16 {
	return bits.Reverse16(code) >> (16 - length)
}
