// Copyright (c) 2024, Intel Corporation.
// SPDX-License-Identifier: BSD-3-Clause

package deflate

import "github.com/nmoinvaz/ZlibStream/internal/huffman"

// RFC 1951 §3.2.5 / §3.2.6 alphabet sizes.
const (
	literals    = 256 // literal byte values 0..255
	endBlock    = 256 // end-of-block symbol, shares the literal/length alphabet
	lengthCodes = 29  // length codes 257..285
	lCodes      = literals + 1 + lengthCodes // literal/length alphabet size (286)
	dCodes      = 30                         // distance alphabet size
	blCodes     = 19                         // bit-length alphabet size
	maxBLBits   = 7                          // longest bit-length code

	minMatch = 3
	maxMatch = 258

	// minLookahead is the smallest lookahead a match attempt needs: the
	// longest possible match plus the 3 bytes fed to the rolling hash
	// one position ahead, plus one for the off-by-one in fill_window's
	// "more" check.
	minLookahead = maxMatch + minMatch + 1

	maxBits = 15 // longest literal/length or distance code

	repeat3_6     = 16 // bit-length alphabet: repeat previous length 3-6 times
	zeroRepeat3_10   = 17 // repeat a zero length 3-10 times
	zeroRepeat11_138 = 18 // repeat a zero length 11-138 times
)

// extraLBits gives the number of extra bits following each length code.
var extraLBits = [lengthCodes]uint8{
	0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2,
	3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0,
}

// extraDBits gives the number of extra bits following each distance code.
var extraDBits = [dCodes]uint8{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6,
	7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
}

// extraBLBits gives the number of extra bits following each bit-length code.
var extraBLBits = [blCodes]uint8{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 2, 3, 7}

// blOrder is the order in which bit-length code lengths are transmitted in
// a dynamic block header (RFC 1951 §3.2.7).
var blOrder = [blCodes]uint8{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

var (
	// lengthCode maps a match length minus minMatch (0..255) to its
	// length code (0..28, to be offset by literals+1 when used as a
	// literal/length symbol).
	lengthCode [maxMatch - minMatch + 1]uint8
	// baseLength[code] is the smallest length-minus-minMatch value that
	// length code encodes; the match length is baseLength[code]+minMatch
	// plus whatever the code's extra bits add.
	baseLength [lengthCodes]uint16

	// distCode maps a distance minus one to its distance code, via the
	// same two-range trick zlib uses: distances 1..256 index directly,
	// larger distances are bucketed in steps of 128 to keep the table
	// small.
	distCode [512]uint8
	// baseDist[code] is the smallest distance-minus-one value that
	// distance code encodes.
	baseDist [dCodes]uint16

	staticLTree huffman.Tree // fixed literal/length code (RFC 1951 §3.2.6)
	staticDTree huffman.Tree // fixed distance code: all lengths are 5
)

// huffmanTree is the deflate package's handle on a huffman.Tree, kept as
// a distinct name so stream.go doesn't need to import huffman directly.
type huffmanTree = huffman.Tree

func newHuffmanTree(n int) huffmanTree { return *huffman.NewTree(n) }

func init() {
	length := 0
	code := 0
	for code = 0; code < lengthCodes-1; code++ {
		baseLength[code] = uint16(length)
		for n := 0; n < 1<<extraLBits[code]; n++ {
			lengthCode[length] = uint8(code)
			length++
		}
	}
	// Length 258 (length-minus-minMatch == 255) is reachable by code 284
	// plus 5 extra bits or by code 285 with none; prefer the shorter
	// encoding.
	lengthCode[length-1] = uint8(code)
	baseLength[lengthCodes-1] = uint16(length - 1)

	dist := 0
	for code = 0; code < 16; code++ {
		baseDist[code] = uint16(dist)
		for n := 0; n < 1<<extraDBits[code]; n++ {
			distCode[dist] = uint8(code)
			dist++
		}
	}
	dist >>= 7
	for ; code < dCodes; code++ {
		baseDist[code] = uint16(dist << 7)
		for n := 0; n < 1<<(extraDBits[code]-7); n++ {
			distCode[256+dist] = uint8(code)
			dist++
		}
	}

	// Symbols 286 and 287 are never emitted, but are carried through
	// construction so the resulting code is canonical (longest code all
	// ones).
	staticLTree = *huffman.NewTree(lCodes + 2)
	n := 0
	for ; n <= 143; n++ {
		staticLTree.Len[n] = 8
	}
	for ; n <= 255; n++ {
		staticLTree.Len[n] = 9
	}
	for ; n <= 279; n++ {
		staticLTree.Len[n] = 7
	}
	for ; n <= 287; n++ {
		staticLTree.Len[n] = 8
	}
	huffman.CanonicalCodes(staticLTree.Len[:], lCodes+1, staticLTree.Code[:])

	staticDTree = *huffman.NewTree(dCodes)
	for n := range staticDTree.Len {
		staticDTree.Len[n] = 5
		staticDTree.Code[n] = huffman.ReverseBits(uint16(n), 5)
	}
}

// distSymbol returns the distance code and extra-bit count for a back
// reference. distMinus1 is the back-reference distance minus one, matching
// the table layout (distances 1..256 index directly; larger distances are
// bucketed in steps of 128).
func distSymbol(distMinus1 uint32) (code uint8, extraBits uint8) {
	var d uint32
	if distMinus1 < 256 {
		d = distMinus1
	} else {
		d = 256 + (distMinus1 >> 7)
	}
	return distCode[d], extraDBits[distCode[d]]
}
