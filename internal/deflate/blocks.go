// Copyright (c) 2024, Intel Corporation.
// SPDX-License-Identifier: BSD-3-Clause

package deflate

// tally records one literal (dist==0) or one (distance, length) match into
// the block in progress, bumping the matching frequency counters, and
// reports whether the caller must flush a block before tallying again. It
// is the Go shape of zlib's tr_tally, including its TRUNCATE_BLOCK early-
// bailout: every 8192 tallied pairs, at level > 2, estimate this block's
// compressed size against its raw input size, and cut the block here if
// matches are sparse and the estimate already exceeds half the input —
// growing it further is unlikely to pay off (spec §4.5).
func (s *Stream) tally(dist uint16, lc uint8) bool {
	s.symBuf[s.lastLit] = symbol{dist: dist, lc: lc}
	s.lastLit++

	if dist == 0 {
		s.dynLTree.Freq[lc]++
	} else {
		s.matches++
		dist-- // symBuf stores distance as-is; the code table is 0-based
		code, _ := distSymbol(uint32(dist))
		s.dynDTree.Freq[code]++
		s.dynLTree.Freq[literals+1+int(lengthCode[lc])]++
	}

	if s.lastLit&0x1fff == 0 && s.level > 2 {
		outBits := int64(s.lastLit) * 8
		for dcode, f := range s.dynDTree.Freq {
			outBits += int64(f) * int64(5+extraDBits[dcode])
		}
		outLength := outBits >> 3
		inLength := int64(s.strStart - s.blockStart)
		if int64(s.matches) < int64(s.lastLit)/2 && outLength > inLength/2 {
			return true
		}
	}

	return s.lastLit == s.litBufSize-1
}

// blockStats is the bit cost of each Huffman representation the block
// assembler considers before picking one (spec §4.5).
type blockStats struct {
	optBits    int64 // dynamic Huffman: literal/length + distance trees
	staticBits int64 // static (fixed) Huffman
}

// Advisory classification of a block's literal frequencies (zlib's
// Z_BINARY / Z_TEXT). Affects nothing in the chosen block encoding; it
// exists only because spec §4.5 step 1 names it as part of tr_flush_block.
const (
	dataBinary = 0
	dataASCII  = 1
)

// detectDataType classifies s's dyn_ltree frequencies as binary or ASCII:
// binary wins whenever the control/block-range frequency (codes 0-6 and
// 128-255) exceeds a quarter of the printable-range frequency (7-127),
// zlib's original set_data_type heuristic.
func (s *Stream) detectDataType() int {
	var asciiFreq, binFreq int64
	for i := 0; i < 7; i++ {
		binFreq += int64(s.dynLTree.Freq[i])
	}
	for i := 7; i < 128; i++ {
		asciiFreq += int64(s.dynLTree.Freq[i])
	}
	for i := 128; i < literals; i++ {
		binFreq += int64(s.dynLTree.Freq[i])
	}
	if binFreq > asciiFreq>>2 {
		return dataBinary
	}
	return dataASCII
}

// buildTrees grows the dynamic literal/length and distance codes from this
// block's tallied frequencies, then folds the bit-length alphabet used to
// transmit those trees into blTree, returning each representation's cost
// so flushBlock can pick the cheapest. The bit-length range it settles on
// is stashed in s.lastBLIndex for sendAllTrees to use afterward. Called
// only when level != 0 (flushBlock's guard; the HuffmanOnly level counts),
// which also scopes the dataType classification below.
func (s *Stream) buildTrees() blockStats {
	s.dataType = s.detectDataType()
	s.dynLTree.Freq[endBlock]++
	s.dynLTree.Build(maxBits)
	s.dynDTree.Build(maxBits)

	s.lastBLIndex = s.buildBLTree()

	optLenBits := s.dynLTree.OptimalBits() + s.dynDTree.OptimalBits()
	for code := 0; code < lengthCodes; code++ {
		optLenBits += int64(s.dynLTree.Freq[literals+1+code]) * int64(extraLBits[code])
	}
	for code, f := range s.dynDTree.Freq {
		optLenBits += int64(f) * int64(extraDBits[code])
	}
	optLenBits += s.blTreeBits(s.lastBLIndex)

	staticBits := s.staticBlockBits()

	return blockStats{optBits: optLenBits, staticBits: staticBits}
}

// staticBlockBits is the bit cost of coding this block's tallied symbols
// with the fixed literal/length and distance trees (RFC 1951 §3.2.6),
// computed against the dynamic frequency table since it tracks the same
// block's symbol histogram.
func (s *Stream) staticBlockBits() int64 {
	var bits int64
	for i, f := range s.dynLTree.Freq {
		if f == 0 {
			continue
		}
		bits += int64(f) * int64(staticLTree.Len[i])
		if i >= literals+1 {
			bits += int64(f) * int64(extraLBits[i-literals-1])
		}
	}
	for i, f := range s.dynDTree.Freq {
		if f == 0 {
			continue
		}
		bits += int64(f) * int64(staticDTree.Len[i]+extraDBits[i])
	}
	return bits
}

// minBLIndex of 3 is blOrder's mandatory minimum (HCLEN is transmitted
// as maxBLIndex-3, so at least four code lengths are always sent).
const minBLIndex = 3

// buildBLTree scans the dynamic trees' length sequences (RLE-encoding
// runs of identical or zero lengths into the bit-length alphabet),
// builds blTree from the resulting histogram, and returns the index of
// the last blOrder entry whose code has non-zero length.
func (s *Stream) buildBLTree() int {
	for i := range s.blTree.Freq {
		s.blTree.Freq[i] = 0
	}
	s.scanTree(s.dynLTree.Len, len(s.dynLTree.Freq)-1)
	s.scanTree(s.dynDTree.Len, len(s.dynDTree.Freq)-1)
	s.blTree.Build(maxBLBits)

	maxBLIndex := blCodes - 1
	for ; maxBLIndex >= minBLIndex; maxBLIndex-- {
		if s.blTree.Len[blOrder[maxBLIndex]] != 0 {
			break
		}
	}
	return maxBLIndex
}

func (s *Stream) blTreeBits(maxBLIndex int) int64 {
	bits := int64(3*(maxBLIndex+1)) + 5 + 5 + 4
	bits += s.blTree.OptimalBits()
	bits += int64(s.blTree.Freq[repeat3_6]) * 2
	bits += int64(s.blTree.Freq[zeroRepeat3_10]) * 3
	bits += int64(s.blTree.Freq[zeroRepeat11_138]) * 7
	return bits
}

// scanTree walks a code-length sequence len[0..maxCode], tallying runs of
// 3+ repeats into the bit-length alphabet's repeat codes and single
// lengths as themselves, the RLE half of RFC 1951 §3.2.7.
func (s *Stream) scanTree(lens []uint8, maxCode int) {
	prevLen := -1
	nextLen := lens[0]
	count := 0
	maxCount, minCount := 7, 4
	if nextLen == 0 {
		maxCount, minCount = 138, 3
	}

	for n := 0; n <= maxCode; n++ {
		curLen := nextLen
		if n+1 <= maxCode {
			nextLen = lens[n+1]
		} else {
			nextLen = 0xff // sentinel: force the final run to close
		}
		count++
		if count < maxCount && curLen == nextLen {
			continue
		}
		if count < minCount {
			s.blTree.Freq[curLen] += int32(count)
		} else if curLen != 0 {
			if int(curLen) != prevLen {
				s.blTree.Freq[curLen]++
			}
			s.blTree.Freq[repeat3_6]++
		} else if count <= 10 {
			s.blTree.Freq[zeroRepeat3_10]++
		} else {
			s.blTree.Freq[zeroRepeat11_138]++
		}
		count = 0
		prevLen = int(curLen)
		if nextLen == 0 {
			maxCount, minCount = 138, 3
		} else if curLen == nextLen {
			maxCount, minCount = 6, 3
		} else {
			maxCount, minCount = 7, 4
		}
	}
}

// sendTree emits the RLE-encoded length sequence built by scanTree,
// writing blTree codes (and, for the two zero-run codes, extra bits).
func (s *Stream) sendTree(lens []uint8, maxCode int) {
	prevLen := -1
	nextLen := lens[0]
	count := 0
	maxCount, minCount := 7, 4
	if nextLen == 0 {
		maxCount, minCount = 138, 3
	}

	for n := 0; n <= maxCode; n++ {
		curLen := nextLen
		if n+1 <= maxCode {
			nextLen = lens[n+1]
		} else {
			nextLen = 0xff
		}
		count++
		if count < maxCount && curLen == nextLen {
			continue
		}
		if count < minCount {
			for ; count > 0; count-- {
				s.bits.sendCode(s.blTree.Code[curLen], s.blTree.Len[curLen])
			}
		} else if curLen != 0 {
			if int(curLen) != prevLen {
				s.bits.sendCode(s.blTree.Code[curLen], s.blTree.Len[curLen])
				count--
			}
			s.bits.sendCode(s.blTree.Code[repeat3_6], s.blTree.Len[repeat3_6])
			s.bits.sendBits(uint32(count-3), 2)
		} else if count <= 10 {
			s.bits.sendCode(s.blTree.Code[zeroRepeat3_10], s.blTree.Len[zeroRepeat3_10])
			s.bits.sendBits(uint32(count-3), 3)
		} else {
			s.bits.sendCode(s.blTree.Code[zeroRepeat11_138], s.blTree.Len[zeroRepeat11_138])
			s.bits.sendBits(uint32(count-11), 7)
		}
		count = 0
		prevLen = int(curLen)
		if nextLen == 0 {
			maxCount, minCount = 138, 3
		} else if curLen == nextLen {
			maxCount, minCount = 6, 3
		} else {
			maxCount, minCount = 7, 4
		}
	}
}

// sendAllTrees emits the dynamic block header: HLIT/HDIST/HCLEN, the
// bit-length alphabet's own code lengths, then both trees' RLE-encoded
// length sequences (RFC 1951 §3.2.7).
func (s *Stream) sendAllTrees(maxBLIndex int) {
	s.bits.sendBits(uint32(len(s.dynLTree.Freq)-257), 5)
	s.bits.sendBits(uint32(len(s.dynDTree.Freq)-1), 5)
	s.bits.sendBits(uint32(maxBLIndex-minBLIndex), 4)
	for rank := 0; rank <= maxBLIndex; rank++ {
		s.bits.sendBits(uint32(s.blTree.Len[blOrder[rank]]), 3)
	}
	s.sendTree(s.dynLTree.Len, len(s.dynLTree.Freq)-1)
	s.sendTree(s.dynDTree.Len, len(s.dynDTree.Freq)-1)
}

// compressedBlock emits every tallied symbol using the given trees.
func (s *Stream) compressedBlock(lTree, dTree *huffmanTree) {
	for i := 0; i < s.lastLit; i++ {
		sym := s.symBuf[i]
		if sym.dist == 0 {
			s.bits.sendCode(lTree.Code[sym.lc], lTree.Len[sym.lc])
			continue
		}
		lc := int(lengthCode[sym.lc])
		s.bits.sendCode(lTree.Code[literals+1+lc], lTree.Len[literals+1+lc])
		if extraLBits[lc] != 0 {
			s.bits.sendBits(uint32(sym.lc)-uint32(baseLength[lc]), int(extraLBits[lc]))
		}
		distM1 := uint32(sym.dist) - 1
		code, extra := distSymbol(distM1)
		s.bits.sendCode(dTree.Code[code], dTree.Len[code])
		if extra != 0 {
			s.bits.sendBits(distM1-uint32(baseDist[code]), int(extra))
		}
	}
	s.bits.sendCode(lTree.Code[endBlock], lTree.Len[endBlock])
	s.lastEobLen = int(lTree.Len[endBlock])
}

// flushBlock assembles and emits the pending block as stored, static, or
// dynamic Huffman, whichever costs fewest bytes — unless the stream's
// strategy pins one representation (spec §4.5, §4.6). last marks the
// final block of the stream (the BFINAL bit). storedLen is the number of
// raw window bytes the block covers; haveBuf is false when those bytes
// already slid out of the window (forcing a non-stored block).
func (s *Stream) flushBlock(last bool, storedLen int, haveBuf bool) {
	var maxBLIndex int
	var optLenb, staticLenb int

	if s.level != 0 {
		stats := s.buildTrees()
		maxBLIndex = s.lastBLIndex
		optLenb = int(stats.optBits+3+7) >> 3
		staticLenb = int(stats.staticBits+3+7) >> 3
		if staticLenb <= optLenb {
			optLenb = staticLenb
		}
	} else {
		optLenb = storedLen + 5
		staticLenb = optLenb
	}

	lastBit := uint32(0)
	if last {
		lastBit = 1
	}

	switch {
	case storedLen+4 <= optLenb && haveBuf:
		s.bits.sendBits(lastBit, 3)
		s.bits.windup()
		s.emitStored(storedLen)
	case s.strategy == Fixed || staticLenb == optLenb:
		s.bits.sendBits(lastBit|(1<<1), 3)
		s.compressedBlock(&staticLTree, &staticDTree)
	default:
		s.bits.sendBits(lastBit|(2<<1), 3)
		s.sendAllTrees(maxBLIndex)
		s.compressedBlock(&s.dynLTree, &s.dynDTree)
	}

	s.initBlock()
	s.blockStart = s.strStart
	if last {
		s.bits.windup()
	}
}

// emitStored copies the n bytes of this block straight from the window
// into pending, preceded by its RFC 1951 §3.2.4 LEN/NLEN header.
func (s *Stream) emitStored(n int) {
	s.bits.pending = append(s.bits.pending, byte(n), byte(n>>8), byte(^uint16(n)), byte(^uint16(n)>>8))
	s.bits.pending = append(s.bits.pending, s.window[s.blockStart:s.blockStart+n]...)
}

// initBlock resets the frequency tables for the next block.
func (s *Stream) initBlock() {
	s.dynLTree.Reset()
	s.dynDTree.Reset()
	s.blTree.Reset()
	s.lastLit = 0
	s.matches = 0
}

