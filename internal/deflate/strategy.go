// Copyright (c) 2024, Intel Corporation.
// SPDX-License-Identifier: BSD-3-Clause

package deflate

// setInsertTail records how many of the trailing strStart bytes still
// need a hash-chain insertion the next time fillWindow tops up the
// lookahead, since a strategy driver can stop mid-chain at a flush
// boundary (spec §4.2).
func (s *Stream) setInsertTail() {
	if s.strStart < minMatch-1 {
		s.insert = s.strStart
	} else {
		s.insert = minMatch - 1
	}
}

// flush emits the block in progress, reporting storedLen/haveBuf from the
// stream's own blockStart/strStart bookkeeping — the shared tail of all
// three strategy drivers.
func (s *Stream) flush(last bool) {
	haveBuf := s.blockStart >= 0
	storedLen := s.strStart - s.blockStart
	if storedLen < 0 {
		storedLen = 0
	}
	s.flushBlock(last, storedLen, haveBuf)
}

// deflateStored handles level 0: no matching at all, just stored blocks
// copied straight from the window, each capped at 0xffff bytes (spec
// §4.4). It still has to run through fillWindow/window bookkeeping since
// a caller may feed it in arbitrarily small chunks.
func (s *Stream) deflateStored(flush Flush) blockState {
	const maxStoredLen = 0xffff - 5 // leave room for the block header

	for {
		if s.lookahead <= 1 {
			s.fillWindow()
			if s.lookahead == 0 && flush == NoFlush {
				return needMore
			}
			if s.lookahead == 0 {
				break
			}
		}
		s.strStart += s.lookahead
		s.lookahead = 0

		maxStart := s.blockStart + maxStoredLen
		if s.strStart >= maxStart {
			s.lookahead = s.strStart - maxStart
			s.strStart = maxStart
			s.flush(false)
		}
		// Flush before the window can slide past blockStart.
		if s.strStart-s.blockStart >= s.wSize-minLookahead {
			s.flush(false)
		}
	}

	if flush == Finish {
		s.flush(true)
		return finishDone
	}
	if s.strStart > s.blockStart {
		s.flush(false)
	}
	return blockDone
}

// deflateFast is the non-lazy matcher (levels 1-3): it takes the first
// match it finds at each position and never looks one byte ahead before
// committing (spec §4.3, §4.4).
func (s *Stream) deflateFast(flush Flush) blockState {
	for {
		if s.lookahead < minLookahead {
			s.fillWindow()
			if s.lookahead < minLookahead && flush == NoFlush {
				return needMore
			}
			if s.lookahead == 0 {
				break
			}
		}

		matchLength, matchStart := 0, 0
		if s.lookahead >= minMatch {
			hashHead := s.insertString(s.strStart)
			// huffmanOnly never calls the matcher: every symbol is a
			// literal, so only the Huffman stage does any work.
			if s.strategy != HuffmanOnlyStrategy && hashHead != 0 && s.strStart-hashHead <= s.wSize-minLookahead {
				matchLength, matchStart = s.longestMatch(hashHead)
			}
		}

		var full bool
		if matchLength >= minMatch {
			full = s.tally(uint16(s.strStart-matchStart), uint8(matchLength-minMatch))
			s.lookahead -= matchLength
			if matchLength <= s.maxLazyMatch && s.lookahead >= minMatch {
				matchLength--
				for matchLength > 0 {
					s.strStart++
					s.insertString(s.strStart)
					matchLength--
				}
				s.strStart++
			} else {
				s.strStart += matchLength
				s.insH = uint32(s.window[s.strStart])
				if s.strStart+1 <= len(s.window)-1 {
					s.updateHash(s.window[s.strStart+1])
				}
			}
		} else {
			full = s.tally(0, s.window[s.strStart])
			s.lookahead--
			s.strStart++
		}
		if full {
			s.flush(false)
		}
	}

	s.setInsertTail()
	if flush == Finish {
		s.flush(true)
		return finishDone
	}
	if s.lastLit > 0 {
		s.flush(false)
	}
	return blockDone
}

// deflateSlow is the lazy matcher (levels 4-9): after finding a match at
// the current position it peeks one byte ahead before committing, taking
// the better of the two if the next position's match is strictly longer
// (spec §4.3, §4.4).
func (s *Stream) deflateSlow(flush Flush) blockState {
	for {
		if s.lookahead < minLookahead {
			s.fillWindow()
			if s.lookahead < minLookahead && flush == NoFlush {
				return needMore
			}
			if s.lookahead == 0 {
				break
			}
		}

		hashHead := 0
		if s.lookahead >= minMatch {
			hashHead = s.insertString(s.strStart)
		}

		s.prevLength, s.prevMatch = s.matchLen, s.matchStart
		s.matchLen = minMatch - 1

		if hashHead != 0 && s.prevLength < s.maxLazyMatch && s.strStart-hashHead <= s.wSize-minLookahead {
			length, start := s.longestMatch(hashHead)
			s.matchLen, s.matchStart = length, start

			if s.matchLen <= 5 && (s.strategy == Filtered ||
				(s.matchLen == minMatch && s.strStart-s.matchStart > 4096)) {
				s.matchLen = minMatch - 1
			}
		}

		if s.prevLength >= minMatch && s.matchLen <= s.prevLength {
			maxInsert := s.strStart + s.lookahead - minMatch
			full := s.tally(uint16(s.strStart-1-s.prevMatch), uint8(s.prevLength-minMatch))
			s.lookahead -= s.prevLength - 1
			s.prevLength -= 2
			for {
				s.strStart++
				if s.strStart <= maxInsert {
					s.insertString(s.strStart)
				}
				s.prevLength--
				if s.prevLength == 0 {
					break
				}
			}
			s.matchAvailable = false
			s.matchLen = minMatch - 1
			s.strStart++
			if full {
				s.flush(false)
			}
		} else if s.matchAvailable {
			full := s.tally(0, s.window[s.strStart-1])
			if full {
				s.flush(false)
			}
			s.strStart++
			s.lookahead--
		} else {
			s.matchAvailable = true
			s.strStart++
			s.lookahead--
		}
	}

	if s.matchAvailable {
		s.tally(0, s.window[s.strStart-1])
		s.matchAvailable = false
	}
	s.setInsertTail()

	if flush == Finish {
		s.flush(true)
		return finishDone
	}
	if s.lastLit > 0 {
		s.flush(false)
	}
	return blockDone
}
