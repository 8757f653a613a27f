// Copyright (c) 2024, Intel Corporation.
// SPDX-License-Identifier: BSD-3-Clause

package deflate

// longestMatch walks the hash chain starting at curMatch, looking for the
// longest run of bytes matching window[strStart:] among candidates no
// further back than wSize. It mirrors zlib's longest_match: a handful of
// fast-reject byte comparisons before committing to a full compare, an
// early exit once niceMatch is reached, and a chain-length budget that
// bounds worst-case cost.
func (s *Stream) longestMatch(curMatch int) (length int, start int) {
	chainLength := s.maxChainLength
	scan := s.strStart
	bestLen := s.prevLength
	if bestLen == 0 {
		bestLen = minMatch - 1
	}
	start = curMatch

	niceMatch := s.niceMatch
	limit := 0
	if s.strStart > s.wSize-minLookahead {
		limit = s.strStart - (s.wSize - minLookahead)
	}

	win := s.window
	strEnd := scan + maxMatch
	scanEnd1 := win[scan+bestLen-1]
	scanEnd := win[scan+bestLen]

	// Reduce the chain-walk budget once a long-enough match has already
	// been found, the same dampening zlib applies for levels >= 8.
	if s.prevLength >= s.goodMatch {
		chainLength >>= 2
	}
	if niceMatch > s.lookahead {
		niceMatch = s.lookahead
	}

	for {
		match := curMatch
		if win[match+bestLen] != scanEnd ||
			win[match+bestLen-1] != scanEnd1 ||
			win[match] != win[scan] ||
			win[match+1] != win[scan+1] {
			goto next
		}

		{
			sp := scan + 2
			mp := match + 2
			for sp < strEnd && win[sp] == win[mp] {
				sp++
				mp++
			}
			l := sp - scan
			if l > bestLen {
				start = match
				bestLen = l
				if l >= niceMatch {
					break
				}
				scanEnd1 = win[scan+bestLen-1]
				scanEnd = win[scan+bestLen]
			}
		}

	next:
		curMatch = int(s.prev[curMatch&s.wMask])
		if curMatch <= limit {
			break
		}
		chainLength--
		if chainLength == 0 {
			break
		}
	}

	if bestLen > s.lookahead {
		return s.lookahead, start
	}
	return bestLen, start
}
