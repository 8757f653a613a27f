// Copyright (c) 2024, Intel Corporation.
// SPDX-License-Identifier: BSD-3-Clause

package deflate

// updateHash rolls c into the 3-byte hash used to seed the match chain,
// keeping only insH's hashBits low bits (zlib's UPDATE_HASH).
func (s *Stream) updateHash(c byte) {
	s.insH = ((s.insH << s.hashShift) ^ uint32(c)) & s.hashMask
}

// insertString rolls the hash forward to include window[str+minMatch-1],
// then threads str onto its hash chain, returning the chain's previous
// head (NIL, represented as 0, when the chain was empty). It is the Go
// equivalent of zlib's INSERT_STRING macro.
func (s *Stream) insertString(str int) int {
	s.updateHash(s.window[str+minMatch-1])
	head := int(s.head[s.insH])
	s.prev[str&s.wMask] = int32(head)
	s.head[s.insH] = int32(str)
	return head
}

// insertStrings threads every pending hash-chain entry left over from a
// slide or a flush boundary, mirroring the tail of zlib's fill_window.
func (s *Stream) insertStrings() {
	if s.insert == 0 || s.lookahead+s.insert < minMatch {
		return
	}
	str := s.strStart - s.insert
	s.insH = uint32(s.window[str])
	s.updateHash(s.window[str+1])
	for s.insert > 0 {
		s.insertString(str)
		str++
		s.insert--
		if s.lookahead+s.insert < minMatch {
			break
		}
	}
}

// slideWindow halves every position: the upper half of the window (the
// most recent wSize bytes) is copied down to the lower half, and every
// hash-chain entry is rebased or dropped if it no longer lands in the
// new window.
func (s *Stream) slideWindow() {
	copy(s.window, s.window[s.wSize:2*s.wSize])
	if s.matchStart >= s.wSize {
		s.matchStart -= s.wSize
	}
	s.strStart -= s.wSize
	s.blockStart -= s.wSize

	for i := 0; i < s.hashSize; i++ {
		m := s.head[i]
		if m >= int32(s.wSize) {
			s.head[i] = m - int32(s.wSize)
		} else {
			s.head[i] = 0
		}
	}
	for i := 0; i < s.wSize; i++ {
		m := s.prev[i]
		if m >= int32(s.wSize) {
			s.prev[i] = m - int32(s.wSize)
		} else {
			s.prev[i] = 0
		}
	}
}

// fillWindow tops up the lookahead from NextIn, sliding the window first
// if its free tail has shrunk to nothing (spec §4.2). It stops once the
// window is full or NextIn is exhausted; it never blocks.
func (s *Stream) fillWindow() {
	for {
		more := len(s.window) - s.lookahead - s.strStart
		if s.strStart >= s.wSize+(s.wSize-minLookahead) {
			s.slideWindow()
			more += s.wSize
			s.insertStrings()
		}
		if len(s.NextIn) == 0 {
			return
		}

		n := more
		if n > len(s.NextIn) {
			n = len(s.NextIn)
		}
		if n == 0 {
			return
		}
		dst := s.window[s.strStart+s.lookahead:]
		copy(dst, s.NextIn[:n])

		s.Adler = adlerUpdate(s.Adler, s.NextIn[:n])
		s.NextIn = s.NextIn[n:]
		s.TotalIn += int64(n)
		s.lookahead += n

		if s.lookahead+s.insert >= minMatch {
			s.insertStrings()
		}
		if s.lookahead >= minLookahead || len(s.NextIn) == 0 {
			return
		}
	}
}
