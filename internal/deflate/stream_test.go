// Copyright (c) 2024, Intel Corporation.
// SPDX-License-Identifier: BSD-3-Clause

package deflate

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"io"
	"math/rand"
	"testing"
)

var testLevels = []int{
	HuffmanOnly, NoCompression, BestSpeed, 4, DefaultCompression, BestCompression,
}

// compressAll drives s to completion over in, feeding it through chunkSize-
// sized output windows so every round trip also exercises output chunking
// (spec §8 "output invariance across output chunking").
func compressAll(t *testing.T, s *Stream, in []byte, chunkSize int) []byte {
	t.Helper()
	var out bytes.Buffer
	buf := make([]byte, chunkSize)
	remaining := in

	for {
		flush := NoFlush
		if len(remaining) == 0 {
			flush = Finish
		}
		s.NextIn = remaining
		s.NextOut = buf

		code, err := s.Deflate(flush)
		if err != nil {
			if e, ok := err.(*Error); ok && e.Kind == BufError {
				// transient backpressure: drain what we produced and retry
			} else {
				t.Fatalf("Deflate: %v", err)
			}
		}
		produced := len(buf) - len(s.NextOut)
		out.Write(buf[:produced])
		remaining = s.NextIn

		if code == StreamEnd {
			break
		}
	}
	return out.Bytes()
}

func diffAt(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	if len(a) != len(b) {
		return n
	}
	return -1
}

func repeatPattern(pattern string, n int) []byte {
	out := make([]byte, 0, len(pattern)*n)
	for i := 0; i < n; i++ {
		out = append(out, pattern...)
	}
	return out
}

func randomBytes(seed int64, n int) []byte {
	r := rand.New(rand.NewSource(seed))
	b := make([]byte, n)
	r.Read(b)
	return b
}

func TestRoundTripWrapped(t *testing.T) {
	inputs := map[string][]byte{
		"empty":      {},
		"short":      []byte("hello, deflate"),
		"repetitive": repeatPattern("ABC", 10000),
		"random4k":   randomBytes(1, 4096),
	}

	for name, in := range inputs {
		for _, level := range testLevels {
			for _, chunk := range []int{1, 7, 64, 4096} {
				s, err := NewStream(level, 15, 8, Default)
				if err != nil {
					t.Fatalf("%s/%d: NewStream: %v", name, level, err)
				}
				compressed := compressAll(t, s, in, chunk)
				if err := s.End(); err != nil {
					t.Fatalf("%s/%d: End: %v", name, level, err)
				}

				zr, err := zlib.NewReader(bytes.NewReader(compressed))
				if err != nil {
					t.Fatalf("%s/%d/chunk=%d: zlib.NewReader: %v", name, level, chunk, err)
				}
				got, err := io.ReadAll(zr)
				if err != nil {
					t.Fatalf("%s/%d/chunk=%d: read: %v", name, level, chunk, err)
				}
				if !bytes.Equal(got, in) {
					t.Fatalf("%s/%d/chunk=%d: round trip mismatch at byte %d (got %d bytes, want %d)",
						name, level, chunk, diffAt(got, in), len(got), len(in))
				}
			}
		}
	}
}

func TestRoundTripRawNoWrapper(t *testing.T) {
	in := repeatPattern("the quick brown fox ", 500)
	s, err := NewStream(DefaultCompression, -15, 8, Default)
	if err != nil {
		t.Fatal(err)
	}
	compressed := compressAll(t, s, in, 4096)
	if err := s.End(); err != nil {
		t.Fatal(err)
	}

	fr := flate.NewReader(bytes.NewReader(compressed))
	got, err := io.ReadAll(fr)
	if err != nil {
		t.Fatalf("flate read: %v", err)
	}
	if !bytes.Equal(got, in) {
		t.Fatalf("round trip mismatch at byte %d", diffAt(got, in))
	}
}

func TestHeaderValidity(t *testing.T) {
	for _, wbits := range []int{9, 10, 15} {
		s, err := NewStream(6, wbits, 8, Default)
		if err != nil {
			t.Fatal(err)
		}
		out := compressAll(t, s, []byte("x"), 64)
		s.End()

		if len(out) < 2 {
			t.Fatalf("wbits=%d: output too short for a header", wbits)
		}
		header := uint16(out[0])<<8 | uint16(out[1])
		if header%31 != 0 {
			t.Fatalf("wbits=%d: header %04x not a multiple of 31", wbits, header)
		}
		if cm := out[0] & 0x0f; cm != 8 {
			t.Fatalf("wbits=%d: CM nibble = %d, want 8", wbits, cm)
		}
		if cinfo := out[0] >> 4; int(cinfo) != wbits-8 {
			t.Fatalf("wbits=%d: CINFO = %d, want %d", wbits, cinfo, wbits-8)
		}
	}
}

func TestSyncFlushMarker(t *testing.T) {
	s, err := NewStream(6, 15, 8, Default)
	if err != nil {
		t.Fatal(err)
	}
	defer s.End()

	var out bytes.Buffer
	buf := make([]byte, 4096)

	s.NextIn = []byte("hello sync flush world")
	s.NextOut = buf
	if _, err := s.Deflate(SyncFlush); err != nil {
		t.Fatalf("Deflate(SyncFlush): %v", err)
	}
	out.Write(buf[:len(buf)-len(s.NextOut)])

	tail := out.Bytes()
	if len(tail) < 4 {
		t.Fatalf("output too short for a sync marker")
	}
	tail = tail[len(tail)-4:]
	if !bytes.Equal(tail, []byte{0x00, 0x00, 0xff, 0xff}) {
		t.Fatalf("sync flush tail = % x, want 00 00 ff ff", tail)
	}

	// The stream must still accept further input after a sync flush.
	s.NextIn = []byte(" and more")
	s.NextOut = buf
	if _, err := s.Deflate(Finish); err != nil {
		t.Fatalf("Deflate(Finish) after sync flush: %v", err)
	}
}

func TestMonotonicTotals(t *testing.T) {
	s, err := NewStream(6, 15, 8, Default)
	if err != nil {
		t.Fatal(err)
	}
	defer s.End()

	in := repeatPattern("totals monotonic ", 200)
	buf := make([]byte, 37) // deliberately awkward chunk size
	var prevIn, prevOut int64
	remaining := in

	for {
		flush := NoFlush
		if len(remaining) == 0 {
			flush = Finish
		}
		s.NextIn = remaining
		s.NextOut = buf
		code, err := s.Deflate(flush)
		if err != nil {
			if e, ok := err.(*Error); !ok || e.Kind != BufError {
				t.Fatalf("Deflate: %v", err)
			}
		}
		if s.TotalIn < prevIn || s.TotalOut < prevOut {
			t.Fatalf("totals decreased: in %d->%d out %d->%d", prevIn, s.TotalIn, prevOut, s.TotalOut)
		}
		prevIn, prevOut = s.TotalIn, s.TotalOut
		remaining = s.NextIn
		if code == StreamEnd {
			break
		}
	}
	if prevIn != int64(len(in)) {
		t.Fatalf("TotalIn = %d, want %d", prevIn, len(in))
	}
}

func TestEndIdempotentAfterStreamEnd(t *testing.T) {
	s, err := NewStream(6, 15, 8, Default)
	if err != nil {
		t.Fatal(err)
	}
	compressAll(t, s, []byte("done"), 4096)

	buf := make([]byte, 64)
	s.NextIn = nil
	s.NextOut = buf
	code, err := s.Deflate(Finish)
	if err != nil {
		t.Fatalf("Deflate after StreamEnd: %v", err)
	}
	if code != StreamEnd {
		t.Fatalf("Deflate after StreamEnd = %v, want StreamEnd", code)
	}
	if produced := len(buf) - len(s.NextOut); produced != 0 {
		t.Fatalf("Deflate after StreamEnd produced %d bytes, want 0", produced)
	}
	if err := s.End(); err != nil {
		t.Fatalf("End: %v", err)
	}
}

func TestPresetDictionary(t *testing.T) {
	dict := []byte("The quick brown fox")
	in := []byte("The quick brown fox jumps over the lazy dog")

	s, err := NewStream(6, 15, 8, Default)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetDictionary(dict); err != nil {
		t.Fatal(err)
	}
	compressed := compressAll(t, s, in, 4096)
	s.End()

	if len(compressed) < 2 || compressed[1]&0x20 == 0 {
		t.Fatalf("FDICT flag not set in header")
	}

	zr, err := zlib.NewReaderDict(bytes.NewReader(compressed), dict)
	if err != nil {
		t.Fatalf("zlib.NewReaderDict: %v", err)
	}
	got, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, in) {
		t.Fatalf("round trip with dictionary mismatch at byte %d", diffAt(got, in))
	}
}

func TestSetParamsForcesFlushOnShapeChange(t *testing.T) {
	s, err := NewStream(9, 15, 8, Default)
	if err != nil {
		t.Fatal(err)
	}
	defer s.End()

	var out bytes.Buffer
	buf := make([]byte, 4096)

	// Prime the window with the slow (level 9) strategy so strStart/
	// lookahead are non-zero when SetParams switches block shape.
	s.NextIn = repeatPattern("params change ", 50)
	s.NextOut = buf
	if _, err := s.Deflate(NoFlush); err != nil {
		t.Fatalf("priming Deflate: %v", err)
	}
	out.Write(buf[:len(buf)-len(s.NextOut)])

	flushBuf := make([]byte, 4096)
	produced, err := s.SetParams(0, Default, flushBuf) // level 9 (slow) -> level 0 (stored): shape changes
	if err != nil {
		t.Fatalf("SetParams: %v", err)
	}
	out.Write(flushBuf[:produced])

	rest := repeatPattern("more after params ", 50)
	compressed := out.Bytes()
	for {
		flush := NoFlush
		if len(rest) == 0 {
			flush = Finish
		}
		s.NextIn = rest
		s.NextOut = buf
		code, err := s.Deflate(flush)
		if err != nil {
			if e, ok := err.(*Error); !ok || e.Kind != BufError {
				t.Fatalf("Deflate: %v", err)
			}
		}
		compressed = append(compressed, buf[:len(buf)-len(s.NextOut)]...)
		rest = s.NextIn
		if code == StreamEnd {
			break
		}
	}

	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		t.Fatalf("zlib.NewReader: %v", err)
	}
	got, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := append(append([]byte{}, repeatPattern("params change ", 50)...), repeatPattern("more after params ", 50)...)
	if !bytes.Equal(got, want) {
		t.Fatalf("round trip after SetParams mismatch at byte %d", diffAt(got, want))
	}
}

// TestFullFlushDropsHistory exercises FullFlush end to end: it must emit
// the same empty-stored-block sync marker as SyncFlush, but it must also
// clear every hash-chain head so no match after the flush can reference
// window content from before it (spec §4.7, §8 "Full flush drops
// history").
func TestFullFlushDropsHistory(t *testing.T) {
	s, err := NewStream(6, 15, 8, Default)
	if err != nil {
		t.Fatal(err)
	}
	defer s.End()

	var out bytes.Buffer
	buf := make([]byte, 4096)

	s.NextIn = repeatPattern("flush history ", 200)
	s.NextOut = buf
	if _, err := s.Deflate(NoFlush); err != nil {
		t.Fatalf("priming Deflate: %v", err)
	}
	out.Write(buf[:len(buf)-len(s.NextOut)])

	s.NextIn = nil
	s.NextOut = buf
	if _, err := s.Deflate(FullFlush); err != nil {
		t.Fatalf("Deflate(FullFlush): %v", err)
	}
	out.Write(buf[:len(buf)-len(s.NextOut)])

	for i, h := range s.head {
		if h != 0 {
			t.Fatalf("head[%d] = %d after FullFlush, want 0 (hash chain not cleared)", i, h)
		}
	}

	tail := out.Bytes()
	if len(tail) < 4 || !bytes.Equal(tail[len(tail)-4:], []byte{0x00, 0x00, 0xff, 0xff}) {
		t.Fatalf("FullFlush tail = % x, want a sync marker ending in 00 00 ff ff", tail)
	}

	rest := repeatPattern("flush history ", 200)
	s.NextIn = rest
	s.NextOut = buf
	if _, err := s.Deflate(Finish); err != nil {
		t.Fatalf("Deflate(Finish) after FullFlush: %v", err)
	}
	out.Write(buf[:len(buf)-len(s.NextOut)])

	zr, err := zlib.NewReader(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatalf("zlib.NewReader: %v", err)
	}
	got, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := append(repeatPattern("flush history ", 200), repeatPattern("flush history ", 200)...)
	if !bytes.Equal(got, want) {
		t.Fatalf("round trip across FullFlush mismatch at byte %d", diffAt(got, want))
	}
}

func TestEmptyInputBoundary(t *testing.T) {
	s, err := NewStream(6, 15, 8, Default)
	if err != nil {
		t.Fatal(err)
	}
	out := compressAll(t, s, nil, 4096)
	s.End()

	zr, err := zlib.NewReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("zlib.NewReader: %v", err)
	}
	got, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d bytes, want 0", len(got))
	}
}
