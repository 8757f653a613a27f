// Copyright (c) 2024, Intel Corporation.
// SPDX-License-Identifier: BSD-3-Clause

// Package zlibstream is a streaming RFC 1950/1951 DEFLATE compressor. It
// exposes a caller-driven push/pull session rather than an io.Writer
// adapter: callers own the input and output byte ranges and decide when
// to flush, which suits environments (network framing, record-oriented
// storage) that can't block on an io.Writer's synchronous Write.
//
// The compression engine itself — window, hash chains, match search,
// Huffman block assembly, bit sink — lives in internal/deflate; this
// package only forwards to it.
package zlibstream

import "github.com/nmoinvaz/ZlibStream/internal/deflate"

// Compression levels, forwarded from internal/deflate so callers never
// need to import it directly.
const (
	NoCompression      = deflate.NoCompression
	BestSpeed          = deflate.BestSpeed
	BestCompression    = deflate.BestCompression
	DefaultCompression = deflate.DefaultCompression
	HuffmanOnly        = deflate.HuffmanOnly
)

type (
	// Strategy selects how the match engine behaves.
	Strategy = deflate.Strategy
	// Flush selects the resynchronization behavior of a Compress call.
	Flush = deflate.Flush
	// Code is the outcome of a Compress or End call.
	Code = deflate.Code
	// Error reports a usage, backpressure, or integrity fault.
	Error = deflate.Error
	// Kind classifies an Error.
	Kind = deflate.Kind
)

const (
	Default             = deflate.Default
	Filtered            = deflate.Filtered
	HuffmanOnlyStrategy = deflate.HuffmanOnlyStrategy
	RLE                 = deflate.RLE
	Fixed               = deflate.Fixed
)

const (
	NoFlush      = deflate.NoFlush
	PartialFlush = deflate.PartialFlush
	SyncFlush    = deflate.SyncFlush
	FullFlush    = deflate.FullFlush
	Finish       = deflate.Finish
)

const (
	OK        = deflate.OK
	StreamEnd = deflate.StreamEnd
)

const (
	StreamError = deflate.StreamError
	BufError    = deflate.BufError
	DataError   = deflate.DataError
)

// Stream is one compression session (spec §3, §5). Construct with
// NewStream, drive it with Compress until it returns StreamEnd, then
// release it with End. Not safe for concurrent use.
type Stream struct {
	s *deflate.Stream
}

// NewStream allocates a Stream. level is 0-9, DefaultCompression, or
// HuffmanOnly; windowBits is 9-15 (negate to suppress the zlib wrapper
// and emit raw DEFLATE); memLevel is 1-9 and governs hash/buffer sizing.
func NewStream(level, windowBits, memLevel int, strategy Strategy) (*Stream, error) {
	s, err := deflate.NewStream(level, windowBits, memLevel, strategy)
	if err != nil {
		return nil, err
	}
	return &Stream{s: s}, nil
}

// SetDictionary feeds a preset dictionary's tail bytes into the window
// before the first Compress call, so back-references may target it.
func (z *Stream) SetDictionary(dict []byte) error {
	return z.s.SetDictionary(dict)
}

// SetParams changes the level/strategy mid-stream, forcing a partial
// flush first if that would change the block-shape the compressor uses.
// out receives whatever that forced flush produces — it may be empty
// only when no flush turns out to be necessary, just as Compress's out
// may go unused by a call that makes no output-producing progress.
func (z *Stream) SetParams(level int, strategy Strategy, out []byte) (produced int, err error) {
	return z.s.SetParams(level, strategy, out)
}

// Compress consumes in, produces into out, and returns how far it got.
// consumed/produced are always <= len(in)/len(out) respectively; the
// caller resumes by calling Compress again with the unconsumed input
// tail (and a fresh output range) until the return is StreamEnd.
func (z *Stream) Compress(in, out []byte, flush Flush) (consumed, produced int, code Code, err error) {
	z.s.NextIn = in
	z.s.NextOut = out
	code, err = z.s.Deflate(flush)
	consumed = len(in) - len(z.s.NextIn)
	produced = len(out) - len(z.s.NextOut)
	return consumed, produced, code, err
}

// TotalIn is the cumulative number of input bytes consumed so far.
func (z *Stream) TotalIn() int64 { return z.s.TotalIn }

// TotalOut is the cumulative number of output bytes produced so far.
func (z *Stream) TotalOut() int64 { return z.s.TotalOut }

// Adler is the running Adler-32 of the uncompressed input seen so far.
func (z *Stream) Adler() uint32 { return z.s.Adler }

// End releases the session's buffers, returning DataError if the stream
// had not reached StreamEnd.
func (z *Stream) End() error {
	return z.s.End()
}
