// Package scan locates the feature objects of a GeoJSON FeatureCollection
// in a byte stream without decoding the document.
//
// The Scanner keeps a single byte window over the source. It is refilled in
// fixed-size chunks and compacted before each refill, so its size depends on
// the largest feature and the chunk size, never on the size of the file.
package scan

import (
	"bytes"
	"io"
)

// DefaultChunkSize is the refill size used when none is given.
const DefaultChunkSize = 1 << 20

const maxConsecutiveEmptyReads = 100

// state of the string/escape machine
type state uint8

const (
	stateNormal state = iota
	stateInString
	stateEscaped
)

// progress of the "features" key match while seeking the array
type seekState uint8

const (
	seekNone seekState = iota
	seekColon
	seekBracket
)

var featuresKey = []byte("features")

// Span is one complete top-level feature object.
// Data is a view into the scanner window and is only valid until the next
// call to Next.
type Span struct {
	Offset int64
	Data   []byte
}

// Scanner yields feature spans in input order.
type Scanner struct {
	r         io.Reader
	chunkSize int

	// window; buf[0] is at absolute offset base
	buf  []byte
	base int64

	// cursor into buf, only moves forward
	pos int

	state state
	depth int

	// start of the open span in buf, -1 when none
	start int

	// start of a depth-1 string while seeking, -1 when none
	keyStart int
	seek     seekState
	inArray  bool

	eof  bool
	err  error
	peak int
}

// NewScanner returns a Scanner reading r in chunks of chunkSize bytes.
func NewScanner(r io.Reader, chunkSize int) *Scanner {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	return &Scanner{
		r:         r,
		chunkSize: chunkSize,
		buf:       make([]byte, 0, chunkSize),
		start:     -1,
		keyStart:  -1,
	}
}

// Next returns the next feature span. It returns io.EOF after the closing
// bracket of the feature array, or when the stream ends between features.
// Once Next has returned an error every later call returns the same error.
func (s *Scanner) Next() (Span, error) {
	if s.err != nil {
		return Span{}, s.err
	}

	if !s.inArray {
		if err := s.seekArray(); err != nil {
			s.err = err
			return Span{}, err
		}
	}

	span, err := s.scan()
	if err != nil {
		s.err = err
	}

	return span, err
}

// Buffered returns the current size of the window.
func (s *Scanner) Buffered() int {
	return len(s.buf)
}

// Peak returns the largest window size seen so far.
func (s *Scanner) Peak() int {
	return s.peak
}

// Offset returns the absolute offset of the cursor.
func (s *Scanner) Offset() int64 {
	return s.base + int64(s.pos)
}

func (s *Scanner) scan() (Span, error) {
	for {
		for s.pos < len(s.buf) {
			c := s.buf[s.pos]
			s.pos++

			switch s.state {
			case stateEscaped:
				s.state = stateInString
				continue
			case stateInString:
				switch c {
				case '\\':
					s.state = stateEscaped
				case '"':
					s.state = stateNormal
				}
				continue
			}

			switch c {
			case '{', '[':
				if s.depth == 0 {
					s.start = s.pos - 1
				}
				s.depth++

			case '}', ']':
				if s.depth == 0 {
					if c == ']' {
						return Span{}, io.EOF
					}
					return Span{}, s.unexpected()
				}
				s.depth--
				if s.depth == 0 {
					span := Span{
						Offset: s.base + int64(s.start),
						Data:   s.buf[s.start:s.pos:s.pos],
					}
					s.start = -1
					return span, nil
				}

			case '"':
				if s.depth == 0 {
					return Span{}, s.unexpected()
				}
				s.state = stateInString

			case ',', ' ', '\t', '\r', '\n':

			default:
				if s.depth == 0 {
					return Span{}, s.unexpected()
				}
			}
		}

		if err := s.fill(); err != nil {
			if err != io.EOF {
				return Span{}, err
			}
			if s.start >= 0 {
				return Span{}, &Error{Kind: ErrTruncatedInput, Offset: s.base + int64(s.start)}
			}
			return Span{}, io.EOF
		}
	}
}

// seekArray advances the cursor just past the '[' opening the array held by
// the top-level "features" key.
func (s *Scanner) seekArray() error {
	for {
		for s.pos < len(s.buf) {
			c := s.buf[s.pos]
			s.pos++

			switch s.state {
			case stateEscaped:
				s.state = stateInString
				continue
			case stateInString:
				switch c {
				case '\\':
					s.state = stateEscaped
				case '"':
					s.state = stateNormal
					if s.keyStart >= 0 {
						if bytes.Equal(s.buf[s.keyStart:s.pos-1], featuresKey) {
							s.seek = seekColon
						}
						s.keyStart = -1
					}
				}
				continue
			}

			if isSpace(c) {
				continue
			}

			switch {
			case s.seek == seekColon && c == ':':
				s.seek = seekBracket
				continue
			case s.seek == seekBracket && c == '[':
				s.seek = seekNone
				s.inArray = true
				s.depth = 0
				return nil
			}
			s.seek = seekNone

			switch c {
			case '"':
				s.state = stateInString
				if s.depth == 1 {
					s.keyStart = s.pos
				}
			case '{', '[':
				s.depth++
			case '}', ']':
				s.depth--
				if s.depth < 0 {
					return s.unexpected()
				}
			}
		}

		if err := s.fill(); err != nil {
			if err == io.EOF {
				return &Error{Kind: ErrUnexpectedStructure, Offset: s.Offset()}
			}
			return err
		}
	}
}

func (s *Scanner) unexpected() error {
	return &Error{Kind: ErrUnexpectedStructure, Offset: s.base + int64(s.pos-1)}
}

// fill compacts the window and appends up to one chunk from the reader.
func (s *Scanner) fill() error {
	if s.eof {
		return io.EOF
	}

	s.compact()

	if cap(s.buf)-len(s.buf) < s.chunkSize {
		grown := make([]byte, len(s.buf), 2*cap(s.buf)+s.chunkSize)
		copy(grown, s.buf)
		s.buf = grown
	}

	for i := maxConsecutiveEmptyReads; i > 0; i-- {
		n, err := s.r.Read(s.buf[len(s.buf) : len(s.buf)+s.chunkSize])
		s.buf = s.buf[:len(s.buf)+n]
		if len(s.buf) > s.peak {
			s.peak = len(s.buf)
		}

		if err != nil {
			if err != io.EOF {
				return err
			}
			s.eof = true
			if n > 0 {
				return nil
			}
			return io.EOF
		}
		if n > 0 {
			return nil
		}
	}

	return io.ErrNoProgress
}

// compact drops every byte before the earliest index still needed: the open
// span, the open key, or the cursor. Cost is the size of what remains.
func (s *Scanner) compact() {
	keep := s.pos
	if s.start >= 0 && s.start < keep {
		keep = s.start
	}
	if s.keyStart >= 0 && s.keyStart < keep {
		keep = s.keyStart
	}

	if keep > 0 {
		n := copy(s.buf, s.buf[keep:])
		s.buf = s.buf[:n]
		s.base += int64(keep)
		s.pos -= keep
		if s.start >= 0 {
			s.start -= keep
		}
		if s.keyStart >= 0 {
			s.keyStart -= keep
		}
	}

	// give back memory held after an oversized feature
	if cap(s.buf) > 4*(len(s.buf)+s.chunkSize) {
		shrunk := make([]byte, len(s.buf), len(s.buf)+2*s.chunkSize)
		copy(shrunk, s.buf)
		s.buf = shrunk
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}
