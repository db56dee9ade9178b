// Package body implements the tagged union of response body shapes:
// empty/string, resource stream, byte-range, multipart byte-range, and
// iterator. The writer package's factory is a total match over the tag
// returned by Kind.
package body

import (
	"fmt"
	"io"

	"github.com/google/uuid"
)

// Kind identifies which body variant a Body value carries.
type Kind int

const (
	KindEmpty Kind = iota
	KindString
	KindResourceStream
	KindByteRange
	KindMultiPartByteRange
	KindIterator
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindString:
		return "string"
	case KindResourceStream:
		return "resource-stream"
	case KindByteRange:
		return "byte-range"
	case KindMultiPartByteRange:
		return "multipart-byte-range"
	case KindIterator:
		return "iterator"
	default:
		return "unknown"
	}
}

// Body is a tagged union over the six shapes in §3. A nil Body is
// equivalent to Empty().
type Body interface {
	Kind() Kind
}

// Empty is the zero-byte body, distinct from String("") only in name.
type empty struct{}

func Empty() Body { return empty{} }

func (empty) Kind() Kind { return KindEmpty }

// str is a finite in-memory byte buffer.
type str struct {
	data []byte
}

// String wraps a finite byte buffer as a body.
func String(data []byte) Body {
	return str{data: data}
}

func (s str) Kind() Kind { return KindString }

// Bytes returns the buffer backing a String body.
func (s str) Bytes() []byte { return s.data }

// ReadPeeker is an opaque readable byte source that additionally
// supports a bounded look-ahead without consuming the stream. The
// StreamWriter only reads from it until io.EOF; Peek is for callers
// that inspect the stream before handing it over.
type ReadPeeker interface {
	io.Reader
	// Peek returns up to n bytes without advancing the read position.
	// It may return fewer than n bytes along with io.EOF.
	Peek(n int) ([]byte, error)
}

// resourceStream is an opaque readable byte source of unknown length.
type resourceStream struct {
	src ReadPeeker
}

// ResourceStream wraps an opaque readable byte source as a body.
func ResourceStream(src ReadPeeker) Body {
	return resourceStream{src: src}
}

func (r resourceStream) Kind() Kind { return KindResourceStream }

// Source returns the underlying readable source.
func (r resourceStream) Source() ReadPeeker { return r.src }

// ReaderAtSeeker is a seekable, randomly-addressable byte source —
// satisfied by *os.File and similarly by any in-memory backing store.
type ReaderAtSeeker interface {
	io.ReaderAt
	io.Seeker
}

// byteRange is a seekable source plus an (offset, length) window.
type byteRange struct {
	src    ReaderAtSeeker
	offset int64
	length int64
}

// ByteRange wraps a seekable source and an (offset, length) window as
// a body.
func ByteRange(src ReaderAtSeeker, offset, length int64) Body {
	return byteRange{src: src, offset: offset, length: length}
}

func (b byteRange) Kind() Kind { return KindByteRange }

func (b byteRange) Source() ReaderAtSeeker { return b.src }
func (b byteRange) Offset() int64          { return b.offset }
func (b byteRange) Length() int64          { return b.length }

// Range is one (offset, length) window of a multipart byte-range body.
type Range struct {
	Offset, Length int64
}

// multiPartByteRange is a seekable source plus a list of ranges and a
// generated boundary token.
type multiPartByteRange struct {
	src           ReaderAtSeeker
	ranges        []Range
	boundary      string
	contentType   string
	totalLength   int64
	encodedLength int64
}

// MultiPartByteRange wraps a seekable source, a list of ranges, and a
// boundary token as a body. contentType is the per-part Content-Type
// value (e.g. "text/plain"); totalLength is the full resource length,
// used to render Content-Range's "/total" suffix.
//
// The wire body is larger than the sum of the ranges themselves (each
// part adds a boundary line, headers, and a blank line, and a closing
// delimiter follows the last part); encodedLength precomputes that
// total up front, mirroring exactly what the writer package emits, so
// the response layer can frame it with a real content-length instead
// of falling back to chunked/close-delimited transfer.
func MultiPartByteRange(src ReaderAtSeeker, ranges []Range, boundary, contentType string, totalLength int64) Body {
	return multiPartByteRange{
		src:           src,
		ranges:        ranges,
		boundary:      boundary,
		contentType:   contentType,
		totalLength:   totalLength,
		encodedLength: multipartEncodedLength(ranges, boundary, contentType, totalLength),
	}
}

func multipartEncodedLength(ranges []Range, boundary, contentType string, totalLength int64) int64 {
	var n int64
	for _, r := range ranges {
		header := fmt.Sprintf("--%s\r\nContent-Type: %s\r\nContent-Range: bytes %d-%d/%d\r\n\r\n",
			boundary, contentType, r.Offset, r.Offset+r.Length-1, totalLength)
		n += int64(len(header)) + r.Length + int64(len("\r\n"))
	}
	n += int64(len(fmt.Sprintf("--%s--\r\n", boundary)))
	return n
}

// NewMultiPartBoundary generates a random per-response boundary token,
// unlikely to collide with any byte sequence occurring in the ranges
// it delimits.
func NewMultiPartBoundary() string {
	return "aerys-" + uuid.NewString()
}

func (m multiPartByteRange) Kind() Kind { return KindMultiPartByteRange }

func (m multiPartByteRange) Source() ReaderAtSeeker { return m.src }
func (m multiPartByteRange) Ranges() []Range        { return m.ranges }
func (m multiPartByteRange) Boundary() string       { return m.boundary }
func (m multiPartByteRange) ContentType() string    { return m.contentType }
func (m multiPartByteRange) TotalLength() int64     { return m.totalLength }
func (m multiPartByteRange) EncodedLength() int64   { return m.encodedLength }

// Chunk is one step of an Iterator body: either a byte chunk, a flush
// sentinel (Flush=true, Data empty), or end-of-sequence (Done=true).
type Chunk struct {
	Data  []byte
	Flush bool
	Done  bool
}

// Iterator is a lazy, finite, non-restartable sequence producing
// chunks. Next blocks until a chunk, flush marker, or end is ready.
type Iterator interface {
	Next() (Chunk, error)
}

type iterator struct {
	it Iterator
}

// FromIterator wraps a lazy chunk sequence as a body.
func FromIterator(it Iterator) Body {
	return iterator{it: it}
}

func (i iterator) Kind() Kind { return KindIterator }

func (i iterator) Iterator() Iterator { return i.it }
