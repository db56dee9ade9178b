package writer

import (
	"fmt"
	"io"

	"github.com/aerysproject/aerys/pkg/aeryserr"
	"github.com/aerysproject/aerys/pkg/body"
)

// Writer is ephemeral: it owns a destination sink, a pre-serialized
// header block, and the body variant, and lives for exactly one
// response.
type Writer interface {
	// WriteAll drives the writer to completion: headers, then body,
	// framed according to the variant's rule in §4.5.
	WriteAll() error
}

// New is the total match over body.Body's tag (§4.5). protoVersion
// distinguishes the HTTP/1.0 IteratorWriter (close-delimited) from the
// HTTP/1.1+ ChunkedIteratorWriter. Unrecognized tags return
// aeryserr.InvalidBody.
func New(dst io.Writer, headerBlock []byte, b body.Body, protoVersion string) (Writer, error) {
	if b == nil {
		b = body.Empty()
	}

	switch b.Kind() {
	case body.KindEmpty:
		return &InlineWriter{d: newDrainer(dst), headerBlock: headerBlock, data: nil}, nil

	case body.KindString:
		s, ok := b.(interface{ Bytes() []byte })
		if !ok {
			return nil, aeryserr.NewInvalidBody(fmt.Sprintf("%T", b))
		}
		return &InlineWriter{d: newDrainer(dst), headerBlock: headerBlock, data: s.Bytes()}, nil

	case body.KindResourceStream:
		rs, ok := b.(interface{ Source() body.ReadPeeker })
		if !ok {
			return nil, aeryserr.NewInvalidBody(fmt.Sprintf("%T", b))
		}
		return &StreamWriter{d: newDrainer(dst), headerBlock: headerBlock, src: rs.Source(), chunked: isHTTP11OrAbove(protoVersion)}, nil

	case body.KindByteRange:
		br, ok := b.(interface {
			Source() body.ReaderAtSeeker
			Offset() int64
			Length() int64
		})
		if !ok {
			return nil, aeryserr.NewInvalidBody(fmt.Sprintf("%T", b))
		}
		return &ByteRangeWriter{d: newDrainer(dst), headerBlock: headerBlock, src: br.Source(), offset: br.Offset(), length: br.Length()}, nil

	case body.KindMultiPartByteRange:
		mp, ok := b.(interface {
			Source() body.ReaderAtSeeker
			Ranges() []body.Range
			Boundary() string
			ContentType() string
			TotalLength() int64
		})
		if !ok {
			return nil, aeryserr.NewInvalidBody(fmt.Sprintf("%T", b))
		}
		return &MultiPartByteRangeWriter{
			d:           newDrainer(dst),
			headerBlock: headerBlock,
			src:         mp.Source(),
			ranges:      mp.Ranges(),
			boundary:    mp.Boundary(),
			contentType: mp.ContentType(),
			totalLength: mp.TotalLength(),
		}, nil

	case body.KindIterator:
		it, ok := b.(interface{ Iterator() body.Iterator })
		if !ok {
			return nil, aeryserr.NewInvalidBody(fmt.Sprintf("%T", b))
		}
		if isHTTP11OrAbove(protoVersion) {
			return &ChunkedIteratorWriter{d: newDrainer(dst), headerBlock: headerBlock, it: it.Iterator()}, nil
		}
		return &IteratorWriter{d: newDrainer(dst), headerBlock: headerBlock, it: it.Iterator()}, nil

	default:
		return nil, aeryserr.NewInvalidBody(fmt.Sprintf("%T", b))
	}
}

func isHTTP11OrAbove(version string) bool {
	switch version {
	case "HTTP/1.1", "HTTP/2", "HTTP/2.0":
		return true
	default:
		return false
	}
}
