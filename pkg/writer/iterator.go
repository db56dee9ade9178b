package writer

import (
	"io"

	"github.com/aerysproject/aerys/pkg/body"
	"github.com/aerysproject/aerys/pkg/chunked"
)

// ChunkedIteratorWriter handles a lazy byte sequence under protocol
// ≥ 1.1: writes headers, then for each produced chunk emits
// "<hex-length>\r\n<chunk>\r\n"; on end-of-sequence emits "0\r\n\r\n".
// Empty chunks are elided by chunked.EncodeWriter — they would be
// misread as the terminator (§4.5 variant 5).
type ChunkedIteratorWriter struct {
	d           *drainer
	headerBlock []byte
	it          body.Iterator
}

// NewChunkedIteratorWriter builds a ChunkedIteratorWriter directly,
// bypassing New's protocol-version heuristic — used by callers (such as
// pkg/driver) that already know the codec decided on chunked framing
// via the transfer-encoding header, rather than inferring it from
// protoVersion alone.
func NewChunkedIteratorWriter(dst io.Writer, headerBlock []byte, it body.Iterator) Writer {
	return &ChunkedIteratorWriter{d: newDrainer(dst), headerBlock: headerBlock, it: it}
}

func (w *ChunkedIteratorWriter) WriteAll() error {
	if err := w.d.write(w.headerBlock); err != nil {
		return err
	}

	enc := chunked.NewEncodeWriter(writerFunc(w.d.write))
	for {
		c, err := w.it.Next()
		if err != nil {
			return err
		}
		if c.Done {
			return enc.Close()
		}
		if c.Flush {
			continue
		}
		if _, err := enc.Write(c.Data); err != nil {
			return err
		}
	}
}

// IteratorWriter handles a lazy byte sequence under protocol < 1.1:
// writes headers, then raw chunks without chunked framing; the
// connection must be closed by the caller to signal end (§4.5 variant
// 6).
type IteratorWriter struct {
	d           *drainer
	headerBlock []byte
	it          body.Iterator
}

// NewIteratorWriter builds an IteratorWriter directly, bypassing New's
// protocol-version heuristic — used by callers that already know the
// codec decided on unframed passthrough (content-length-known or
// close-delimited framing), independent of protocol version.
func NewIteratorWriter(dst io.Writer, headerBlock []byte, it body.Iterator) Writer {
	return &IteratorWriter{d: newDrainer(dst), headerBlock: headerBlock, it: it}
}

func (w *IteratorWriter) WriteAll() error {
	if err := w.d.write(w.headerBlock); err != nil {
		return err
	}

	for {
		c, err := w.it.Next()
		if err != nil {
			return err
		}
		if c.Done {
			return nil
		}
		if c.Flush || len(c.Data) == 0 {
			continue
		}
		if err := w.d.write(c.Data); err != nil {
			return err
		}
	}
}

// writerFunc adapts a write func to io.Writer for chunked.NewEncodeWriter.
type writerFunc func(p []byte) error

func (f writerFunc) Write(p []byte) (int, error) {
	if err := f(p); err != nil {
		return 0, err
	}
	return len(p), nil
}
