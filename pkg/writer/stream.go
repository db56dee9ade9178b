package writer

import (
	"io"

	"github.com/aerysproject/aerys/pkg/body"
	"github.com/aerysproject/aerys/pkg/chunked"
)

// streamChunkSize bounds each read from an opaque resource stream.
const streamChunkSize = 32 * 1024

// StreamWriter handles an opaque readable byte source of unknown
// length: writes headers before the first chunk, then body bytes
// framed by whichever content-length/transfer-encoding the codec
// already stamped for an unknown-length body (§4.5 variant 2). Since
// the length is unknown, that's always chunked framing on HTTP/1.1+
// and close-delimited framing below it; chunked mirrors that choice
// so the bytes on the wire match what the header block promised.
type StreamWriter struct {
	d           *drainer
	headerBlock []byte
	src         body.ReadPeeker
	chunked     bool
}

func (w *StreamWriter) WriteAll() error {
	if err := w.d.write(w.headerBlock); err != nil {
		return err
	}

	var enc *chunked.EncodeWriter
	if w.chunked {
		enc = chunked.NewEncodeWriter(writerFunc(w.d.write))
	}

	buf := make([]byte, streamChunkSize)
	for {
		n, err := w.src.Read(buf)
		if n > 0 {
			if enc != nil {
				if _, werr := enc.Write(buf[:n]); werr != nil {
					return werr
				}
			} else if werr := w.d.write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			if enc != nil {
				return enc.Close()
			}
			return nil
		}
		if err != nil {
			return err
		}
	}
}
