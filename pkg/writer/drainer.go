// Package writer implements the WriterFactory and the six body-shape
// writers (§4.5): InlineWriter, StreamWriter, ByteRangeWriter,
// MultiPartByteRangeWriter, ChunkedIteratorWriter, and IteratorWriter.
// Grounded on the teacher's response.go WriteTo/WriteHeadersTo/
// WriteToWithBodyChunked header-then-body sequencing and short-write
// retry discipline, generalized into a total match over body.Body.
package writer

import (
	"errors"
	"io"
	"net"
	"syscall"

	"github.com/aerysproject/aerys/pkg/aeryserr"
)

// drainer is the shared write sink every writer variant uses, so the
// "drain suspension" and "short write" requirements in §4.5/§5 are
// expressed once. Write retries a short write internally and maps a
// closed/reset socket to aeryserr.ClientGone.
type drainer struct {
	dst io.Writer
}

func newDrainer(dst io.Writer) *drainer {
	return &drainer{dst: dst}
}

// write writes all of p, retrying on short writes, and translates a
// network error into aeryserr.ClientGone.
func (d *drainer) write(p []byte) error {
	for len(p) > 0 {
		n, err := d.dst.Write(p)
		if err != nil {
			if isClientGone(err) {
				return aeryserr.NewClientGone("write", err)
			}
			return err
		}
		p = p[n:]
	}
	return nil
}

func isClientGone(err error) bool {
	return errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNRESET)
}
