package writer

import (
	"fmt"

	"github.com/aerysproject/aerys/pkg/body"
)

// MultiPartByteRangeWriter writes headers, then for each range the
// multipart delimiter, per-range Content-Type and Content-Range
// fields, a blank line, and length bytes; after the last range it
// emits the closing delimiter (§4.5 variant 4).
type MultiPartByteRangeWriter struct {
	d           *drainer
	headerBlock []byte
	src         body.ReaderAtSeeker
	ranges      []body.Range
	boundary    string
	contentType string
	totalLength int64
}

func (w *MultiPartByteRangeWriter) WriteAll() error {
	if err := w.d.write(w.headerBlock); err != nil {
		return err
	}

	for _, r := range w.ranges {
		part := fmt.Sprintf("--%s\r\nContent-Type: %s\r\nContent-Range: bytes %d-%d/%d\r\n\r\n",
			w.boundary, w.contentType, r.Offset, r.Offset+r.Length-1, w.totalLength)
		if err := w.d.write([]byte(part)); err != nil {
			return err
		}
		if err := writeRange(w.d, w.src, r.Offset, r.Length); err != nil {
			return err
		}
		if err := w.d.write([]byte("\r\n")); err != nil {
			return err
		}
	}

	closing := fmt.Sprintf("--%s--\r\n", w.boundary)
	return w.d.write([]byte(closing))
}
