package writer

import (
	"io"

	"github.com/aerysproject/aerys/pkg/body"
)

const byteRangeChunkSize = 32 * 1024

// ByteRangeWriter writes headers, seeks the source to offset, and
// streams exactly length bytes (§4.5 variant 3).
type ByteRangeWriter struct {
	d           *drainer
	headerBlock []byte
	src         body.ReaderAtSeeker
	offset      int64
	length      int64
}

func (w *ByteRangeWriter) WriteAll() error {
	if err := w.d.write(w.headerBlock); err != nil {
		return err
	}
	return writeRange(w.d, w.src, w.offset, w.length)
}

// writeRange streams exactly length bytes starting at offset, via
// ReadAt so callers may share one source across concurrent ranges.
func writeRange(d *drainer, src body.ReaderAtSeeker, offset, length int64) error {
	buf := make([]byte, byteRangeChunkSize)
	remaining := length
	pos := offset

	for remaining > 0 {
		want := int64(len(buf))
		if remaining < want {
			want = remaining
		}
		n, err := src.ReadAt(buf[:want], pos)
		if n > 0 {
			if werr := d.write(buf[:n]); werr != nil {
				return werr
			}
			pos += int64(n)
			remaining -= int64(n)
		}
		if err != nil {
			if err == io.EOF && remaining == 0 {
				return nil
			}
			return err
		}
	}
	return nil
}
