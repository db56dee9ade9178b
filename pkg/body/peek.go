package body

import "bufio"

// BufioPeeker adapts any io.Reader into a ReadPeeker using a bufio.Reader's
// native look-ahead, so a caller can inspect upcoming bytes of a
// ResourceStream source without consuming them. StreamWriter itself only
// calls Read on the source.
type BufioPeeker struct {
	r *bufio.Reader
}

// NewBufioPeeker wraps r with a default-sized bufio.Reader.
func NewBufioPeeker(r interface {
	Read(p []byte) (int, error)
}) *BufioPeeker {
	return &BufioPeeker{r: bufio.NewReader(r)}
}

func (p *BufioPeeker) Read(b []byte) (int, error) {
	return p.r.Read(b)
}

func (p *BufioPeeker) Peek(n int) ([]byte, error) {
	return p.r.Peek(n)
}
