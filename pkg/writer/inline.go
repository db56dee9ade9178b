package writer

// InlineWriter handles an empty or finite byte-string body: writes
// headers + body in one logical send (§4.5 variant 1).
type InlineWriter struct {
	d           *drainer
	headerBlock []byte
	data        []byte
}

func (w *InlineWriter) WriteAll() error {
	if err := w.d.write(w.headerBlock); err != nil {
		return err
	}
	if len(w.data) == 0 {
		return nil
	}
	return w.d.write(w.data)
}
