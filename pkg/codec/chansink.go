package codec

// ChanSink is the terminal Sink a pipeline feeds. The driver's writer
// goroutine reads Chan(). Depth is kept small (1 by convention) so a
// Send blocks until the writer goroutine has drained the previous
// event — the Go analogue of "codec.send() yields" in spec.md §5.
type ChanSink struct {
	ch chan Event
}

// NewChanSink returns a ChanSink buffering up to depth events.
func NewChanSink(depth int) *ChanSink {
	return &ChanSink{ch: make(chan Event, depth)}
}

func (s *ChanSink) Send(e Event) error {
	s.ch <- e
	return nil
}

// Chan returns the receive end the writer goroutine drains.
func (s *ChanSink) Chan() <-chan Event {
	return s.ch
}

// Close closes the channel once the terminal filter has sent EventEnd.
func (s *ChanSink) Close() {
	close(s.ch)
}
