package codec

import (
	"fmt"

	"github.com/aerysproject/aerys/pkg/headers"
)

// TerminalFilter strips pseudo-headers, serializes the status line and
// header block, and hands (headerBlock, body events) to the writer
// package's dispatch (§4.3 step 4). It tracks whether the header block
// has already been sent so the driver can decide, on an InternalFilter
// error from an upstream filter, whether substituting a 500 is still
// possible.
type TerminalFilter struct {
	downstream  Sink
	headersSent bool
}

// HeadersSent reports whether this filter has already serialized and
// forwarded the header block for the current response.
func (f *TerminalFilter) HeadersSent() bool { return f.headersSent }

func (f *TerminalFilter) Send(e Event) error {
	switch e.Kind {
	case EventHeaders:
		return f.onHeaders(e)
	default:
		if err := f.downstream.Send(e); err != nil {
			return wrapFilterErr("terminal", f.headersSent, err)
		}
		return nil
	}
}

func (f *TerminalFilter) onHeaders(e Event) error {
	status := e.Headers.Get(PseudoStatus)
	reason := e.Headers.Get(PseudoReason)

	statusLine := fmt.Sprintf("HTTP/1.1 %s %s\r\n", status, reason)
	block := append([]byte(statusLine), headers.Build(e.Headers)...)
	block = append(block, '\r', '\n')

	if err := f.downstream.Send(Event{Kind: EventHeaders, Data: block, Headers: e.Headers}); err != nil {
		return wrapFilterErr("terminal", false, err)
	}
	f.headersSent = true
	return nil
}
