// Package codec implements the ordered filter pipeline between Response
// and WriterFactory: cookie stamping, compression negotiation, chunking
// decision, and terminal serialization (§4.3). Each filter is a Sink
// wrapping a downstream Sink; events flow strictly headers, then zero or
// more chunk/flush events, then one end event.
package codec

import (
	"github.com/aerysproject/aerys/pkg/aeryserr"
	"github.com/aerysproject/aerys/pkg/body"
	"github.com/aerysproject/aerys/pkg/cookies"
	"github.com/aerysproject/aerys/pkg/headers"
)

// Pseudo-header names carried alongside ordinary entries in a Fields
// snapshot (§3, §6).
const (
	PseudoStatus       = ":status"
	PseudoReason       = ":reason"
	PseudoEntityLength = ":aerys-entity-length"
	// PseudoNoCompress tells CompressionFilter to pass the response
	// through untouched. Set for any response whose body arrives as an
	// EventBody rather than a byte-chunk stream: CompressionFilter only
	// buffers and re-encodes EventChunk payloads, so a ByteRange,
	// MultiPartByteRange, ResourceStream, or Iterator body would
	// otherwise get a content-encoding header promising compressed
	// bytes it never actually produces. Consumed and stripped by
	// CompressionFilter before the header block reaches the wire.
	PseudoNoCompress = ":aerys-no-compress"
)

// EntityLengthUnknown and EntityLengthNone are the two non-numeric
// sentinels :aerys-entity-length may carry.
const (
	EntityLengthUnknown = "*"
	EntityLengthNone    = "@"
)

// EventKind tags an Event.
type EventKind int

const (
	EventHeaders EventKind = iota
	EventChunk
	EventFlush
	EventEnd
	// EventBody carries a non-byte-slice body.Body variant (§3 variants
	// 2-5: ResourceStream, ByteRange, MultiPartByteRange, Iterator) past
	// the filters untouched — none of them transform it — down to the
	// driver, which dispatches it straight into pkg/writer.New instead of
	// draining it as a byte-chunk iterator. Always followed by EventEnd,
	// never mixed with EventChunk for the same response.
	EventBody
)

// Event is the single type flowing through the pipeline. Headers is set
// only for EventHeaders; Data only for EventChunk; Body only for
// EventBody.
type Event struct {
	Kind    EventKind
	Headers *headers.Fields
	Data    []byte
	Body    body.Body
}

// Sink consumes pipeline events in order. Implementations must not
// reorder or drop events.
type Sink interface {
	Send(Event) error
}

// SinkFunc adapts a plain function to a Sink.
type SinkFunc func(Event) error

func (f SinkFunc) Send(e Event) error { return f(e) }

// Config bundles the per-response inputs the pipeline's filters need at
// construction time.
type Config struct {
	Cookies        cookies.Table
	AcceptEncoding string
	ProtoVersion   string // "HTTP/1.0" or "HTTP/1.1"
}

// NewPipeline wires the four standard filters in front of final, in the
// order cookie-stamping → compression → chunking-decision → terminal
// serialization, and returns the head Sink a Response pushes events
// into.
func NewPipeline(final Sink, cfg Config) Sink {
	terminal := &TerminalFilter{downstream: final}
	chunking := &ChunkingFilter{downstream: terminal, protoVersion: cfg.ProtoVersion}
	compression := &CompressionFilter{downstream: chunking, acceptEncoding: cfg.AcceptEncoding}
	cookie := &CookieFilter{downstream: compression, cookies: cfg.Cookies}
	return cookie
}

// wrapFilterErr builds an aeryserr.InternalFilter, recording whether the
// terminal filter had already handed a header block downstream by the
// time the failure occurred.
func wrapFilterErr(filter string, headersSent bool, err error) error {
	return aeryserr.NewInternalFilter(filter, headersSent, err)
}
