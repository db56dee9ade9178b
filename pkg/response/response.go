// Package response implements the handler-side Response lifecycle state
// machine (§4.4): a mutable builder holding status, headers, and
// cookies, whose setters push into a codec pipeline and freeze once
// STARTED. Grounded on the teacher's response.go/builder.go "mutable
// struct with Set*/Build methods" shape, rewritten entirely for
// server-side semantics — the teacher's Response models a client-side
// parsed response, not a handler-side builder.
package response

import (
	"strconv"

	"github.com/aerysproject/aerys/pkg/aeryserr"
	"github.com/aerysproject/aerys/pkg/body"
	"github.com/aerysproject/aerys/pkg/codec"
	"github.com/aerysproject/aerys/pkg/cookies"
	"github.com/aerysproject/aerys/pkg/headers"
	"github.com/aerysproject/aerys/pkg/validate"
)

// State is the §3 state bit set.
type State uint32

const (
	Started State = 1 << iota
	Streaming
	Ended
)

func (s State) Has(bit State) bool { return s&bit != 0 }

// Response is single-writer: only the handler goroutine that owns it
// may call its methods, matching §5's shared-resource policy. No mutex
// guards its fields.
type Response struct {
	status  int
	reason  string
	headers *headers.Fields
	cookies cookies.Table
	state   State

	sink codec.Sink

	reasonValid func(string) bool
	fieldValid  func(name, value string) bool
}

// Option configures a Response at construction.
type Option func(*Response)

// WithValidators overrides the reason-phrase and header-field acceptance
// checks SetReason/SetHeader/AddHeader apply. The zero value of Response
// uses pkg/validate's lenient defaults (always true); pass
// validate.StrictReasonPhrase/validate.StrictHeaderField to opt into the
// RFC 7230 checks instead.
func WithValidators(reasonPhrase func(string) bool, headerField func(name, value string) bool) Option {
	return func(r *Response) {
		r.reasonValid = reasonPhrase
		r.fieldValid = headerField
	}
}

// New creates a Response with status 200 and an empty header/cookie
// table, wired to push events into sink (typically the head of a
// pkg/codec pipeline).
func New(sink codec.Sink, opts ...Option) *Response {
	r := &Response{
		status:      200,
		headers:     headers.New(),
		cookies:     cookies.Table{},
		sink:        sink,
		reasonValid: validate.ReasonPhrase,
		fieldValid:  validate.HeaderField,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current state bit set.
func (r *Response) State() State { return r.state }

func (r *Response) mustNotBeStarted(op string) error {
	if r.state.Has(Started) {
		return aeryserr.NewResponseLifecycle(op, r.stateName())
	}
	return nil
}

func (r *Response) mustNotBeEnded(op string) error {
	if r.state.Has(Ended) {
		return aeryserr.NewResponseLifecycle(op, r.stateName())
	}
	return nil
}

func (r *Response) stateName() string {
	switch {
	case r.state.Has(Ended):
		return "ENDED"
	case r.state.Has(Streaming):
		return "STREAMING"
	case r.state.Has(Started):
		return "STARTED"
	default:
		return "INIT"
	}
}

// SetStatus sets the response status code. code must be in [100,599].
func (r *Response) SetStatus(code int) (*Response, error) {
	if err := r.mustNotBeStarted("setStatus"); err != nil {
		return r, err
	}
	if code < 100 || code > 599 {
		return r, aeryserr.NewResponseLifecycle("setStatus", "out-of-range status "+strconv.Itoa(code))
	}
	r.status = code
	return r, nil
}

// SetReason sets the status-line reason phrase. Rejected by the
// configured reason-phrase validator (lenient by default, see
// WithValidators) before it reaches the wire.
func (r *Response) SetReason(phrase string) (*Response, error) {
	if err := r.mustNotBeStarted("setReason"); err != nil {
		return r, err
	}
	if !r.reasonValid(phrase) {
		return r, aeryserr.NewResponseLifecycle("setReason", "rejected reason phrase")
	}
	r.reason = phrase
	return r, nil
}

// AddHeader appends value to field's list without clearing prior values.
func (r *Response) AddHeader(field, value string) (*Response, error) {
	if err := r.mustNotBeStarted("addHeader"); err != nil {
		return r, err
	}
	if !r.fieldValid(field, value) {
		return r, aeryserr.NewResponseLifecycle("addHeader", "rejected header field "+field)
	}
	r.headers.Add(field, value)
	return r, nil
}

// SetHeader replaces field's list with a single value.
func (r *Response) SetHeader(field, value string) (*Response, error) {
	if err := r.mustNotBeStarted("setHeader"); err != nil {
		return r, err
	}
	if !r.fieldValid(field, value) {
		return r, aeryserr.NewResponseLifecycle("setHeader", "rejected header field "+field)
	}
	r.headers.Set(field, value)
	return r, nil
}

// SetCookie stores name/value/flags in the cookie table, frozen and
// rendered into set-cookie headers when the response starts.
func (r *Response) SetCookie(name, value string, flags []cookies.Flag) (*Response, error) {
	if err := r.mustNotBeStarted("setCookie"); err != nil {
		return r, err
	}
	r.cookies[name] = cookies.Entry{Value: value, Flags: flags}
	return r, nil
}

// Send is equivalent to End(body); it requires the response not yet be
// STREAMING or ENDED.
func (r *Response) Send(body []byte) (*Response, error) {
	if r.state.Has(Streaming) {
		return r, aeryserr.NewResponseLifecycle("send", r.stateName())
	}
	return r.End(body)
}

// Stream pushes chunk as one more body event. On the first call it
// freezes cookies and pushes headers with :aerys-entity-length="*".
func (r *Response) Stream(chunk []byte) (*Response, error) {
	if err := r.mustNotBeEnded("stream"); err != nil {
		return r, err
	}

	if !r.state.Has(Started) {
		if err := r.pushHeaders(codec.EntityLengthUnknown); err != nil {
			return r, err
		}
	}

	if err := r.sink.Send(codec.Event{Kind: codec.EventChunk, Data: chunk}); err != nil {
		return r, err
	}

	r.state |= Started | Streaming
	return r, nil
}

// Flush pushes a flush sentinel into the codec and returns once the
// pipeline has accepted it. It does not wait for previously pushed
// chunks to reach the destination, and while compression is active the
// compression filter absorbs the sentinel. Requires STARTED and !ENDED.
func (r *Response) Flush() (*Response, error) {
	if !r.state.Has(Started) {
		return r, aeryserr.NewResponseLifecycle("flush", r.stateName())
	}
	if err := r.mustNotBeEnded("flush"); err != nil {
		return r, err
	}
	if err := r.sink.Send(codec.Event{Kind: codec.EventFlush}); err != nil {
		return r, err
	}
	return r, nil
}

// End finalizes the response. On first start it freezes cookies and
// pushes headers with :aerys-entity-length = len(chunk), or "@" if
// chunk is empty/nil; it then pushes chunk (if any) and an end
// sentinel. Requires !ENDED.
func (r *Response) End(chunk []byte) (*Response, error) {
	if err := r.mustNotBeEnded("end"); err != nil {
		return r, err
	}

	if !r.state.Has(Started) {
		entityLength := codec.EntityLengthNone
		if len(chunk) > 0 {
			entityLength = strconv.Itoa(len(chunk))
		}
		if err := r.pushHeaders(entityLength); err != nil {
			return r, err
		}
	}

	if len(chunk) > 0 {
		if err := r.sink.Send(codec.Event{Kind: codec.EventChunk, Data: chunk}); err != nil {
			return r, err
		}
	}

	if err := r.sink.Send(codec.Event{Kind: codec.EventEnd}); err != nil {
		return r, err
	}

	r.state |= Started | Ended
	return r, nil
}

// SendBody is Send/End's counterpart for the non-byte-slice body
// variants (§3 variants 2-5: ResourceStream, ByteRange,
// MultiPartByteRange, Iterator). It drives the same header-freeze-once,
// ENDED-on-return lifecycle as End, but hands the codec pipeline an
// opaque body.Body instead of pre-chunked bytes, so the driver
// dispatches it straight into the matching pkg/writer variant instead
// of draining it as a byte-chunk iterator. It does not support
// Stream-style incremental sends: a body.Body is handed over whole.
func (r *Response) SendBody(b body.Body) (*Response, error) {
	if err := r.mustNotBeEnded("sendBody"); err != nil {
		return r, err
	}
	if r.state.Has(Streaming) {
		return r, aeryserr.NewResponseLifecycle("sendBody", r.stateName())
	}

	if !r.state.Has(Started) {
		if err := r.pushHeadersNoCompress(bodyEntityLength(b)); err != nil {
			return r, err
		}
	}

	if err := r.sink.Send(codec.Event{Kind: codec.EventBody, Body: b}); err != nil {
		return r, err
	}
	if err := r.sink.Send(codec.Event{Kind: codec.EventEnd}); err != nil {
		return r, err
	}

	r.state |= Started | Ended
	return r, nil
}

// bodyEntityLength derives the :aerys-entity-length sentinel for a
// body.Body whose length isn't simply len(chunk): ByteRange and
// MultiPartByteRange know their length up front (the range, or the
// precomputed total of parts plus boundary overhead); ResourceStream
// and Iterator don't, and fall back to the same "unknown" sentinel
// compression uses, forcing chunked/close-delimited framing downstream.
func bodyEntityLength(b body.Body) string {
	if b == nil {
		return codec.EntityLengthNone
	}
	switch b.Kind() {
	case body.KindEmpty:
		return codec.EntityLengthNone
	case body.KindString:
		if s, ok := b.(interface{ Bytes() []byte }); ok {
			if len(s.Bytes()) == 0 {
				return codec.EntityLengthNone
			}
			return strconv.Itoa(len(s.Bytes()))
		}
	case body.KindByteRange:
		if br, ok := b.(interface{ Length() int64 }); ok {
			return strconv.FormatInt(br.Length(), 10)
		}
	case body.KindMultiPartByteRange:
		if mp, ok := b.(interface{ EncodedLength() int64 }); ok {
			return strconv.FormatInt(mp.EncodedLength(), 10)
		}
	}
	return codec.EntityLengthUnknown
}

// pushHeaders freezes status/reason/:aerys-entity-length into a Fields
// snapshot and pushes it into the codec sink. State bits are set by the
// caller only after this call succeeds, per §4.4's ordering invariant:
// a codec-raised error must leave the response in a state a driver can
// still recover from.
func (r *Response) pushHeaders(entityLength string) error {
	snapshot := r.headers.Clone()
	snapshot.Set(codec.PseudoStatus, strconv.Itoa(r.status))
	snapshot.Set(codec.PseudoReason, r.reason)
	snapshot.Set(codec.PseudoEntityLength, entityLength)

	return r.sink.Send(codec.Event{Kind: codec.EventHeaders, Headers: snapshot})
}

// pushHeadersNoCompress is pushHeaders plus codec.PseudoNoCompress: used
// by SendBody, whose EventBody payload CompressionFilter cannot buffer
// and re-encode the way it does EventChunk data (see PseudoNoCompress).
func (r *Response) pushHeadersNoCompress(entityLength string) error {
	snapshot := r.headers.Clone()
	snapshot.Set(codec.PseudoStatus, strconv.Itoa(r.status))
	snapshot.Set(codec.PseudoReason, r.reason)
	snapshot.Set(codec.PseudoEntityLength, entityLength)
	snapshot.Set(codec.PseudoNoCompress, "1")

	return r.sink.Send(codec.Event{Kind: codec.EventHeaders, Headers: snapshot})
}
