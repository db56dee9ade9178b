package codec

import (
	"testing"

	"github.com/aerysproject/aerys/pkg/cookies"
	"github.com/aerysproject/aerys/pkg/headers"
)

func newTestPipeline(t *testing.T, cfg Config) (Sink, *ChanSink) {
	t.Helper()
	final := NewChanSink(4)
	return NewPipeline(final, cfg), final
}

func TestPipeline_StringBodyScenario1(t *testing.T) {
	pipeline, final := newTestPipeline(t, Config{ProtoVersion: "HTTP/1.1"})

	h := headers.New()
	h.Set(PseudoStatus, "201")
	h.Set(PseudoReason, "Created")
	h.Set(PseudoEntityLength, "2")
	h.Set("x-a", "1")

	if err := pipeline.Send(Event{Kind: EventHeaders, Headers: h}); err != nil {
		t.Fatalf("Send(headers): %v", err)
	}
	if err := pipeline.Send(Event{Kind: EventChunk, Data: []byte("hi")}); err != nil {
		t.Fatalf("Send(chunk): %v", err)
	}
	if err := pipeline.Send(Event{Kind: EventEnd}); err != nil {
		t.Fatalf("Send(end): %v", err)
	}
	final.Close()

	headerEvent := <-final.Chan()
	if headerEvent.Kind != EventHeaders {
		t.Fatalf("first event kind = %v", headerEvent.Kind)
	}
	if string(headerEvent.Data[:14]) != "HTTP/1.1 201 C" {
		t.Errorf("status line = %q", headerEvent.Data)
	}
	if headerEvent.Headers.Get("content-length") != "2" {
		t.Errorf("content-length = %q", headerEvent.Headers.Get("content-length"))
	}

	chunkEvent := <-final.Chan()
	if chunkEvent.Kind != EventChunk || string(chunkEvent.Data) != "hi" {
		t.Errorf("chunk event = %+v", chunkEvent)
	}

	endEvent := <-final.Chan()
	if endEvent.Kind != EventEnd {
		t.Errorf("end event kind = %v", endEvent.Kind)
	}
}

func TestPipeline_NoBodySetsEntityLengthNone(t *testing.T) {
	pipeline, final := newTestPipeline(t, Config{ProtoVersion: "HTTP/1.1"})

	h := headers.New()
	h.Set(PseudoStatus, "204")
	h.Set(PseudoEntityLength, EntityLengthNone)

	pipeline.Send(Event{Kind: EventHeaders, Headers: h})
	pipeline.Send(Event{Kind: EventEnd})
	final.Close()

	headerEvent := <-final.Chan()
	if headerEvent.Headers.Has("content-length") || headerEvent.Headers.Has("transfer-encoding") {
		t.Errorf("expected no length headers, got %+v", headerEvent.Headers.All())
	}
}

func TestPipeline_UnknownLengthChunkedOnHTTP11(t *testing.T) {
	pipeline, final := newTestPipeline(t, Config{ProtoVersion: "HTTP/1.1"})

	h := headers.New()
	h.Set(PseudoStatus, "200")
	h.Set(PseudoEntityLength, EntityLengthUnknown)

	pipeline.Send(Event{Kind: EventHeaders, Headers: h})
	pipeline.Send(Event{Kind: EventEnd})
	final.Close()

	headerEvent := <-final.Chan()
	if headerEvent.Headers.Get("transfer-encoding") != "chunked" {
		t.Errorf("transfer-encoding = %q", headerEvent.Headers.Get("transfer-encoding"))
	}
}

func TestPipeline_StampsSetCookie(t *testing.T) {
	table := cookies.Table{
		"session": cookies.Entry{Value: "abc", Flags: cookies.NewFlags().Bare("Secure").Build()},
	}
	pipeline, final := newTestPipeline(t, Config{ProtoVersion: "HTTP/1.1", Cookies: table})

	h := headers.New()
	h.Set(PseudoStatus, "200")
	h.Set(PseudoEntityLength, EntityLengthNone)

	pipeline.Send(Event{Kind: EventHeaders, Headers: h})
	pipeline.Send(Event{Kind: EventEnd})
	final.Close()

	headerEvent := <-final.Chan()
	if headerEvent.Headers.Get("set-cookie") != "session=abc; Secure" {
		t.Errorf("set-cookie = %q", headerEvent.Headers.Get("set-cookie"))
	}
}

func TestPipeline_ActiveCompressionForcesChunkedFraming(t *testing.T) {
	pipeline, final := newTestPipeline(t, Config{ProtoVersion: "HTTP/1.1", AcceptEncoding: "gzip"})

	h := headers.New()
	h.Set(PseudoStatus, "200")
	h.Set(PseudoEntityLength, "2")

	if err := pipeline.Send(Event{Kind: EventHeaders, Headers: h}); err != nil {
		t.Fatalf("Send(headers): %v", err)
	}
	if err := pipeline.Send(Event{Kind: EventChunk, Data: []byte("hi")}); err != nil {
		t.Fatalf("Send(chunk): %v", err)
	}
	if err := pipeline.Send(Event{Kind: EventEnd}); err != nil {
		t.Fatalf("Send(end): %v", err)
	}
	final.Close()

	headerEvent := <-final.Chan()
	if headerEvent.Headers.Has("content-length") {
		t.Errorf("content-length should not survive active compression, got %q", headerEvent.Headers.Get("content-length"))
	}
	if got := headerEvent.Headers.Get("transfer-encoding"); got != "chunked" {
		t.Errorf("transfer-encoding = %q, want chunked — the precompression :aerys-entity-length sentinel must not leak through", got)
	}
	if headerEvent.Headers.Get("content-encoding") != "gzip" {
		t.Errorf("content-encoding = %q", headerEvent.Headers.Get("content-encoding"))
	}

	chunkEvent := <-final.Chan()
	if chunkEvent.Kind != EventChunk {
		t.Fatalf("chunk event kind = %v", chunkEvent.Kind)
	}
	if len(chunkEvent.Data) == 2 {
		t.Errorf("body chunk looks uncompressed: %q", chunkEvent.Data)
	}

	endEvent := <-final.Chan()
	if endEvent.Kind != EventEnd {
		t.Errorf("end event kind = %v", endEvent.Kind)
	}
}

func TestPipeline_NoCompressPseudoHeaderSkipsCompression(t *testing.T) {
	pipeline, final := newTestPipeline(t, Config{ProtoVersion: "HTTP/1.1", AcceptEncoding: "gzip"})

	h := headers.New()
	h.Set(PseudoStatus, "206")
	h.Set(PseudoEntityLength, "5")
	h.Set(PseudoNoCompress, "1")

	if err := pipeline.Send(Event{Kind: EventHeaders, Headers: h}); err != nil {
		t.Fatalf("Send(headers): %v", err)
	}
	if err := pipeline.Send(Event{Kind: EventEnd}); err != nil {
		t.Fatalf("Send(end): %v", err)
	}
	final.Close()

	headerEvent := <-final.Chan()
	// A body dispatched as an EventBody (byte range, multipart, resource
	// stream, iterator) never passes through CompressionFilter's
	// buffer-and-re-encode path, so the filter must leave it alone
	// entirely rather than stamping a content-encoding it can't honor.
	if headerEvent.Headers.Has("content-encoding") {
		t.Errorf("content-encoding = %q, want none", headerEvent.Headers.Get("content-encoding"))
	}
	if headerEvent.Headers.Get("content-length") != "5" {
		t.Errorf("content-length = %q, want 5", headerEvent.Headers.Get("content-length"))
	}
	if headerEvent.Headers.Has(PseudoNoCompress) {
		t.Errorf("PseudoNoCompress leaked downstream: %q", headerEvent.Headers.Get(PseudoNoCompress))
	}
}
