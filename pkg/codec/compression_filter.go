package codec

import (
	"bytes"
	"strings"

	"github.com/aerysproject/aerys/pkg/compression"
)

// CompressionFilter negotiates against the request's Accept-Encoding,
// chooses among gzip/deflate/br/zstd, rewrites content-encoding, and
// drops any precomputed content-length it invalidates by re-encoding
// body chunks (§4.3 step 2).
//
// Negotiation happens at EventHeaders time; the whole body is then
// buffered until EventEnd, compressed once and emitted as a single
// chunk. Because the compressed length is not known when the headers go
// out, the filter drops content-length and marks the entity length
// unknown, so the chunking filter downstream frames the response as
// chunked (HTTP/1.1) or close-delimited (below HTTP/1.1).
type CompressionFilter struct {
	downstream Sink

	acceptEncoding string
	chosen         compression.CompressionType
	active         bool
	buffered       bytes.Buffer
}

func (f *CompressionFilter) Send(e Event) error {
	switch e.Kind {
	case EventHeaders:
		return f.onHeaders(e)
	case EventChunk:
		if f.active {
			f.buffered.Write(e.Data)
			return nil
		}
		if err := f.downstream.Send(e); err != nil {
			return wrapFilterErr("compression", true, err)
		}
		return nil
	case EventFlush:
		if f.active {
			// Buffering defers all bytes to EventEnd; a flush request
			// while compressing has nothing new to hand downstream yet.
			return nil
		}
		if err := f.downstream.Send(e); err != nil {
			return wrapFilterErr("compression", true, err)
		}
		return nil
	case EventEnd:
		return f.onEnd(e)
	default:
		return f.downstream.Send(e)
	}
}

func (f *CompressionFilter) onHeaders(e Event) error {
	h := e.Headers
	if h.Get(PseudoNoCompress) != "" {
		h.Del(PseudoNoCompress)
		if err := f.downstream.Send(e); err != nil {
			return wrapFilterErr("compression", false, err)
		}
		return nil
	}

	already := h.Get("content-encoding")
	if already == "" && f.acceptEncoding != "" {
		f.chosen = negotiate(f.acceptEncoding)
	}
	if f.chosen != compression.CompressionNone {
		f.active = true
		h.Set("content-encoding", compression.CompressionTypeToString(f.chosen))
		h.Del("content-length")
		// The compressed length isn't known until onEnd re-encodes the
		// buffered body, so the precomputed :aerys-entity-length sentinel
		// (set from the pre-compression body size) no longer applies —
		// downstream framing must fall back to chunked/close-delimited.
		h.Set(PseudoEntityLength, EntityLengthUnknown)
	}
	if err := f.downstream.Send(e); err != nil {
		return wrapFilterErr("compression", false, err)
	}
	return nil
}

func (f *CompressionFilter) onEnd(e Event) error {
	if f.active && f.buffered.Len() > 0 {
		compressed, err := compression.Compress(f.buffered.Bytes(), f.chosen)
		if err != nil {
			return wrapFilterErr("compression", true, err)
		}
		if sendErr := f.downstream.Send(Event{Kind: EventChunk, Data: compressed}); sendErr != nil {
			return wrapFilterErr("compression", true, sendErr)
		}
	}
	if err := f.downstream.Send(e); err != nil {
		return wrapFilterErr("compression", true, err)
	}
	return nil
}

// negotiate picks the first algorithm from acceptEncoding that this
// package supports, preferring earlier entries (quality values are not
// parsed — a lenient, order-based choice matching the teacher's
// DetectCompression's own preference-free lookup).
func negotiate(acceptEncoding string) compression.CompressionType {
	for _, tok := range strings.Split(acceptEncoding, ",") {
		tok = strings.TrimSpace(strings.SplitN(tok, ";", 2)[0])
		if ct := compression.DetectCompression(tok); ct != compression.CompressionNone {
			return ct
		}
	}
	return compression.CompressionNone
}
