package codec

import (
	"strconv"
	"strings"
)

// ChunkingFilter resolves :aerys-entity-length into a concrete
// content-length header or a transfer-encoding: chunked header, per the
// table in spec.md §4.3. It never touches body events — actual chunked
// wire framing is the writer package's concern, driven by the body
// variant and protocol version.
type ChunkingFilter struct {
	downstream   Sink
	protoVersion string
}

func (f *ChunkingFilter) Send(e Event) error {
	if e.Kind != EventHeaders {
		if err := f.downstream.Send(e); err != nil {
			return wrapFilterErr("chunking", true, err)
		}
		return nil
	}

	h := e.Headers
	entityLength := h.Get(PseudoEntityLength)
	h.Del(PseudoEntityLength)

	switch entityLength {
	case EntityLengthNone:
		// no body: no content-length, no transfer-encoding
	case EntityLengthUnknown:
		if isHTTP11OrAbove(f.protoVersion) {
			h.Set("transfer-encoding", "chunked")
		}
		// else: close-delimited framing, no header needed
	default:
		if _, err := strconv.Atoi(entityLength); err == nil {
			h.Set("content-length", entityLength)
		}
	}

	if err := f.downstream.Send(e); err != nil {
		return wrapFilterErr("chunking", false, err)
	}
	return nil
}

func isHTTP11OrAbove(version string) bool {
	return strings.HasSuffix(version, "1.1") || strings.HasSuffix(version, "2") || strings.HasSuffix(version, "2.0")
}
