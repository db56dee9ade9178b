package request

import (
	"bytes"
	"strings"

	"github.com/aerysproject/aerys/pkg/chunked"
	"github.com/aerysproject/aerys/pkg/cookies"
	"github.com/aerysproject/aerys/pkg/headers"
)

// Parse parses a complete, whole-buffer request. Fault tolerant in the
// teacher's style: a missing version defaults to HTTP/1.1 rather than
// failing, and a malformed header line is kept under a synthetic name
// rather than aborting the parse. Returns ok=false if data does not yet
// contain a full head.
func Parse(data []byte) (*Request, bool) {
	req, headEnd, ok := parseHead(data)
	if !ok {
		return nil, false
	}
	req.Body = data[headEnd:]
	return req, true
}

// IncrementalParser buffers bytes fed in off a connection and emits one
// *Request per complete head+body it accumulates, signaling needMore
// when the buffer does not yet hold a full request (§4.2's NEED_MORE
// suspension point). Grounded on the teacher's whole-buffer parse(),
// wrapped so the Driver can feed it straight from net.Conn.Read.
type IncrementalParser struct {
	buf []byte
}

// NewIncrementalParser returns a parser with an empty buffer.
func NewIncrementalParser() *IncrementalParser {
	return &IncrementalParser{}
}

// Feed appends chunk to the internal buffer and attempts to produce the
// next Request. needMore is true when more bytes are required; req is
// nil whenever needMore is true or an error is returned.
func (p *IncrementalParser) Feed(chunk []byte) (req *Request, needMore bool, err error) {
	p.buf = append(p.buf, chunk...)

	parsed, headEnd, ok := parseHead(p.buf)
	if !ok {
		return nil, true, nil
	}

	rest := p.buf[headEnd:]

	if parsed.IsChunked() {
		bodyEnd, ok := findChunkedBodyEnd(rest)
		if !ok {
			return nil, true, nil
		}
		decoded, _ := chunked.Decode(rest[:bodyEnd])
		parsed.Body = decoded
		p.buf = append([]byte(nil), rest[bodyEnd:]...)
		return parsed, false, nil
	}

	n, hasLength := parsed.declaredBodyLength()
	if !hasLength || n == 0 {
		parsed.Body = nil
		p.buf = append([]byte(nil), rest...)
		return parsed, false, nil
	}
	if len(rest) < n {
		return nil, true, nil
	}

	parsed.Body = append([]byte(nil), rest[:n]...)
	p.buf = append([]byte(nil), rest[n:]...)
	return parsed, false, nil
}

// parseHead scans data for a request line and a complete header block,
// returning the parsed Request (body not yet attached) and the offset
// just past the header-terminating blank line. ok is false if data does
// not yet contain a complete head.
func parseHead(data []byte) (req *Request, headEnd int, ok bool) {
	lineEnd := bytes.IndexAny(data, "\r\n")
	if lineEnd <= 0 {
		return nil, 0, false
	}

	sepLen := 1
	if data[lineEnd] == '\r' {
		if lineEnd+1 >= len(data) {
			return nil, 0, false // \r\n may be split across feeds
		}
		if data[lineEnd+1] == '\n' {
			sepLen = 2
		}
	}

	req = New()
	req.parseRequestLine(string(data[:lineEnd]))

	headerStart := lineEnd + sepLen
	boundary, sepLen2 := findHeaderBoundary(data[headerStart:])
	if boundary < 0 {
		return nil, 0, false
	}

	req.Headers = headers.Parse(data[headerStart : headerStart+boundary])
	req.Cookies = cookies.ParseCookies(req.Headers.Get("cookie"))

	return req, headerStart + boundary + sepLen2, true
}

// findHeaderBoundary locates the blank line terminating a header block
// ("\r\n\r\n" preferred, "\n\n" as a fault-tolerant fallback), relative
// to the start of the header section. An empty header block (the blank
// line directly follows the request line) yields offset 0. Returns -1 if
// not yet present.
func findHeaderBoundary(data []byte) (offset int, sepLen int) {
	if bytes.HasPrefix(data, []byte("\r\n")) {
		return 0, 2
	}
	if bytes.HasPrefix(data, []byte("\n")) {
		return 0, 1
	}
	if idx := bytes.Index(data, []byte("\r\n\r\n")); idx >= 0 {
		return idx, 4
	}
	if idx := bytes.Index(data, []byte("\n\n")); idx >= 0 {
		return idx, 2
	}
	return -1, 0
}

// findChunkedBodyEnd locates the terminal zero-length chunk marker
// within a chunked request body, returning the offset just past it.
func findChunkedBodyEnd(data []byte) (end int, ok bool) {
	if bytes.HasPrefix(data, []byte("0\r\n\r\n")) {
		return len("0\r\n\r\n"), true
	}
	if idx := bytes.Index(data, []byte("\r\n0\r\n\r\n")); idx >= 0 {
		return idx + len("\r\n0\r\n\r\n"), true
	}
	if bytes.HasPrefix(data, []byte("0\n\n")) {
		return len("0\n\n"), true
	}
	if idx := bytes.Index(data, []byte("\n0\n\n")); idx >= 0 {
		return idx + len("\n0\n\n"), true
	}
	return 0, false
}

// parseRequestLine parses "METHOD target version", defaulting version
// to HTTP/1.1 when absent or malformed, and leaving Method/Target empty
// on a short line — fault tolerance matching the teacher's
// parseRequestLine rather than aborting the parse.
func (r *Request) parseRequestLine(line string) {
	parts := strings.Fields(line)
	if len(parts) >= 1 {
		r.Method = strings.ToUpper(parts[0])
	}
	if len(parts) >= 2 {
		r.Target = parts[1]
	}
	if len(parts) >= 3 && strings.HasPrefix(strings.ToUpper(parts[2]), "HTTP/") {
		r.Version = parts[2]
	} else {
		r.Version = "HTTP/1.1"
	}
}
