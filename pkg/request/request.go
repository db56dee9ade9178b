// Package request implements the Request data model the core consumes
// from the parser collaborator (§3), plus an incremental parsing
// adapter the Driver feeds bytes into directly off the socket.
package request

import (
	"strconv"
	"strings"

	"github.com/aerysproject/aerys/pkg/cookies"
	"github.com/aerysproject/aerys/pkg/headers"
)

// Request is the parser collaborator's output: method, target URI,
// protocol version, header multimap, and a fully buffered body. The
// core never mutates a Request.
type Request struct {
	Method  string
	Target  string
	Version string
	Headers *headers.Fields
	Body    []byte
	Cookies []cookies.Cookie
}

// New returns an empty Request with an initialized header multimap.
func New() *Request {
	return &Request{Headers: headers.New()}
}

// Clone returns a deep copy.
func (r *Request) Clone() *Request {
	clone := &Request{
		Method:  r.Method,
		Target:  r.Target,
		Version: r.Version,
		Headers: r.Headers.Clone(),
	}
	clone.Body = append([]byte(nil), r.Body...)
	clone.Cookies = append([]cookies.Cookie(nil), r.Cookies...)
	return clone
}

// ContentLength returns the Content-Length header value, or "" if absent.
func (r *Request) ContentLength() string { return r.Headers.Get("content-length") }

// ContentType returns the Content-Type header value.
func (r *Request) ContentType() string { return r.Headers.Get("content-type") }

// Host returns the Host header value.
func (r *Request) Host() string { return r.Headers.Get("host") }

// AcceptEncoding returns the Accept-Encoding header value, consumed by
// pkg/codec.CompressionFilter during response negotiation.
func (r *Request) AcceptEncoding() string { return r.Headers.Get("accept-encoding") }

// IsChunked reports whether Transfer-Encoding names "chunked" among its
// comma-separated tokens.
func (r *Request) IsChunked() bool {
	for _, tok := range strings.Split(r.Headers.Get("transfer-encoding"), ",") {
		if strings.EqualFold(strings.TrimSpace(tok), "chunked") {
			return true
		}
	}
	return false
}

// IsHTTP11OrAbove reports whether Version is "HTTP/1.1" or later —
// the distinction the Writer dispatch in §4.5 cares about.
func (r *Request) IsHTTP11OrAbove() bool {
	switch r.Version {
	case "HTTP/1.1", "HTTP/2", "HTTP/2.0":
		return true
	default:
		return false
	}
}

// declaredBodyLength returns the Content-Length value as an int, and
// whether it was present and well-formed.
func (r *Request) declaredBodyLength() (int, bool) {
	raw := r.ContentLength()
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
