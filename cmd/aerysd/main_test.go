package main

import (
	"io"
	"log"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/aerysproject/aerys/pkg/host"
	"github.com/aerysproject/aerys/pkg/request"
	"github.com/aerysproject/aerys/pkg/response"
)

func testLogger() *log.Logger { return log.New(io.Discard, "", 0) }

// readAvailable drains conn until a read times out, which happens once
// the handler has finished writing and the connection is left open for
// further pipelining.
func readAvailable(t *testing.T, conn net.Conn) []byte {
	t.Helper()
	var out []byte
	buf := make([]byte, 4096)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	out = append(out, buf[:n]...)
	if err != nil {
		return out
	}
	for {
		conn.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
		n, err := conn.Read(buf)
		out = append(out, buf[:n]...)
		if err != nil {
			return out
		}
	}
}

func TestServeConn_EchoHandlerOverPipe(t *testing.T) {
	client, server := net.Pipe()

	reg := host.NewRegistry()
	h, err := host.New("*", 80, "", echoHandler, nil)
	if err != nil {
		t.Fatalf("host.New: %v", err)
	}
	reg.Add(h)

	go serveConn(server, reg, testLogger())

	if _, err := client.Write([]byte("GET /hello HTTP/1.1\r\nHost: example.com\r\n\r\n")); err != nil {
		t.Fatalf("write request: %v", err)
	}

	out := string(readAvailable(t, client))
	client.Close()

	if !strings.HasPrefix(out, "HTTP/1.1 200") {
		t.Fatalf("missing status line: %q", out)
	}
	if !strings.Contains(out, "content-type: text/plain; charset=utf-8\r\n") {
		t.Errorf("missing content-type header: %q", out)
	}
	if !strings.HasSuffix(out, "GET /hello HTTP/1.1\n") {
		t.Errorf("unexpected body: %q", out)
	}
}

func TestServeConn_UnmatchedHostReturns404(t *testing.T) {
	client, server := net.Pipe()

	reg := host.NewRegistry()
	h, _ := host.New("*", 80, "known.example", echoHandler, nil)
	reg.Add(h)

	go serveConn(server, reg, testLogger())

	client.Write([]byte("GET / HTTP/1.1\r\nHost: unknown.example\r\n\r\n"))

	out := string(readAvailable(t, client))
	client.Close()

	if !strings.HasPrefix(out, "HTTP/1.1 404") {
		t.Fatalf("expected 404 status line, got %q", out)
	}
}

func TestServeConn_HandlerPanicBeforeStartedYields500(t *testing.T) {
	client, server := net.Pipe()

	reg := host.NewRegistry()
	panicky := func(reqAny, respAny any) { panic("boom") }
	h, _ := host.New("*", 80, "", panicky, nil)
	reg.Add(h)

	go serveConn(server, reg, testLogger())

	client.Write([]byte("GET / HTTP/1.1\r\nHost: example.com\r\n\r\n"))

	out := string(readAvailable(t, client))
	client.Close()

	if !strings.HasPrefix(out, "HTTP/1.1 500") {
		t.Fatalf("expected substituted 500 status line, got %q", out)
	}
}

func TestServeConn_PipelinedRequestsWriteInOrder(t *testing.T) {
	client, server := net.Pipe()

	reg := host.NewRegistry()
	// The second request's handler finishes before the first's, but the
	// first's response bytes must still reach the wire first.
	slowThenFast := func(reqAny, respAny any) {
		req := reqAny.(*request.Request)
		resp := respAny.(*response.Response)
		if req.Target == "/first" {
			time.Sleep(30 * time.Millisecond)
		}
		resp.SetStatus(200)
		resp.End([]byte(req.Target))
	}
	h, _ := host.New("*", 80, "", slowThenFast, nil)
	reg.Add(h)

	go serveConn(server, reg, testLogger())

	client.Write([]byte(
		"GET /first HTTP/1.1\r\nHost: example.com\r\n\r\n" +
			"GET /second HTTP/1.1\r\nHost: example.com\r\n\r\n"))

	out := string(readAvailable(t, client))
	client.Close()

	firstIdx := strings.Index(out, "/first")
	secondIdx := strings.Index(out, "/second")
	if firstIdx < 0 || secondIdx < 0 || firstIdx > secondIdx {
		t.Errorf("responses out of order: %q", out)
	}
}
