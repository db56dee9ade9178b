package request

import (
	"testing"
)

func TestParse_SimpleGET(t *testing.T) {
	req, ok := Parse([]byte("GET /hello HTTP/1.1\r\nHost: example.com\r\n\r\n"))
	if !ok {
		t.Fatal("expected ok=true")
	}
	if req.Method != "GET" || req.Target != "/hello" || req.Version != "HTTP/1.1" {
		t.Errorf("unexpected request line fields: %+v", req)
	}
	if req.Host() != "example.com" {
		t.Errorf("Host() = %q", req.Host())
	}
}

func TestParse_MissingVersionDefaults(t *testing.T) {
	req, ok := Parse([]byte("GET /x\r\n\r\n"))
	if !ok {
		t.Fatal("expected ok=true")
	}
	if req.Version != "HTTP/1.1" {
		t.Errorf("Version = %q, want default HTTP/1.1", req.Version)
	}
}

func TestParse_IncompleteHeadNotOK(t *testing.T) {
	_, ok := Parse([]byte("GET / HTTP/1.1\r\nHost: example"))
	if ok {
		t.Error("expected ok=false for a head without a terminating blank line")
	}
}

func TestIncrementalParser_FeedsInPieces(t *testing.T) {
	p := NewIncrementalParser()

	if _, needMore, err := p.Feed([]byte("POST /submit HTTP/1.1\r\nContent-Length: 5\r\n\r\n")); !needMore || err != nil {
		t.Fatalf("expected NEED_MORE after head only, got needMore=%v err=%v", needMore, err)
	}

	req, needMore, err := p.Feed([]byte("hello"))
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if needMore {
		t.Fatal("expected a complete request once the body arrived")
	}
	if string(req.Body) != "hello" {
		t.Errorf("Body = %q, want %q", req.Body, "hello")
	}
}

func TestIncrementalParser_NoBodyRequest(t *testing.T) {
	p := NewIncrementalParser()
	req, needMore, err := p.Feed([]byte("GET / HTTP/1.1\r\nHost: x\r\n\r\n"))
	if err != nil || needMore {
		t.Fatalf("Feed: needMore=%v err=%v", needMore, err)
	}
	if len(req.Body) != 0 {
		t.Errorf("Body = %q, want empty", req.Body)
	}
}

func TestIncrementalParser_PipelinedRequests(t *testing.T) {
	p := NewIncrementalParser()
	raw := "GET /a HTTP/1.1\r\n\r\nGET /b HTTP/1.1\r\n\r\n"

	req1, needMore, err := p.Feed([]byte(raw))
	if err != nil || needMore {
		t.Fatalf("first Feed: needMore=%v err=%v", needMore, err)
	}
	if req1.Target != "/a" {
		t.Errorf("first request target = %q", req1.Target)
	}

	req2, needMore, err := p.Feed(nil)
	if err != nil || needMore {
		t.Fatalf("second Feed: needMore=%v err=%v", needMore, err)
	}
	if req2.Target != "/b" {
		t.Errorf("second request target = %q", req2.Target)
	}
}

func TestIncrementalParser_ChunkedBody(t *testing.T) {
	p := NewIncrementalParser()
	raw := "POST /up HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"5\r\nhello\r\n0\r\n\r\n"

	req, needMore, err := p.Feed([]byte(raw))
	if err != nil || needMore {
		t.Fatalf("Feed: needMore=%v err=%v", needMore, err)
	}
	if string(req.Body) != "hello" {
		t.Errorf("Body = %q, want %q", req.Body, "hello")
	}
}
