package headers

import "testing"

func TestParse_Simple(t *testing.T) {
	fields := Parse([]byte("Content-Type: text/html\r\nX-Custom: abc\r\n"))

	if fields.Get("content-type") != "text/html" {
		t.Errorf("Content-Type = %q", fields.Get("content-type"))
	}
	if fields.Get("x-custom") != "abc" {
		t.Errorf("X-Custom = %q", fields.Get("x-custom"))
	}
}

func TestParse_MalformedLineKept(t *testing.T) {
	fields := Parse([]byte("not-a-header-line\r\nX-A: 1\r\n"))

	if !fields.Has("x-malformed-header") {
		t.Error("expected malformed line to be preserved under synthetic name")
	}
	if fields.Get("x-a") != "1" {
		t.Errorf("X-A = %q", fields.Get("x-a"))
	}
}

func TestBuild_SkipsPseudoHeaders(t *testing.T) {
	fields := New()
	fields.Set(":status", "200")
	fields.Set("content-type", "text/plain")

	out := string(Build(fields))
	if out != "content-type: text/plain\r\n" {
		t.Errorf("Build = %q", out)
	}
}
