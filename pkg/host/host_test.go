package host

import "testing"

func TestNew_NormalizesWildcardAndIPv6(t *testing.T) {
	h, err := New("*", 80, "", nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if h.Identity() != "*:80" {
		t.Errorf("Identity() = %q", h.Identity())
	}

	h2, err := New("::", 443, "", nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if h2.Identity() != "[::]:443" {
		t.Errorf("Identity() = %q", h2.Identity())
	}
}

func TestNew_RejectsOutOfRangePort(t *testing.T) {
	if _, err := New("0.0.0.0", 0, "", nil, nil); err == nil {
		t.Error("expected ConfigError for port 0")
	}
	if _, err := New("0.0.0.0", 65536, "", nil, nil); err == nil {
		t.Error("expected ConfigError for port 65536")
	}
}

func TestNew_RejectsUnparseableAddress(t *testing.T) {
	if _, err := New("not-an-ip", 80, "", nil, nil); err == nil {
		t.Error("expected ConfigError for an unparseable address")
	}
}

func TestHost_MatchesScenario6(t *testing.T) {
	h, err := New("0.0.0.0", 1337, "example.com", nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	cases := []struct {
		identity string
		want     bool
	}{
		{"example.com:1337", true},
		{"*:1337", true},
		{"example.com:*", true},
		{"other:1337", false},
	}
	for _, c := range cases {
		if got := h.Matches(c.identity); got != c.want {
			t.Errorf("Matches(%q) = %v, want %v", c.identity, got, c.want)
		}
	}
}

func TestHost_MatchesAllWildcard(t *testing.T) {
	h, _ := New("0.0.0.0", 1337, "example.com", nil, nil)
	if !h.Matches("*:*") {
		t.Error(`Matches("*:*") should behave as the single wildcard "*"`)
	}
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry()
	h1, _ := New("0.0.0.0", 80, "a.example.com", nil, nil)
	h2, _ := New("0.0.0.0", 80, "b.example.com", nil, nil)
	r.Add(h1)
	r.Add(h2)

	if got := r.Lookup("b.example.com:80"); got != h2 {
		t.Errorf("Lookup returned %v, want h2", got)
	}
	if got := r.Lookup("nope:80"); got != nil {
		t.Errorf("Lookup returned %v, want nil", got)
	}
}

func TestHost_Encrypted(t *testing.T) {
	h, _ := New("0.0.0.0", 80, "", nil, nil)
	if h.Encrypted() {
		t.Error("plaintext host should not report Encrypted")
	}

	tlsCfg := &TLSConfig{}
	hs, _ := New("0.0.0.0", 443, "", nil, tlsCfg)
	if !hs.Encrypted() {
		t.Error("host with a TLS context should report Encrypted")
	}
}
