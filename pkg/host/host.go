// Package host implements the Host registry: identity-key construction,
// wildcard matching, and TLS context assembly from the key set in spec.md
// §6. A Host is immutable once built by New.
package host

import (
	"net"
	"strconv"
	"strings"

	"github.com/aerysproject/aerys/pkg/aeryserr"
)

// Handler is the application callable a matched Host dispatches parsed
// requests to.
type Handler func(req any, resp any)

// Host is an immutable listen-address + server-name + handler record.
type Host struct {
	address string // normalized: "*", "[::]", dotted IPv4, or bracketed IPv6
	port    int
	name    string // lowercased server name, possibly empty
	handler Handler
	tls     *TLSConfig
}

// New constructs a Host, normalizing address and validating port.
// address may be "*" for wildcard, "::" (canonicalized to "[::]"), or a
// parseable IPv4/IPv6 literal. name is lowercased.
func New(address string, port int, name string, handler Handler, tlsCfg *TLSConfig) (*Host, error) {
	normAddr, err := normalizeAddress(address)
	if err != nil {
		return nil, aeryserr.NewConfigError("host listen address", err)
	}
	if port < 1 || port > 65535 {
		return nil, aeryserr.NewConfigError("host listen port", errInvalidPort(port))
	}
	return &Host{
		address: normAddr,
		port:    port,
		name:    strings.ToLower(name),
		handler: handler,
		tls:     tlsCfg,
	}, nil
}

type errInvalidPort int

func (e errInvalidPort) Error() string {
	return "port " + strconv.Itoa(int(e)) + " out of range [1,65535]"
}

func normalizeAddress(address string) (string, error) {
	switch address {
	case "*", "":
		return "*", nil
	case "::":
		return "[::]", nil
	}

	trimmed := strings.TrimPrefix(strings.TrimSuffix(address, "]"), "[")
	if ip := net.ParseIP(trimmed); ip != nil {
		if strings.Contains(trimmed, ":") {
			return "[" + trimmed + "]", nil
		}
		return trimmed, nil
	}
	return "", errUnparseableAddress(address)
}

type errUnparseableAddress string

func (e errUnparseableAddress) Error() string {
	return "address " + string(e) + " is not a valid IPv4/IPv6 literal or wildcard"
}

// Identity returns the "<name-or-address>:<port>" identity key.
func (h *Host) Identity() string {
	nameOrAddr := h.name
	if nameOrAddr == "" {
		nameOrAddr = h.address
	}
	return nameOrAddr + ":" + strconv.Itoa(h.port)
}

// Handler returns the application callable for this host.
func (h *Host) Handler() Handler { return h.handler }

// Encrypted reports whether this host carries a TLS context (a non-nil
// *TLSConfig, whatever its fields hold).
func (h *Host) Encrypted() bool { return h.tls != nil }

// TLS returns the host's TLS context, or nil if plaintext.
func (h *Host) TLS() *TLSConfig { return h.tls }

// Matches reports whether identity matches this host's identity key,
// honoring a wildcard on either side of either key's address or port.
func (h *Host) Matches(identity string) bool {
	return matches(h.Identity(), identity)
}

// matches implements §4.1's rule: two identity strings match if equal,
// or if one side is a wildcard covering the other. "*:*" is treated as
// equivalent to the single wildcard "*" per spec.md §9.
func matches(a, b string) bool {
	if a == "*:*" {
		a = "*"
	}
	if b == "*:*" {
		b = "*"
	}
	if a == b {
		return true
	}
	if a == "*" || b == "*" {
		return true
	}

	aAddr, aPort, aOK := splitIdentity(a)
	bAddr, bPort, bOK := splitIdentity(b)
	if !aOK || !bOK {
		return false
	}

	addrMatch := aAddr == bAddr || aAddr == "*" || bAddr == "*"
	portMatch := aPort == bPort || aPort == "*" || bPort == "*"
	return addrMatch && portMatch
}

func splitIdentity(id string) (addr, port string, ok bool) {
	idx := strings.LastIndex(id, ":")
	if idx < 0 {
		return "", "", false
	}
	return id[:idx], id[idx+1:], true
}
