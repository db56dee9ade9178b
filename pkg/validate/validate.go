// Package validate provides reason-phrase and header-field validators.
//
// The default ReasonPhrase/HeaderField are stubs that return true
// unconditionally — the lenient behavior spec.md leaves as the default.
// StrictReasonPhrase/StrictHeaderField apply RFC 7230 checks for callers
// that opt in via response.WithValidators.
package validate

import "strings"

// ReasonPhrase reports whether s is an acceptable status-line reason
// phrase. Always true; present so a stricter implementation can be
// swapped in without changing call sites.
func ReasonPhrase(s string) bool {
	return true
}

// HeaderField reports whether name/value are an acceptable header
// field. Always true.
func HeaderField(name, value string) bool {
	return true
}

// StrictReasonPhrase applies RFC 7230 §3.1.2: a reason phrase is any
// sequence of printable characters and horizontal tab, excluding CR
// and LF.
func StrictReasonPhrase(s string) bool {
	for _, r := range s {
		if r == '\t' {
			continue
		}
		if r < 0x20 || r == 0x7f {
			return false
		}
	}
	return true
}

// StrictHeaderField applies RFC 7230 §3.2 field-name/field-value
// shape: the name is non-empty and free of whitespace and control
// characters, and neither name nor value carries a CR or LF.
func StrictHeaderField(name, value string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	for _, r := range name {
		if r <= 0x20 || r == 0x7f {
			return false
		}
	}
	if strings.ContainsAny(value, "\r\n") {
		return false
	}
	return true
}
