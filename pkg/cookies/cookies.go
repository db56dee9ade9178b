// Package cookies implements request Cookie-header parsing and
// response Set-Cookie rendering.
//
// The response side intentionally does not model a fixed attribute set
// (Path, Domain, Secure, ...); Response.setCookie accepts an open,
// ordered flag table instead, and flags render according to how their
// key was supplied: an integer-keyed flag renders as a bare "; value"
// token, a string-keyed flag renders as "; key=value". This reproduces
// the observed behavior verbatim rather than inventing quoting rules
// the source does not document.
package cookies

import "strings"

// Cookie represents a single request cookie (from the Cookie header).
type Cookie struct {
	Name  string
	Value string
}

// ParseCookies parses a Cookie header value. Never fails; malformed
// segments are best-effort decoded rather than dropped.
// Format: "name1=value1; name2=value2; name3=value3"
func ParseCookies(cookieHeader string) []Cookie {
	if cookieHeader == "" {
		return []Cookie{}
	}

	var out []Cookie
	for _, part := range strings.Split(cookieHeader, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		idx := strings.Index(part, "=")
		if idx == -1 {
			out = append(out, Cookie{Name: part})
			continue
		}

		name := strings.TrimSpace(part[:idx])
		value := strings.TrimSpace(part[idx+1:])
		if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
			value = value[1 : len(value)-1]
		}

		out = append(out, Cookie{Name: name, Value: value})
	}

	return out
}

// BuildCookieHeader builds a Cookie header value from cookies.
// Format: "name1=value1; name2=value2"
func BuildCookieHeader(cookies []Cookie) string {
	if len(cookies) == 0 {
		return ""
	}

	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		if c.Name == "" {
			continue
		}
		parts = append(parts, c.Name+"="+c.Value)
	}

	return strings.Join(parts, "; ")
}

// Flag is one Set-Cookie attribute. Key is empty for a bare token
// (e.g. "Secure", "HttpOnly"); a non-empty Key renders as "key=value".
type Flag struct {
	Key   string
	Value string
}

// Entry is a cookie's value plus its ordered flag table, as stored by
// Response.setCookie.
type Entry struct {
	Value string
	Flags []Flag
}

// Table maps cookie name to Entry, as held by a Response.
type Table map[string]Entry

// RenderSetCookie builds one Set-Cookie header value for name/entry,
// in the form "name=value" followed by each flag in insertion order.
func RenderSetCookie(name string, entry Entry) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('=')
	b.WriteString(entry.Value)

	for _, flag := range entry.Flags {
		b.WriteString("; ")
		if flag.Key == "" {
			b.WriteString(flag.Value)
		} else {
			b.WriteString(flag.Key)
			b.WriteByte('=')
			b.WriteString(flag.Value)
		}
	}

	return b.String()
}

// FlagsBuilder accumulates a cookie's flag table in insertion order.
// Use Bare for an integer-keyed flag (rendered as a bare token) and
// Keyed for a string-keyed flag (rendered as "key=value").
type FlagsBuilder struct {
	flags []Flag
}

// NewFlags returns an empty flag table builder.
func NewFlags() *FlagsBuilder {
	return &FlagsBuilder{}
}

// Bare appends a bare-token flag, e.g. NewFlags().Bare("Secure").
func (b *FlagsBuilder) Bare(value string) *FlagsBuilder {
	b.flags = append(b.flags, Flag{Value: value})
	return b
}

// Keyed appends a "key=value" flag, e.g. NewFlags().Keyed("Path", "/").
func (b *FlagsBuilder) Keyed(key, value string) *FlagsBuilder {
	b.flags = append(b.flags, Flag{Key: key, Value: value})
	return b
}

// Build returns the accumulated, ordered flag table.
func (b *FlagsBuilder) Build() []Flag {
	return b.flags
}
