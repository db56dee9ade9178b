package headers

import (
	"bytes"
	"strings"
)

// Parse parses a raw header block (everything between the start line and
// the blank line terminating the head) with fault tolerance: malformed
// lines are kept under a synthetic name rather than aborting the parse,
// since a single bad header should not take down the connection.
func Parse(data []byte) *Fields {
	fields := New()

	lines := bytes.Split(data, []byte("\n"))
	for _, raw := range lines {
		line := strings.TrimRight(string(raw), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		colon := strings.Index(line, ":")
		if colon == -1 {
			fields.Add("x-malformed-header", line)
			continue
		}

		name := strings.TrimSpace(line[:colon])
		value := strings.TrimSpace(line[colon+1:])
		if name == "" {
			name = "x-empty-header-name"
		}
		fields.Add(name, value)
	}

	return fields
}

// Build renders fields as a standard "Name: Value\r\n" block, skipping
// any pseudo-header (name beginning with ':').
func Build(fields *Fields) []byte {
	var buf bytes.Buffer
	for _, field := range fields.All() {
		if strings.HasPrefix(field.Name, ":") {
			continue
		}
		buf.WriteString(field.Name)
		buf.WriteString(": ")
		buf.WriteString(field.Value)
		buf.WriteString("\r\n")
	}
	return buf.Bytes()
}
