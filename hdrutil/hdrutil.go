// Package hdrutil implements the §3 header-list shape shared by Request
// and Response: an ordered list of (name, value) pairs with
// case-insensitive names. Grounded on badu-http/hdr's Header type and
// CanonicalHeaderKey idiom, with the teacher's private httplex-based
// tokenizer (golang.org/x/net/lex/httplex, not an independently reusable
// module — see DESIGN.md) replaced by a small canonicalizer of our own.
package hdrutil

import "strings"

// Field is one header line's name/value pair.
type Field struct {
	Name  string
	Value string
}

// Header is an ordered multimap preserving the origin server's emission
// order, per §4.2's header_cb contract ("preserving order").
type Header struct {
	fields []Field
}

// New builds an empty Header.
func New() *Header { return &Header{} }

// Add appends name/value, preserving any existing values for name.
func (h *Header) Add(name, value string) {
	h.fields = append(h.fields, Field{Name: name, Value: value})
}

// Set replaces every existing value for name with a single value.
func (h *Header) Set(name, value string) {
	h.Del(name)
	h.Add(name, value)
}

// Del removes every field whose name matches, case-insensitively.
func (h *Header) Del(name string) {
	out := h.fields[:0]
	for _, f := range h.fields {
		if !strings.EqualFold(f.Name, name) {
			out = append(out, f)
		}
	}
	h.fields = out
}

// Get returns the first value for name, case-insensitively, or "".
func (h *Header) Get(name string) string {
	for _, f := range h.fields {
		if strings.EqualFold(f.Name, name) {
			return f.Value
		}
	}
	return ""
}

// Values returns every value for name, case-insensitively, in order.
func (h *Header) Values(name string) []string {
	var out []string
	for _, f := range h.fields {
		if strings.EqualFold(f.Name, name) {
			out = append(out, f.Value)
		}
	}
	return out
}

// Has reports whether name is present, case-insensitively.
func (h *Header) Has(name string) bool {
	for _, f := range h.fields {
		if strings.EqualFold(f.Name, name) {
			return true
		}
	}
	return false
}

// Fields returns the underlying ordered (name, value) pairs. The returned
// slice must not be mutated by the caller.
func (h *Header) Fields() []Field { return h.fields }

// Clone returns a deep copy.
func (h *Header) Clone() *Header {
	out := &Header{fields: make([]Field, len(h.fields))}
	copy(out.fields, h.fields)
	return out
}

// WriteLines renders every field as a CRLF-terminated "Name: Value" wire
// line, in insertion order, using Canonical for the name — the same shape
// badu-http/hdr.Header.WriteSubset produces.
func (h *Header) WriteLines(b *strings.Builder) {
	for _, f := range h.fields {
		b.WriteString(Canonical(f.Name))
		b.WriteString(": ")
		b.WriteString(f.Value)
		b.WriteString("\r\n")
	}
}

// Canonical title-cases a header name by hyphen-separated segment
// ("content-type" -> "Content-Type"), the MIME canonical form.
func Canonical(name string) string {
	b := []byte(name)
	upperNext := true
	for i, c := range b {
		switch {
		case c == '-':
			upperNext = true
		case upperNext:
			if c >= 'a' && c <= 'z' {
				b[i] = c - ('a' - 'A')
			}
			upperNext = false
		default:
			if c >= 'A' && c <= 'Z' {
				b[i] = c + ('a' - 'A')
			}
		}
	}
	return string(b)
}
