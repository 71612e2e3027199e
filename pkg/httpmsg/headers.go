package httpmsg

import (
	"strings"

	"golang.org/x/exp/slices"
)

// Header is a single name/value pair. Names and values are arbitrary byte
// strings; no validation is applied when headers are added.
type Header struct {
	Name  string
	Value string
}

// IsPseudo reports whether h is an HTTP/2 pseudo-header (its name starts with
// a colon).
func (h Header) IsPseudo() bool {
	return strings.HasPrefix(h.Name, ":")
}

// Headers is an ordered list of headers. Duplicates are allowed and insertion
// order is preserved. Name lookups are case-insensitive.
//
// The zero value is an empty header list.
type Headers struct {
	list []Header
}

// NewHeaders constructs a header list holding a copy of headers.
func NewHeaders(headers ...Header) *Headers {
	return &Headers{list: slices.Clone(headers)}
}

func (h *Headers) Len() int {
	return len(h.list)
}

// At returns the header at index i. The method panics if i is out of range.
func (h *Headers) At(i int) Header {
	return h.list[i]
}

// All returns a copy of the headers, in order.
func (h *Headers) All() []Header {
	return slices.Clone(h.list)
}

func (h *Headers) Add(name, value string) {
	h.list = append(h.list, Header{Name: name, Value: value})
}

// Get returns the value of the first header matching name.
func (h *Headers) Get(name string) (string, bool) {
	if i := h.index(name); i >= 0 {
		return h.list[i].Value, true
	}
	return "", false
}

// Values returns the values of all headers matching name, in order.
func (h *Headers) Values(name string) []string {
	var values []string
	for _, header := range h.list {
		if strings.EqualFold(header.Name, name) {
			values = append(values, header.Value)
		}
	}
	return values
}

// Set replaces the value of the first header matching name and removes the
// others. The header is appended if none matched.
func (h *Headers) Set(name, value string) {
	i := h.index(name)
	if i < 0 {
		h.Add(name, value)
		return
	}
	h.list[i].Value = value
	h.remove(name, i+1)
}

// Del removes all headers matching name.
func (h *Headers) Del(name string) {
	h.remove(name, 0)
}

// Clear removes all headers. The underlying storage is kept for reuse.
func (h *Headers) Clear() {
	for i := range h.list {
		h.list[i] = Header{}
	}
	h.list = h.list[:0]
}

func (h *Headers) index(name string) int {
	return slices.IndexFunc(h.list, func(header Header) bool {
		return strings.EqualFold(header.Name, name)
	})
}

func (h *Headers) remove(name string, from int) {
	n := from
	for _, header := range h.list[from:] {
		if !strings.EqualFold(header.Name, name) {
			h.list[n] = header
			n++
		}
	}
	for i := n; i < len(h.list); i++ {
		h.list[i] = Header{}
	}
	h.list = h.list[:n]
}
