package http

import (
	"github.com/assetnote/rawreq/pkg/errors"
	"github.com/francoispqt/gojay"
	"github.com/rs/zerolog"
	"github.com/valyala/bytebufferpool"
)

// Header encapsulates a single raw header key value entry. The key is kept exactly as provided,
// including its case
type Header struct {
	Key   string
	Value string
}

// Headers is an ordered list of raw headers. Order is significant and duplicate keys are kept
// as separate entries, they are never merged
type Headers []Header

func (hs Headers) MarshalZerologArray(a *zerolog.Array) {
	for _, u := range hs {
		a.Object(u)
	}
}

func (h Header) MarshalZerologObject(e *zerolog.Event) {
	e.Str("k", h.Key).
		Str("v", h.Value)
}

// MarshalJSONArray encodes the headers as [[k, v], [k, v], ...]
func (hs Headers) MarshalJSONArray(enc *gojay.Encoder) {
	for _, h := range hs {
		enc.Array(h)
	}
}

func (hs Headers) IsNil() bool {
	return hs == nil
}

// MarshalJSONArray encodes the header as a [k, v] tuple
func (h Header) MarshalJSONArray(enc *gojay.Encoder) {
	enc.String(h.Key)
	enc.String(h.Value)
}

func (h Header) IsNil() bool {
	return false
}

// AppendBytes appends "Key: Value" to b. No CRLF is added
func (h *Header) AppendBytes(b []byte) []byte {
	b = append(b, h.Key...)
	b = append(b, ": "...)
	b = append(b, h.Value...)
	return b
}

func (h *Header) String() string {
	w := bytebufferpool.Get()
	ret := string(h.AppendBytes(w.B))
	bytebufferpool.Put(w)
	return ret
}

// Get returns the value of the first header matching key exactly. Raw headers are case sensitive
// so "host" and "Host" are different keys here
func (hs Headers) Get(key string) (string, bool) {
	for _, h := range hs {
		if h.Key == key {
			return h.Value, true
		}
	}
	return "", false
}

// AppendBytes appends every header as "Key: Value\r\n" in order
func (hs Headers) AppendBytes(b []byte) []byte {
	for i := range hs {
		b = hs[i].AppendBytes(b)
		b = append(b, "\r\n"...)
	}
	return b
}

// PairFlatRawHeaders turns a very flat [k, v, k, v, ...] list into Headers.
// An odd length list is rejected with a *errors.MalformedHeadersError
func PairFlatRawHeaders(flat []string) (Headers, error) {
	if len(flat)%2 != 0 {
		return nil, &errors.MalformedHeadersError{Len: len(flat)}
	}
	ret := make(Headers, 0, len(flat)/2)
	for i := 0; i < len(flat); i += 2 {
		ret = append(ret, Header{Key: flat[i], Value: flat[i+1]})
	}
	return ret, nil
}

// FlattenPairedRawHeaders turns Headers into the flat [k, v, k, v, ...] form
func FlattenPairedRawHeaders(hs Headers) []string {
	ret := make([]string, 0, len(hs)*2)
	for _, h := range hs {
		ret = append(ret, h.Key, h.Value)
	}
	return ret
}
