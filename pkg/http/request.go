package http

import (
	"fmt"
	"net"
	"strings"

	"github.com/assetnote/rawreq/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
)

var (
	bHTTPS = []byte("https")
	bHTTP  = []byte("http")
)

// RequestDefinition is everything needed to put a request on the wire.
//
// The headers are sent exactly as provided, nothing is added automatically. This means omitting
// the Host header may cause problems, as will omitting both Content-Length and Transfer-Encoding on
// requests with bodies. The transport will not fix that for you.
type RequestDefinition struct {
	Method  string
	URL     string
	Headers Headers
	RawBody []byte
}

func (r RequestDefinition) MarshalZerologObject(e *zerolog.Event) {
	e.Str("method", r.Method).
		Str("url", r.URL).
		Array("headers", r.Headers).
		Int("body", len(r.RawBody))
}

// Target is where a request is sent, derived from the RequestDefinition URL
type Target struct {
	IsTLS bool
	// Addr is host:port to dial. The default port for the scheme is filled in when the url has none
	Addr string
	// ServerName is the bare hostname, used for SNI
	ServerName string
	// RequestURI is the path and query as written in the url, used verbatim in the request line
	RequestURI []byte
}

// AppendScheme will append the scheme not including the ://
func (t *Target) AppendScheme(buf []byte) []byte {
	if t.IsTLS {
		return append(buf, bHTTPS...)
	}
	return append(buf, bHTTP...)
}

func (t *Target) String() string {
	w := bytebufferpool.Get()
	w.B = t.AppendScheme(w.B)
	w.B = append(w.B, "://"...)
	w.B = append(w.B, t.Addr...)
	w.B = append(w.B, t.RequestURI...)
	ret := string(w.B)
	bytebufferpool.Put(w)
	return ret
}

// ParseTarget resolves the scheme, dial address and request target of rawURL.
// The request target is taken from rawURL as written, without normalising or re-escaping, so
// /a/../b, // and /%zz reach the server unchanged. Only the fragment is dropped
func ParseTarget(rawURL string) (*Target, error) {
	scheme, rest, ok := strings.Cut(rawURL, "://")
	if !ok || scheme == "" {
		return nil, fmt.Errorf("%w: missing scheme in %q", errors.ErrUnsupportedScheme, rawURL)
	}

	t := &Target{}
	switch strings.ToLower(scheme) {
	case "http":
	case "https":
		t.IsTLS = true
	default:
		return nil, fmt.Errorf("%w %q in %q", errors.ErrUnsupportedScheme, scheme, rawURL)
	}

	u := fasthttp.AcquireURI()
	defer fasthttp.ReleaseURI(u)
	if err := u.Parse(nil, []byte(rawURL)); err != nil {
		return nil, fmt.Errorf("failed to parse url %q: %w", rawURL, err)
	}

	host := string(u.Host())
	if host == "" {
		return nil, fmt.Errorf("failed to parse url %q: missing host", rawURL)
	}

	hostname, port, err := net.SplitHostPort(host)
	if err != nil {
		// no port in the url
		hostname = host
	}
	if port == "" {
		port = "80"
		if t.IsTLS {
			port = "443"
		}
	}
	t.Addr = net.JoinHostPort(trimBrackets(hostname), port)
	t.ServerName = trimBrackets(hostname)

	var uri string
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		uri = rest[i:]
	}
	uri, _, _ = strings.Cut(uri, "#")

	// http://host and http://host?q both need the root path in the request line
	if len(uri) == 0 || uri[0] == '?' {
		t.RequestURI = append(t.RequestURI, '/')
	}
	t.RequestURI = append(t.RequestURI, uri...)
	return t, nil
}

func trimBrackets(host string) string {
	if len(host) > 1 && host[0] == '[' && host[len(host)-1] == ']' {
		return host[1 : len(host)-1]
	}
	return host
}

// AppendRequest will append the full request to b: the request line, every header in order, the blank line
// and the raw body if there is one. This is the only place bytes for the wire are produced, and it never
// adds anything that is not in the definition
func (r *RequestDefinition) AppendRequest(b []byte, t *Target) []byte {
	b = append(b, r.Method...)
	b = append(b, ' ')
	b = append(b, t.RequestURI...)
	b = append(b, " HTTP/1.1\r\n"...)
	b = r.Headers.AppendBytes(b)
	b = append(b, "\r\n"...)
	if len(r.RawBody) > 0 {
		b = append(b, r.RawBody...)
	}
	return b
}
