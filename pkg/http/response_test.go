package http

import (
	"bufio"
	"io"
	"strings"
	"testing"

	"github.com/assetnote/rawreq/pkg/errors"
	"github.com/francoispqt/gojay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reader(s string) *bufio.Reader {
	return bufio.NewReaderSize(strings.NewReader(s), 16)
}

func TestReadResponseHead(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected *ResponseHead
	}{
		{
			"simple",
			"HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\n\r\n",
			&ResponseHead{StatusCode: 200, StatusMessage: "OK", HTTPVersion: "1.1", Headers: Headers{{"Content-Type", "text/plain"}}},
		},
		{
			"raw keys duplicates and order",
			"HTTP/1.1 201 Created\r\nset-cookie: a=1\r\nX-Custom: 1\r\nSet-Cookie: b=2\r\ncontent-length: 0\r\n\r\n",
			&ResponseHead{StatusCode: 201, StatusMessage: "Created", HTTPVersion: "1.1", Headers: Headers{
				{"set-cookie", "a=1"}, {"X-Custom", "1"}, {"Set-Cookie", "b=2"}, {"content-length", "0"},
			}},
		},
		{
			"no reason phrase",
			"HTTP/1.0 404\r\n\r\n",
			&ResponseHead{StatusCode: 404, HTTPVersion: "1.0"},
		},
		{
			"reason with spaces",
			"HTTP/1.1 418 I'm a teapot\r\n\r\n",
			&ResponseHead{StatusCode: 418, StatusMessage: "I'm a teapot", HTTPVersion: "1.1"},
		},
		{
			"bare LF and whitespace",
			"HTTP/1.1 200 OK\nX-A:   padded\t \nX-B:\n\n",
			&ResponseHead{StatusCode: 200, StatusMessage: "OK", HTTPVersion: "1.1", Headers: Headers{{"X-A", "padded"}, {"X-B", ""}}},
		},
		{
			"obs-fold",
			"HTTP/1.1 200 OK\r\nX-Folded: first\r\n  second\r\n\tthird\r\n\r\n",
			&ResponseHead{StatusCode: 200, StatusMessage: "OK", HTTPVersion: "1.1", Headers: Headers{{"X-Folded", "first second third"}}},
		},
		{
			"long header line",
			"HTTP/1.1 200 OK\r\nX-Long: " + strings.Repeat("a", 100) + "\r\n\r\n",
			&ResponseHead{StatusCode: 200, StatusMessage: "OK", HTTPVersion: "1.1", Headers: Headers{{"X-Long", strings.Repeat("a", 100)}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readResponseHead(reader(tt.raw), DefaultMaxHeaderBytes)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestReadResponseHeadErrors(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		max     int
		wantErr error
	}{
		{"not http", "SSH-2.0-OpenSSH\r\n\r\n", DefaultMaxHeaderBytes, errors.ErrMalformedResponse},
		{"bad code", "HTTP/1.1 2xx OK\r\n\r\n", DefaultMaxHeaderBytes, errors.ErrMalformedResponse},
		{"short code", "HTTP/1.1 20 OK\r\n\r\n", DefaultMaxHeaderBytes, errors.ErrMalformedResponse},
		{"header without colon", "HTTP/1.1 200 OK\r\nnocolon\r\n\r\n", DefaultMaxHeaderBytes, errors.ErrMalformedResponse},
		{"header empty key", "HTTP/1.1 200 OK\r\n: value\r\n\r\n", DefaultMaxHeaderBytes, errors.ErrMalformedResponse},
		{"fold first", "HTTP/1.1 200 OK\r\n folded\r\n\r\n", DefaultMaxHeaderBytes, errors.ErrMalformedResponse},
		{"too large", "HTTP/1.1 200 OK\r\nX-Long: " + strings.Repeat("a", 100) + "\r\n\r\n", 64, errors.ErrHeaderTooLarge},
		{"truncated", "HTTP/1.1 200 OK\r\nX-A: 1\r\n", DefaultMaxHeaderBytes, io.EOF},
		{"empty", "", DefaultMaxHeaderBytes, io.EOF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readResponseHead(reader(tt.raw), tt.max)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBodyReader(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		head     *ResponseHead
		raw      string
		expected string
		wantErr  error
	}{
		{"content length", "GET", &ResponseHead{StatusCode: 200, Headers: Headers{{"Content-Length", "5"}}}, "helloEXTRA", "hello", nil},
		{"content length any case", "GET", &ResponseHead{StatusCode: 200, Headers: Headers{{"cOnTeNt-LeNgTh", "2"}}}, "hello", "he", nil},
		{"content length short", "GET", &ResponseHead{StatusCode: 200, Headers: Headers{{"Content-Length", "10"}}}, "hello", "hello", io.ErrUnexpectedEOF},
		{"chunked", "GET", &ResponseHead{StatusCode: 200, Headers: Headers{{"Transfer-Encoding", "chunked"}}}, "5\r\nhello\r\n6\r\n world\r\n0\r\n\r\n", "hello world", nil},
		{"chunked wins over length", "GET", &ResponseHead{StatusCode: 200, Headers: Headers{{"Content-Length", "2"}, {"transfer-encoding", "gzip, chunked"}}}, "3\r\nabc\r\n0\r\n\r\n", "abc", nil},
		{"chunked truncated", "GET", &ResponseHead{StatusCode: 200, Headers: Headers{{"Transfer-Encoding", "chunked"}}}, "5\r\nhel", "hel", io.ErrUnexpectedEOF},
		{"non chunked coding reads to close", "GET", &ResponseHead{StatusCode: 200, Headers: Headers{{"Transfer-Encoding", "gzip"}}}, "rawbytes", "rawbytes", nil},
		{"read to close", "GET", &ResponseHead{StatusCode: 200}, "until the end", "until the end", nil},
		{"head request", "HEAD", &ResponseHead{StatusCode: 200, Headers: Headers{{"Content-Length", "5"}}}, "hello", "", nil},
		{"head request lowercase", "head", &ResponseHead{StatusCode: 200, Headers: Headers{{"Content-Length", "5"}}}, "hello", "", nil},
		{"no content", "GET", &ResponseHead{StatusCode: 204}, "ignored", "", nil},
		{"not modified", "GET", &ResponseHead{StatusCode: 304, Headers: Headers{{"Content-Length", "5"}}}, "hello", "", nil},
		{"switching protocols", "GET", &ResponseHead{StatusCode: 101}, "tunnelled", "tunnelled", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := bodyReader(reader(tt.raw), tt.method, tt.head)
			require.NoError(t, err)
			got, err := io.ReadAll(r)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, string(got))
		})
	}
}

func TestBodyReaderInvalidLength(t *testing.T) {
	for _, cl := range []string{"-1", "abc", ""} {
		_, err := bodyReader(reader(""), "GET", &ResponseHead{StatusCode: 200, Headers: Headers{{"Content-Length", cl}}})
		assert.ErrorIs(t, err, errors.ErrMalformedResponse, cl)
	}
}

func TestEventsMarshalJSON(t *testing.T) {
	head := &ResponseHead{StatusCode: 200, StatusMessage: "OK", HTTPVersion: "1.1", Headers: Headers{{"Content-Type", "text/plain"}}}
	b, err := gojay.MarshalJSONObject(head)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"response-head","statusCode":200,"statusMessage":"OK","httpVersion":"1.1","headers":[["Content-Type","text/plain"]]}`, string(b))

	part := &ResponseBodyPart{RawBody: []byte("hello")}
	b, err = gojay.MarshalJSONObject(part)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"response-body-part","length":5,"rawBody":"aGVsbG8="}`, string(b))
}

func TestResponseCounters(t *testing.T) {
	r := &Response{}
	r.appendBody([]byte("hello wor"))
	r.appendBody([]byte("ld\nsecond line"))
	r.finish()
	assert.Equal(t, "hello world\nsecond line", string(r.Body))
	assert.Equal(t, 23, r.BodyLength)
	assert.Equal(t, 3, r.Words)
	assert.Equal(t, 2, r.Lines)
}
