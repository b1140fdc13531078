package http

import (
	"bufio"
	"fmt"
	"io"
	"net/http/httputil"
	"strconv"
	"strings"

	"github.com/assetnote/rawreq/pkg/errors"
)

// bodyReader picks the framing for a response body the way an HTTP/1.1 client would:
//   - HEAD responses and 1xx/204/304 have no body
//   - a final transfer-coding of chunked is decoded
//   - Content-Length bounds the body, and a short body is an error
//   - anything else is read until the connection closes
//
// The request headers play no part here, only the method does
func bodyReader(br *bufio.Reader, method string, head *ResponseHead) (io.Reader, error) {
	if strings.EqualFold(method, "HEAD") || noBodyStatus(head.StatusCode) {
		return eofReader{}, nil
	}

	if te, ok := lastHeader(head.Headers, "Transfer-Encoding"); ok {
		if isChunked(te) {
			return httputil.NewChunkedReader(br), nil
		}
		// not chunked, the server will close the connection when it's done
		return br, nil
	}

	if cl, ok := firstHeader(head.Headers, "Content-Length"); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(cl), 10, 64)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: invalid Content-Length %q", errors.ErrMalformedResponse, cl)
		}
		return &lengthReader{r: br, n: n}, nil
	}

	return br, nil
}

func noBodyStatus(code int) bool {
	return (code >= 100 && code < 200 && code != 101) || code == 204 || code == 304
}

// isInformational reports whether the head is an interim 1xx response that is followed by the real one.
// 101 is final, whatever comes after it on the connection is surfaced as the body
func isInformational(code int) bool {
	return code >= 100 && code < 200 && code != 101
}

func isChunked(te string) bool {
	codings := strings.Split(te, ",")
	return strings.EqualFold(strings.TrimSpace(codings[len(codings)-1]), "chunked")
}

// framing headers are matched case insensitively, unlike Headers.Get
func firstHeader(hs Headers, key string) (string, bool) {
	for _, h := range hs {
		if strings.EqualFold(h.Key, key) {
			return h.Value, true
		}
	}
	return "", false
}

func lastHeader(hs Headers, key string) (string, bool) {
	for i := len(hs) - 1; i >= 0; i-- {
		if strings.EqualFold(hs[i].Key, key) {
			return hs[i].Value, true
		}
	}
	return "", false
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }

// lengthReader reads exactly n bytes, returning io.ErrUnexpectedEOF if the connection ends early
type lengthReader struct {
	r io.Reader
	n int64
}

func (l *lengthReader) Read(p []byte) (int, error) {
	if l.n <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > l.n {
		p = p[:l.n]
	}
	n, err := l.r.Read(p)
	l.n -= int64(n)
	if err == io.EOF && l.n > 0 {
		err = io.ErrUnexpectedEOF
	}
	if err == io.EOF {
		err = nil
	}
	return n, err
}
