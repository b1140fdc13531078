package errors

import (
	"errors"
	"fmt"

	"github.com/assetnote/rawreq/pkg/log"
	"github.com/hashicorp/go-multierror"
)

var (
	// ErrMalformedHeaders is matched by a MalformedHeadersError
	ErrMalformedHeaders = errors.New("malformed headers")
	// ErrUnsupportedScheme is returned when the request url is not http or https
	ErrUnsupportedScheme = errors.New("unsupported scheme")
	// ErrStreamClosed is returned by a response stream that was closed by its consumer
	ErrStreamClosed = errors.New("response stream closed")
	// ErrMalformedResponse is returned when the status line, headers or framing of a response cannot be parsed
	ErrMalformedResponse = errors.New("malformed response")
	// ErrHeaderTooLarge is returned when the response head exceeds the configured limit
	ErrHeaderTooLarge = errors.New("response head too large")
)

// Connection phase operations
const (
	OpDial      = "dial"
	OpHandshake = "handshake"
	OpWrite     = "write"
	OpRead      = "read"
)

// prefixfromDepth will create the indent prefix for a certain depth
// of string, e.g. 2 will yield "  " * 2 -> "    "
func prefixFromDepth(depth int) string {
	var p []byte
	for i := 0; i < depth; i++ {
		p = append(p, "  "...)
	}
	return string(p)
}

// PrintError will attempt to traverse the nested error and
// recursively print out any of our typed errors found
// If a multierror.Error is found, we will recurisvely print out
// each error found
func PrintError(err error, depth int) {
	var (
		merr *multierror.Error
		cerr *ConnectionError
		rerr *ResponseError
	)

	switch {
	case errors.As(err, &merr):
		for _, v := range merr.Errors {
			PrintError(v, depth+1)
		}
	case errors.As(err, &cerr):
		log.Error().
			Str("op", cerr.Op).
			Str("addr", cerr.Addr).
			Err(cerr.Err).
			Msg(prefixFromDepth(depth) + "connection error")
	case errors.As(err, &rerr):
		log.Error().Err(rerr.Err).Msg(prefixFromDepth(depth) + "response error")
	default:
		log.Error().Err(err).Msg(prefixFromDepth(depth) + "error")
	}
}

// ConnectionError is returned when the request fails before a response head has been received.
// This covers dialing, the TLS handshake, writing the request and reading the status line and headers
type ConnectionError struct {
	Op   string // Op is the phase that failed, one of OpDial, OpHandshake, OpWrite, OpRead
	Addr string // Addr is the host:port we were talking to
	Err  error  // Err is the originating error
}

func (c *ConnectionError) Error() string {
	return fmt.Sprintf("%s %s: %v", c.Op, c.Addr, c.Err)
}

func (c *ConnectionError) Unwrap() error {
	return c.Err
}

// Timeout reports whether the underlying error was a timeout
func (c *ConnectionError) Timeout() bool {
	return isTimeout(c.Err)
}

// ResponseError is returned when the response fails after the head has been emitted.
// Any body parts already delivered remain valid
type ResponseError struct {
	Err error
}

func (r *ResponseError) Error() string {
	return fmt.Sprintf("reading response body: %v", r.Err)
}

func (r *ResponseError) Unwrap() error {
	return r.Err
}

// Timeout reports whether the underlying error was a timeout
func (r *ResponseError) Timeout() bool {
	return isTimeout(r.Err)
}

// MalformedHeadersError is returned when a flat header sequence has an odd number of tokens.
// We refuse to guess what the trailing key was meant to pair with
type MalformedHeadersError struct {
	Len int // Len is the length of the offending flat sequence
}

func (m *MalformedHeadersError) Error() string {
	return fmt.Sprintf("malformed headers: flat header list has odd length %d", m.Len)
}

func (m *MalformedHeadersError) Is(target error) bool {
	return target == ErrMalformedHeaders
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
