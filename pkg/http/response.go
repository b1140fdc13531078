package http

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/assetnote/rawreq/pkg/errors"
	"github.com/francoispqt/gojay"
	"github.com/rs/zerolog"
)

type EventType string

const (
	EventResponseHead     EventType = "response-head"
	EventResponseBodyPart EventType = "response-body-part"
)

// ResponseStreamEvent is either a *ResponseHead or a *ResponseBodyPart.
// Clean closure and errors are not events, they are returned by ResponseStream.Next
type ResponseStreamEvent interface {
	Type() EventType
	zerolog.LogObjectMarshaler
	gojay.MarshalerJSONObject
}

// ResponseHead is always the first event of a stream, and there is exactly one of them
type ResponseHead struct {
	StatusCode    int
	StatusMessage string
	HTTPVersion   string // e.g. 1.1
	Headers       Headers
}

func (h *ResponseHead) Type() EventType { return EventResponseHead }

func (h *ResponseHead) MarshalZerologObject(e *zerolog.Event) {
	e.Int("sc", h.StatusCode).
		Str("msg", h.StatusMessage).
		Array("headers", h.Headers)
}

func (h *ResponseHead) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("type", string(EventResponseHead))
	enc.IntKey("statusCode", h.StatusCode)
	enc.StringKeyOmitEmpty("statusMessage", h.StatusMessage)
	enc.StringKey("httpVersion", h.HTTPVersion)
	enc.ArrayKey("headers", h.Headers)
}

func (h *ResponseHead) IsNil() bool {
	return h == nil
}

// ResponseBodyPart is one chunk of the response body as it came off the wire, after transfer coding
// has been removed. Chunk boundaries carry no meaning, only the concatenation of every part does.
// Each part owns its slice, so it is safe to retain
type ResponseBodyPart struct {
	RawBody []byte
}

func (p *ResponseBodyPart) Type() EventType { return EventResponseBodyPart }

func (p *ResponseBodyPart) MarshalZerologObject(e *zerolog.Event) {
	e.Int("len", len(p.RawBody))
}

// MarshalJSONObject encodes the body as base64 since it is arbitrary bytes
func (p *ResponseBodyPart) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("type", string(EventResponseBodyPart))
	enc.IntKey("length", len(p.RawBody))
	enc.StringKey("rawBody", base64.StdEncoding.EncodeToString(p.RawBody))
}

func (p *ResponseBodyPart) IsNil() bool {
	return p == nil
}

// Response is a fully drained stream, see Collect
type Response struct {
	ResponseHead
	Body       []byte
	BodyLength int
	Words      int
	Lines      int
}

func (r *Response) MarshalZerologObject(e *zerolog.Event) {
	e.Int("sc", r.StatusCode).
		Int("len", r.BodyLength).
		Int("words", r.Words).
		Int("lines", r.Lines)
}

func (r *Response) String() string {
	if r == nil {
		return ""
	}
	return fmt.Sprintf("%d %s [%d, %d, %d]", r.StatusCode, r.StatusMessage, r.BodyLength, r.Words, r.Lines)
}

// appendBody adds a body part. Separators are counted per part, call finish once the body is complete
func (r *Response) appendBody(b []byte) {
	r.Body = append(r.Body, b...)
	r.BodyLength = len(r.Body)
	r.Words += bytes.Count(b, []byte(" "))
	r.Lines += bytes.Count(b, []byte("\n"))
}

func (r *Response) finish() {
	// address off by 1 if its non-0
	if r.BodyLength > 0 {
		r.Words += 1
		r.Lines += 1
	}
}

// headReader reads a status line and header block, counting bytes against a limit
type headReader struct {
	br        *bufio.Reader
	remaining int
}

// readLine returns the next line without its line ending. The returned slice is a copy
func (h *headReader) readLine() ([]byte, error) {
	var line []byte
	for {
		chunk, err := h.br.ReadSlice('\n')
		h.remaining -= len(chunk)
		if h.remaining < 0 {
			return nil, errors.ErrHeaderTooLarge
		}
		line = append(line, chunk...)
		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil {
			return nil, err
		}
		break
	}
	line = line[:len(line)-1]
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line, nil
}

// readResponseHead parses "HTTP/1.1 200 OK" followed by the raw header lines.
// Keys are kept verbatim and values have surrounding whitespace trimmed.
// obs-fold continuation lines are joined onto the previous value with a single space
func readResponseHead(br *bufio.Reader, maxBytes int) (*ResponseHead, error) {
	hr := &headReader{br: br, remaining: maxBytes}

	line, err := hr.readLine()
	if err != nil {
		return nil, err
	}
	head, err := parseStatusLine(string(line))
	if err != nil {
		return nil, err
	}

	for {
		line, err := hr.readLine()
		if err != nil {
			return nil, err
		}
		if len(line) == 0 {
			return head, nil
		}

		if line[0] == ' ' || line[0] == '\t' {
			if len(head.Headers) == 0 {
				return nil, fmt.Errorf("%w: continuation line before any header", errors.ErrMalformedResponse)
			}
			last := &head.Headers[len(head.Headers)-1]
			last.Value = last.Value + " " + strings.Trim(string(line), " \t")
			continue
		}

		i := bytes.IndexByte(line, ':')
		if i <= 0 {
			return nil, fmt.Errorf("%w: invalid header line %q", errors.ErrMalformedResponse, line)
		}
		head.Headers = append(head.Headers, Header{
			Key:   string(line[:i]),
			Value: strings.Trim(string(line[i+1:]), " \t"),
		})
	}
}

func parseStatusLine(line string) (*ResponseHead, error) {
	if !strings.HasPrefix(line, "HTTP/") {
		return nil, fmt.Errorf("%w: invalid status line %q", errors.ErrMalformedResponse, line)
	}
	parts := strings.SplitN(line[len("HTTP/"):], " ", 3)
	if len(parts) < 2 || len(parts[1]) != 3 {
		return nil, fmt.Errorf("%w: invalid status line %q", errors.ErrMalformedResponse, line)
	}
	code, err := strconv.Atoi(parts[1])
	if err != nil || code < 100 {
		return nil, fmt.Errorf("%w: invalid status code in %q", errors.ErrMalformedResponse, line)
	}

	head := &ResponseHead{
		HTTPVersion: parts[0],
		StatusCode:  code,
	}
	if len(parts) == 3 {
		head.StatusMessage = parts[2]
	}
	return head, nil
}
