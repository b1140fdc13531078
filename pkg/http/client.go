package http

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"time"

	"github.com/assetnote/rawreq/pkg/log"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
)

const (
	DefaultMaxHeaderBytes = 1 << 20
	DefaultReadBufferSize = 32 << 10
)

// RequestOptions are the transport level knobs for a single request. The zero value is valid:
// no timeouts, certificate verification disabled and default buffer sizes
type RequestOptions struct {
	// Timeout bounds the whole exchange, from dialing to the last body byte. 0 means wait forever
	Timeout time.Duration `toml:"timeout" json:"timeout" mapstructure:"timeout"`
	// DialTimeout bounds connection establishment. 0 uses the fasthttp default dial timeout
	DialTimeout time.Duration `toml:"dial_timeout" json:"dial_timeout" mapstructure:"dial_timeout"`
	// MaxHeaderBytes caps the status line and headers of the response
	MaxHeaderBytes int `toml:"max_header_bytes" json:"max_header_bytes" mapstructure:"max_header_bytes"`
	// ReadBufferSize is the size of each network read, and therefore the largest possible body part
	ReadBufferSize int `toml:"read_buffer_size" json:"read_buffer_size" mapstructure:"read_buffer_size"`

	// TLSConfig is used for https targets. When nil, certificates are not verified.
	// The ServerName is filled in from the url if empty
	TLSConfig *tls.Config `toml:"-" json:"-" mapstructure:"-"`
	// Dial replaces the fasthttp dialer, e.g. to use an in-memory listener or a socks proxy.
	// DialTimeout, Timeout and the request context still apply: once any of them expires the request
	// fails without waiting for Dial to return, and a connection it returns later is closed
	Dial fasthttp.DialFunc `toml:"-" json:"-" mapstructure:"-"`
}

func (o *RequestOptions) maxHeaderBytes() int {
	if o.MaxHeaderBytes <= 0 {
		return DefaultMaxHeaderBytes
	}
	return o.MaxHeaderBytes
}

func (o *RequestOptions) readBufferSize() int {
	if o.ReadBufferSize <= 0 {
		return DefaultReadBufferSize
	}
	return o.ReadBufferSize
}

// SendRequest sends defn using exactly the headers it lists and returns the response as a stream of events.
//
// Building the request is synchronous: an unparseable url or a scheme other than http/https is returned
// as an error here. Everything else (dialing, writing, reading) happens in the background, and any failure
// is delivered by the stream. SendRequest never blocks on the network.
//
// The stream owns its connection. The connection is closed when the stream terminates, when ctx is
// cancelled, when opts.Timeout expires, or when the caller calls Close.
//
//	stream, err := http.SendRequest(ctx, http.RequestDefinition{
//		Method:  "GET",
//		URL:     "http://example.test/path",
//		Headers: http.Headers{{"Host", "example.test"}, {"X-Test", "1"}},
//	}, http.RequestOptions{})
//	if err != nil {
//		return err
//	}
//	defer stream.Close()
//	for {
//		ev, err := stream.Next(ctx)
//		if err == io.EOF {
//			break
//		}
//		...
//	}
func SendRequest(ctx context.Context, defn RequestDefinition, opts RequestOptions) (*ResponseStream, error) {
	target, err := ParseTarget(defn.URL)
	if err != nil {
		return nil, err
	}

	wire := bytebufferpool.Get()
	wire.B = defn.AppendRequest(wire.B, target)

	s := newResponseStream(ctx, opts.Timeout)
	log.Trace().
		Str("id", s.id.String()).
		Str("target", target.String()).
		Object("request", defn).
		Msg("sending raw request")

	go s.run(defn.Method, target, &opts, wire)
	return s, nil
}

// Collect drains the stream into a Response. The stream is always closed when Collect returns.
// On error the partially collected response is returned alongside the error, with a nil head if
// none was received
func Collect(ctx context.Context, s *ResponseStream) (*Response, error) {
	defer s.Close()

	var (
		ret     = &Response{}
		gotHead bool
	)
	for {
		ev, err := s.Next(ctx)
		if err == io.EOF {
			ret.finish()
			return ret, nil
		}
		if err != nil {
			if !gotHead {
				return nil, err
			}
			ret.finish()
			return ret, err
		}

		switch e := ev.(type) {
		case *ResponseHead:
			ret.ResponseHead = *e
			gotHead = true
		case *ResponseBodyPart:
			ret.appendBody(e.RawBody)
		default:
			return ret, fmt.Errorf("unexpected event type %T", ev)
		}
	}
}
