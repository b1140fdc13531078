package http

import (
	"bufio"
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/assetnote/rawreq/pkg/errors"
	"github.com/assetnote/rawreq/pkg/log"
	"github.com/segmentio/ksuid"
	"github.com/valyala/bytebufferpool"
)

// ResponseStream delivers the events of a single response in order: one *ResponseHead, then zero or more
// *ResponseBodyPart, then a terminal signal. The terminal signal is io.EOF from Next on success, or the
// error that aborted the exchange.
//
// A stream has a single consumer, Next must not be called concurrently. Close may be called from any
// goroutine, and must be called if the consumer stops reading before the terminal signal so the
// connection is torn down.
//
// The stream and its connection share one lifetime. Events are handed over through an unbuffered channel,
// so nothing further is read from the network until the previous event has been taken.
type ResponseStream struct {
	id     ksuid.KSUID
	ctx    context.Context
	cancel context.CancelFunc

	events chan ResponseStreamEvent
	done   chan struct{}
	// err is written by the producer before events is closed
	err error

	// terminal is the value Next keeps returning once the stream has ended. Only the consumer touches it
	terminal  error
	closed    atomic.Bool
	closeOnce sync.Once
}

func newResponseStream(parent context.Context, timeout time.Duration) *ResponseStream {
	s := &ResponseStream{
		id:     ksuid.New(),
		events: make(chan ResponseStreamEvent),
		done:   make(chan struct{}),
	}
	if timeout > 0 {
		s.ctx, s.cancel = context.WithTimeout(parent, timeout)
	} else {
		s.ctx, s.cancel = context.WithCancel(parent)
	}
	return s
}

// ID is a unique id for this request, used to correlate log lines
func (s *ResponseStream) ID() string {
	return s.id.String()
}

// Next blocks until the next event is available. It returns io.EOF once the response has been fully received,
// or the error that terminated the stream. After a terminal signal every call returns the same value.
// If ctx is done before an event arrives, ctx.Err() is returned and the stream is left intact
func (s *ResponseStream) Next(ctx context.Context) (ResponseStreamEvent, error) {
	if s.terminal != nil {
		return nil, s.terminal
	}
	if s.closed.Load() {
		s.terminal = errors.ErrStreamClosed
		return nil, s.terminal
	}

	select {
	case ev, ok := <-s.events:
		if ok {
			return ev, nil
		}
		s.terminal = s.err
		if s.terminal == nil {
			s.terminal = io.EOF
		}
		return nil, s.terminal
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close abandons the stream. The connection is closed and Close waits for the background goroutine to exit.
// Subsequent calls to Next return errors.ErrStreamClosed, unless Next had already returned a terminal signal
// in which case it keeps returning that
func (s *ResponseStream) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.cancel()
		<-s.done
	})
	return nil
}

// Done is closed once the background goroutine has exited and the connection is closed
func (s *ResponseStream) Done() <-chan struct{} {
	return s.done
}

func (s *ResponseStream) run(method string, t *Target, opts *RequestOptions, wire *bytebufferpool.ByteBuffer) {
	defer close(s.done)
	defer bytebufferpool.Put(wire)

	err := s.exchange(method, t, opts, wire.B)
	if err != nil {
		log.Trace().Str("id", s.id.String()).Err(err).Msg("raw request failed")
	} else {
		log.Trace().Str("id", s.id.String()).Msg("raw request complete")
	}

	s.err = err
	close(s.events)
	s.cancel()
}

func (s *ResponseStream) exchange(method string, t *Target, opts *RequestOptions, wire []byte) error {
	conn, err := dial(s.ctx, t, opts)
	if err != nil {
		return err
	}
	// the connection dies with the stream, whichever way the stream ends
	stop := context.AfterFunc(s.ctx, func() { conn.Close() })
	defer func() {
		stop()
		conn.Close()
	}()
	if dl, ok := s.ctx.Deadline(); ok {
		conn.SetDeadline(dl)
	}

	n, err := conn.Write(wire)
	if err != nil {
		return s.connectionError(errors.OpWrite, t, err)
	}
	log.Trace().Str("id", s.id.String()).Int("bytes", n).Msg("wrote request")

	br := bufio.NewReaderSize(conn, opts.readBufferSize())
	head, err := s.readFinalHead(br, t, opts)
	if err != nil {
		return err
	}

	body, err := bodyReader(br, method, head)
	if err != nil {
		return s.connectionError(errors.OpRead, t, err)
	}

	if !s.emit(head) {
		return s.connectionError(errors.OpRead, t, s.ctx.Err())
	}

	buf := make([]byte, opts.readBufferSize())
	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			part := &ResponseBodyPart{RawBody: make([]byte, n)}
			copy(part.RawBody, buf[:n])
			if !s.emit(part) {
				return &errors.ResponseError{Err: s.ctx.Err()}
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return &errors.ResponseError{Err: s.cause(rerr)}
		}
	}
}

// readFinalHead skips interim 1xx responses, e.g. 100 Continue, and returns the final head
func (s *ResponseStream) readFinalHead(br *bufio.Reader, t *Target, opts *RequestOptions) (*ResponseHead, error) {
	for {
		head, err := readResponseHead(br, opts.maxHeaderBytes())
		if err != nil {
			return nil, s.connectionError(errors.OpRead, t, err)
		}
		if !isInformational(head.StatusCode) {
			log.Trace().Str("id", s.id.String()).Object("head", head).Msg("received response head")
			return head, nil
		}
		log.Trace().Str("id", s.id.String()).Int("sc", head.StatusCode).Msg("skipping informational response")
	}
}

// emit hands ev to the consumer, giving up if the stream is cancelled first
func (s *ResponseStream) emit(ev ResponseStreamEvent) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// cause replaces the "use of closed network connection" we get after cancellation with the
// reason the connection was closed
func (s *ResponseStream) cause(err error) error {
	if cerr := s.ctx.Err(); cerr != nil {
		return cerr
	}
	return err
}

func (s *ResponseStream) connectionError(op string, t *Target, err error) error {
	return &errors.ConnectionError{Op: op, Addr: t.Addr, Err: s.cause(err)}
}
