package http

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/assetnote/rawreq/pkg/errors"
	"github.com/valyala/fasthttp"
)

var (
	defaultTLSConfig = &tls.Config{
		InsecureSkipVerify: true,
	}
)

// dial connects to the target, performing the TLS handshake for https targets.
// Dialers do not take a context, so the dial runs in its own goroutine and dial returns as soon as ctx is
// done. A connection that completes after that is closed straight away
func dial(ctx context.Context, t *Target, opts *RequestOptions) (net.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, &errors.ConnectionError{Op: errors.OpDial, Addr: t.Addr, Err: err}
	}

	timeout := opts.DialTimeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); timeout == 0 || left < timeout {
			timeout = left
		}
	}

	dctx := ctx
	if opts.DialTimeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, opts.DialTimeout)
		defer cancel()
	}

	var dialFn fasthttp.DialFunc
	switch {
	case opts.Dial != nil:
		dialFn = opts.Dial
	case timeout > 0:
		dialFn = func(addr string) (net.Conn, error) {
			return fasthttp.DialDualStackTimeout(addr, timeout)
		}
	default:
		dialFn = fasthttp.DialDualStack
	}

	conn, err := dialContext(dctx, t.Addr, dialFn)
	if err != nil {
		return nil, &errors.ConnectionError{Op: errors.OpDial, Addr: t.Addr, Err: err}
	}

	if !t.IsTLS {
		return conn, nil
	}

	cfg := defaultTLSConfig
	if opts.TLSConfig != nil {
		cfg = opts.TLSConfig
	}
	cfg = cfg.Clone()
	if cfg.ServerName == "" {
		cfg.ServerName = t.ServerName
	}

	tconn := tls.Client(conn, cfg)
	if err := tconn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, &errors.ConnectionError{Op: errors.OpHandshake, Addr: t.Addr, Err: err}
	}
	return tconn, nil
}

type dialResult struct {
	conn net.Conn
	err  error
}

// dialContext runs fn until it returns or ctx is done, whichever is first
func dialContext(ctx context.Context, addr string, fn fasthttp.DialFunc) (net.Conn, error) {
	ch := make(chan dialResult, 1)
	go func() {
		conn, err := fn(addr)
		ch <- dialResult{conn: conn, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, r.err
		}
		if err := ctx.Err(); err != nil {
			r.conn.Close()
			return nil, err
		}
		return r.conn, nil
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.conn != nil {
				r.conn.Close()
			}
		}()
		return nil, ctx.Err()
	}
}
