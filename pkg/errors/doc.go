/*
The errors package provides the error kinds surfaced by the raw request transport and utilities
for printing nested and aggregated errors.

Every error type wraps the error that caused it, so the originating value is never lost. Callers can
tell a failure that happened before the response head arrived from one that happened while the body
was streaming, and still match the root cause with errors.Is.

Usage

	import errors2 "github.com/assetnote/rawreq/pkg/errors"

	...

	ev, err := stream.Next(ctx)
	var cerr *errors2.ConnectionError
	if errors.As(err, &cerr) {
		log.Error().Str("op", cerr.Op).Str("addr", cerr.Addr).Err(cerr.Err).Msg("request never got a response")
	}

	...

	if err := replay.Run(ctx, files, opts...); err != nil {
		errors2.PrintError(err, 0)
	}

*/
package errors
