/*
Package context provides utilities wrapping the native go/context package
for catching and handling multiple interrupts.

The CLI derives every request stream from this context, so an interrupt tears down
open connections instead of leaving sockets without a reader.

	import "github.com/assetnote/rawreq/pkg/context"

	...

	stream, err := http.SendRequest(context.Context(), defn, opts)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build request")
	}
 */
package context
