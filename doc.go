/*
Package rawreq sends HTTP/1.1 requests exactly as they are described and streams the response back.

There are no exports in the root package. The transport lives in pkg/http:

	stream, err := http.SendRequest(ctx, http.RequestDefinition{
		Method:  "GET",
		URL:     "http://localhost:14000/echo",
		Headers: http.Headers{{"Host", "localhost"}, {"host", "other"}},
	}, http.RequestOptions{})

CLI tools part of `cmd/` include:
	- rawreq - send a single request, or replay request definitions from yaml files
	- testServer - a server with echo, chunked and status routes to point rawreq at while testing

*/
package rawreq
