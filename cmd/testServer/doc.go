/*
Package testServer provides a fasthttp server to point rawreq at while developing.

It listens on a range of ports and understands a handful of routes

	/echo           returns the request head exactly as it was received
	/chunked/{n}    streams n chunks using chunked transfer coding
	/status/{code}  responds with the given status code
	/*              echoes the method and request uri

Every response carries a unique X-Request-Id header. Header names are not normalized, so
/echo shows the case the client actually sent.

The server is used for testing, and should not be used in a production environment.

Usage

	go run ./cmd/testServer -p 14000-14010
	rawreq send http://localhost:14000/echo -H "Host: localhost" -H "host: other"
*/
package main
