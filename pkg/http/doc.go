/*
Package http sends HTTP/1.1 requests with exactly the header bytes the caller provides, and reads the
response back as an ordered stream of events.

No header is ever added: there is no automatic Host, Content-Length, Transfer-Encoding, Connection or
User-Agent. Header keys keep their case, duplicates are sent as separate lines and the order is kept.
This is what interception proxies, fuzzers and conformance testers need, and what net/http and fasthttp
deliberately prevent, so the request is serialized directly onto the connection. fasthttp is still used to
dial and to parse the url.

The response is surfaced as events by a ResponseStream:

 - exactly one *ResponseHead, always first
 - zero or more *ResponseBodyPart, in the order the bytes were received
 - io.EOF from Next on success, or the error that ended the exchange

Errors before the head are *errors.ConnectionError, errors after it are *errors.ResponseError. Both wrap the
originating error. There is no connection reuse, no redirect following and no retrying, each SendRequest
owns one connection and closes it when the stream ends.

Headers are kept as an ordered []Header. PairFlatRawHeaders and FlattenPairedRawHeaders convert to and from
the flat [k, v, k, v, ...] form that other tooling uses.
*/
package http
