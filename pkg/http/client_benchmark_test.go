package http

import (
	"context"
	"net"
	"testing"
)

var benchDefn = RequestDefinition{
	Method: "GET",
	URL:    "http://memory.test/foo?bar=baz",
	Headers: Headers{
		{"Host", "memory.test"},
		{"User-Agent", "rawreq"},
		{"X-Dup", "1"},
		{"X-Dup", "2"},
	},
}

func BenchmarkAppendRequest(b *testing.B) {
	b.ReportAllocs()
	t, err := ParseTarget(benchDefn.URL)
	if err != nil {
		b.Fatal(err)
	}
	buf := make([]byte, 0, 1024)
	for n := 0; n < b.N; n++ {
		buf = benchDefn.AppendRequest(buf[:0], t)
	}
}

func BenchmarkPairFlatRawHeaders(b *testing.B) {
	b.ReportAllocs()
	flat := FlattenPairedRawHeaders(benchDefn.Headers)
	for n := 0; n < b.N; n++ {
		if _, err := PairFlatRawHeaders(flat); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMemoryServerCollect(b *testing.B) {
	b.ReportAllocs()
	ln := memoryServer()
	defer ln.Close()

	opts := RequestOptions{
		Dial: func(addr string) (net.Conn, error) {
			return ln.Dial()
		},
	}
	ctx := context.Background()
	for n := 0; n < b.N; n++ {
		stream, err := SendRequest(ctx, benchDefn, opts)
		if err != nil {
			b.Fatal(err)
		}
		resp, err := Collect(ctx, stream)
		if err != nil {
			b.Fatal(err)
		}
		if resp.StatusCode != 200 {
			b.Fatalf("unexpected status %d", resp.StatusCode)
		}
	}
}
