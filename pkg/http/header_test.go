package http

import (
	"testing"

	"github.com/assetnote/rawreq/pkg/errors"
	"github.com/francoispqt/gojay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairFlatRawHeaders(t *testing.T) {
	tests := []struct {
		name    string
		flat    []string
		want    Headers
		wantErr bool
	}{
		{"empty", []string{}, Headers{}, false},
		{"single", []string{"Host", "example.test"}, Headers{{"Host", "example.test"}}, false},
		{"duplicates kept in order", []string{"X-A", "1", "x-a", "2", "X-A", "3"}, Headers{{"X-A", "1"}, {"x-a", "2"}, {"X-A", "3"}}, false},
		{"empty values", []string{"X-Empty", "", "", "novalue"}, Headers{{"X-Empty", ""}, {"", "novalue"}}, false},
		{"odd length", []string{"Host", "example.test", "X-Dangling"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PairFlatRawHeaders(tt.flat)
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.ErrMalformedHeaders)
				var merr *errors.MalformedHeadersError
				require.ErrorAs(t, err, &merr)
				assert.Equal(t, len(tt.flat), merr.Len)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHeadersRoundTrip(t *testing.T) {
	paired := []Headers{
		{{"Host", "example.test"}},
		{{"X-A", "1"}, {"X-A", "2"}},
		{{"content-LENGTH", "5"}, {"Transfer-Encoding", "chunked"}, {"Transfer-Encoding", "identity"}},
		{{"X-Spaces", "  padded  "}, {"Weird Key", "v"}},
	}
	for _, h := range paired {
		got, err := PairFlatRawHeaders(FlattenPairedRawHeaders(h))
		require.NoError(t, err)
		assert.Equal(t, h, got)
	}

	flats := [][]string{
		{"a", "b"},
		{"Host", "x", "Host", "y", "host", "z"},
		{"", ""},
	}
	for _, f := range flats {
		h, err := PairFlatRawHeaders(f)
		require.NoError(t, err)
		assert.Equal(t, f, FlattenPairedRawHeaders(h))
	}

	assert.Empty(t, FlattenPairedRawHeaders(nil))
}

func TestHeadersAppendBytes(t *testing.T) {
	hs := Headers{{"Host", "example.test"}, {"X-A", "1"}, {"X-A", "2"}, {"x-lower", ""}}
	assert.Equal(t, "Host: example.test\r\nX-A: 1\r\nX-A: 2\r\nx-lower: \r\n", string(hs.AppendBytes(nil)))
	assert.Equal(t, "Host: example.test", hs[0].String())
}

func TestHeadersGet(t *testing.T) {
	hs := Headers{{"Host", "a"}, {"host", "b"}, {"Host", "c"}}

	v, ok := hs.Get("Host")
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	v, ok = hs.Get("host")
	assert.True(t, ok)
	assert.Equal(t, "b", v)

	_, ok = hs.Get("HOST")
	assert.False(t, ok)
}

func TestHeadersMarshalJSON(t *testing.T) {
	hs := Headers{{"Host", "example.test"}, {"X-A", "\"quoted\""}}
	b, err := gojay.MarshalJSONArray(hs)
	require.NoError(t, err)
	assert.JSONEq(t, `[["Host","example.test"],["X-A","\"quoted\""]]`, string(b))
}
