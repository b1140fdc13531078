package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/assetnote/rawreq/internal/replay"
	"github.com/assetnote/rawreq/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeaderFlags(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    http.Headers
		wantErr bool
	}{
		{"empty", nil, http.Headers{}, false},
		{"order and case kept", []string{"host: a", "Host: b", "X-A: 1"}, http.Headers{{Key: "host", Value: "a"}, {Key: "Host", Value: "b"}, {Key: "X-A", Value: "1"}}, false},
		{"split at first colon", []string{"X-Url: http://a:80/"}, http.Headers{{Key: "X-Url", Value: "http://a:80/"}}, false},
		{"only one space dropped", []string{"X-Pad:   v "}, http.Headers{{Key: "X-Pad", Value: "  v "}}, false},
		{"no space", []string{"X-A:v"}, http.Headers{{Key: "X-A", Value: "v"}}, false},
		{"empty value", []string{"X-Empty:"}, http.Headers{{Key: "X-Empty", Value: ""}}, false},
		{"key keeps whitespace", []string{"X-A : v"}, http.Headers{{Key: "X-A ", Value: "v"}}, false},
		{"missing colon", []string{"nocolon"}, nil, true},
		{"empty key", []string{": v"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseHeaderFlags(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSaveDefinition(t *testing.T) {
	name := filepath.Join(t.TempDir(), "req.yaml")
	defn := http.RequestDefinition{
		Method:  "POST",
		URL:     "http://example.test/",
		Headers: http.Headers{{Key: "Host", Value: "example.test"}, {Key: "Transfer-Encoding", Value: "chunked"}},
		RawBody: []byte("0\r\n\r\n"),
	}
	require.NoError(t, saveDefinition(name, defn))

	f, err := os.Open(name)
	require.NoError(t, err)
	defer f.Close()
	entries, err := replay.Decode(f, name, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, defn, entries[0].Defn)
}
