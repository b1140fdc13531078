package replay

import (
	"strings"
	"testing"

	"github.com/assetnote/rawreq/pkg/http"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseVars(t *testing.T) {
	vars, err := ParseVars([]string{"host=example.test", "q=a=b", "empty="})
	require.NoError(t, err)
	assert.Equal(t, Vars{"host": "example.test", "q": "a=b", "empty": ""}, vars)

	_, err = ParseVars([]string{"novalue"})
	assert.Error(t, err)
	_, err = ParseVars([]string{"=value"})
	assert.Error(t, err)
}

func TestVarsRender(t *testing.T) {
	vars := Vars{"host": "example.test", "port": "8080"}
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"no tags", "http://plain/", "http://plain/", false},
		{"single", "http://{{host}}/", "http://example.test/", false},
		{"spaces in tag", "http://{{ host }}:{{port}}/", "http://example.test:8080/", false},
		{"missing kept", "{{host}} {{nope}}", "example.test {{nope}}", true},
		{"single braces untouched", "{\"json\": {}}", "{\"json\": {}}", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := vars.render(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

const multiDoc = `name: smuggle
method: POST
url: http://{{host}}/
headers:
  - [Host, "{{host}}"]
  - [Content-Length, "4"]
  - [Transfer-Encoding, chunked]
  - [content-length, "0"]
body: "0\r\n\r\n"
---
{"method": "GET", "url": "http://{{host}}/json", "headers": [["X-A", "1"], ["X-A", "2"]]}
---
method: PUT
url: http://{{host}}/bin
body_base64: AAEC/w==
`

func TestDecode(t *testing.T) {
	entries, err := Decode(strings.NewReader(multiDoc), "requests.yaml", Vars{"host": "example.test"})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "smuggle", entries[0].Name)
	assert.Equal(t, http.RequestDefinition{
		Method: "POST",
		URL:    "http://example.test/",
		Headers: http.Headers{
			{Key: "Host", Value: "example.test"},
			{Key: "Content-Length", Value: "4"},
			{Key: "Transfer-Encoding", Value: "chunked"},
			{Key: "content-length", Value: "0"},
		},
		RawBody: []byte("0\r\n\r\n"),
	}, entries[0].Defn)

	assert.Equal(t, "requests.yaml#1", entries[1].Name)
	assert.Equal(t, http.Headers{{Key: "X-A", Value: "1"}, {Key: "X-A", Value: "2"}}, entries[1].Defn.Headers)
	assert.Nil(t, entries[1].Defn.RawBody)

	assert.Equal(t, []byte{0x00, 0x01, 0x02, 0xff}, entries[2].Defn.RawBody)
	assert.Equal(t, "requests.yaml", entries[2].Source)
}

func TestDecodeCollectsErrors(t *testing.T) {
	in := `url: http://{{host}}/
headers:
  - [Host]
  - [X-A, "{{missing}}"]
body: a
body_base64: YQ==
---
method: GET
url: http://ok.test/
`
	entries, err := Decode(strings.NewReader(in), "bad.yaml", Vars{"host": "example.test"})
	require.Error(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "http://ok.test/", entries[0].Defn.URL)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	msg := err.Error()
	assert.Contains(t, msg, "method is required")
	assert.Contains(t, msg, "header 0: expected [key, value], got 1 elements")
	assert.Contains(t, msg, "undefined vars [missing]")
	assert.Contains(t, msg, "only one of body and body_base64 may be set")
}

func TestDecodeInvalidYAML(t *testing.T) {
	_, err := Decode(strings.NewReader("method: [unterminated"), "broken.yaml", nil)
	assert.ErrorContains(t, err, "broken.yaml: failed to decode document 0")
}

func TestToFileRoundTrip(t *testing.T) {
	defn := http.RequestDefinition{
		Method:  "POST",
		URL:     "http://example.test/x",
		Headers: http.Headers{{Key: "host", Value: "example.test"}, {Key: "X-A", Value: "1"}, {Key: "X-A", Value: "1"}},
		RawBody: []byte("\x00binary\r\n"),
	}
	b, err := yaml.Marshal(ToFile("saved", defn))
	require.NoError(t, err)

	entries, err := Decode(strings.NewReader(string(b)), "saved.yaml", nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "saved", entries[0].Name)
	assert.Equal(t, defn, entries[0].Defn)
}
