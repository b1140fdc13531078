package replay

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/assetnote/rawreq/pkg/http"
	"github.com/hashicorp/go-multierror"
	"github.com/valyala/fasttemplate"
	"gopkg.in/yaml.v3"
)

const (
	tagStart = "{{"
	tagEnd   = "}}"
)

// File is the on-disk form of a request definition. JSON is accepted as well since it is valid YAML.
//
//	name: te-cl-desync
//	method: POST
//	url: http://{{host}}/
//	headers:
//	  - [Host, "{{host}}"]
//	  - [Content-Length, "4"]
//	  - [Transfer-Encoding, chunked]
//	body: "0\r\n\r\n"
//
// Headers are a list of [key, value] pairs so order, case and duplicates survive the round trip
type File struct {
	Name       string     `yaml:"name" json:"name"`
	Method     string     `yaml:"method" json:"method"`
	URL        string     `yaml:"url" json:"url"`
	Headers    [][]string `yaml:"headers" json:"headers"`
	Body       string     `yaml:"body" json:"body"`
	BodyBase64 string     `yaml:"body_base64" json:"body_base64"`
}

// Entry is a request definition ready to be sent, with where it came from
type Entry struct {
	Name   string
	Source string
	Defn   http.RequestDefinition
}

// Vars are the values substituted for {{name}} placeholders
type Vars map[string]string

// ParseVars converts key=value strings as given on the command line
func ParseVars(in []string) (Vars, error) {
	ret := make(Vars)
	for _, v := range in {
		parts := strings.SplitN(v, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("invalid var %q. expected key=value", v)
		}
		ret[parts[0]] = parts[1]
	}
	return ret, nil
}

// render substitutes every {{name}} in s. Unknown names are left in place and reported
func (v Vars) render(s string) (string, error) {
	if !strings.Contains(s, tagStart) {
		return s, nil
	}
	t, err := fasttemplate.NewTemplate(s, tagStart, tagEnd)
	if err != nil {
		return s, fmt.Errorf("failed to compile template: %w", err)
	}

	var missing []string
	ret := t.ExecuteFuncString(func(w io.Writer, tag string) (int, error) {
		name := strings.TrimSpace(tag)
		if val, ok := v[name]; ok {
			return w.Write([]byte(val))
		}
		missing = append(missing, name)
		return w.Write([]byte(tagStart + tag + tagEnd))
	})
	if len(missing) > 0 {
		return ret, fmt.Errorf("undefined vars %v", missing)
	}
	return ret, nil
}

// Definition validates the file and renders it into a request definition. Every problem found is
// reported, not just the first
func (f File) Definition(vars Vars) (http.RequestDefinition, error) {
	var (
		merr *multierror.Error
		defn http.RequestDefinition
		err  error
	)

	defn.Method = f.Method
	if defn.Method == "" {
		merr = multierror.Append(merr, errors.New("method is required"))
	}

	if f.URL == "" {
		merr = multierror.Append(merr, errors.New("url is required"))
	} else if defn.URL, err = vars.render(f.URL); err != nil {
		merr = multierror.Append(merr, fmt.Errorf("url: %w", err))
	}

	flat := make([]string, 0, len(f.Headers)*2)
	for i, h := range f.Headers {
		if len(h) != 2 {
			merr = multierror.Append(merr, fmt.Errorf("header %d: expected [key, value], got %d elements", i, len(h)))
			continue
		}
		for _, s := range h {
			r, err := vars.render(s)
			if err != nil {
				merr = multierror.Append(merr, fmt.Errorf("header %d: %w", i, err))
			}
			flat = append(flat, r)
		}
	}
	if defn.Headers, err = http.PairFlatRawHeaders(flat); err != nil {
		merr = multierror.Append(merr, err)
	}

	switch {
	case f.Body != "" && f.BodyBase64 != "":
		merr = multierror.Append(merr, errors.New("only one of body and body_base64 may be set"))
	case f.BodyBase64 != "":
		if defn.RawBody, err = base64.StdEncoding.DecodeString(f.BodyBase64); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("body_base64: %w", err))
		}
	case f.Body != "":
		body, err := vars.render(f.Body)
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("body: %w", err))
		}
		defn.RawBody = []byte(body)
	}

	return defn, merr.ErrorOrNil()
}

// Decode reads every YAML document in r. source is used to name entries and errors
func Decode(r io.Reader, source string, vars Vars) ([]Entry, error) {
	var (
		ret  []Entry
		merr *multierror.Error
	)

	dec := yaml.NewDecoder(r)
	for i := 0; ; i++ {
		var f File
		err := dec.Decode(&f)
		if err == io.EOF {
			break
		}
		if err != nil {
			return ret, fmt.Errorf("%s: failed to decode document %d: %w", source, i, err)
		}

		name := f.Name
		if name == "" {
			name = fmt.Sprintf("%s#%d", source, i)
		}
		defn, err := f.Definition(vars)
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("%s: %w", name, err))
			continue
		}
		ret = append(ret, Entry{Name: name, Source: source, Defn: defn})
	}
	return ret, merr.ErrorOrNil()
}

// LoadFiles reads the request definitions from every file. "-" reads stdin
func LoadFiles(files []string, vars Vars) ([]Entry, error) {
	var (
		ret  []Entry
		merr *multierror.Error
	)
	for _, name := range files {
		var data []byte
		var err error
		if name == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(name)
		}
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("failed to read request file: %w", err))
			continue
		}

		entries, err := Decode(bytes.NewReader(data), name, vars)
		if err != nil {
			merr = multierror.Append(merr, err)
		}
		ret = append(ret, entries...)
	}
	return ret, merr.ErrorOrNil()
}

// ToFile converts a definition back into its on-disk form
func ToFile(name string, defn http.RequestDefinition) File {
	f := File{
		Name:   name,
		Method: defn.Method,
		URL:    defn.URL,
	}
	for _, h := range defn.Headers {
		f.Headers = append(f.Headers, []string{h.Key, h.Value})
	}
	if len(defn.RawBody) > 0 {
		f.BodyBase64 = base64.StdEncoding.EncodeToString(defn.RawBody)
	}
	return f
}
