package replay

import (
	"fmt"
	"io"
	"time"

	"github.com/assetnote/rawreq/pkg/http"
	"github.com/assetnote/rawreq/pkg/log"
	humanize "github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/francoispqt/gojay"
	"github.com/olekukonko/tablewriter"
)

type colorScheme struct {
	Method      *color.Color
	URL         *color.Color
	StatusOK    *color.Color
	StatusWarn  *color.Color
	StatusError *color.Color
	Error       *color.Color
	Faint       *color.Color
}

func newColorScheme(noColor bool) *colorScheme {
	c := &colorScheme{
		Method:      color.New(color.FgBlue, color.Bold),
		URL:         color.New(color.FgCyan),
		StatusOK:    color.New(color.FgGreen, color.Bold),
		StatusWarn:  color.New(color.FgYellow, color.Bold),
		StatusError: color.New(color.FgRed, color.Bold),
		Error:       color.New(color.FgRed),
		Faint:       color.New(color.Faint),
	}
	if noColor {
		for _, v := range []*color.Color{c.Method, c.URL, c.StatusOK, c.StatusWarn, c.StatusError, c.Error, c.Faint} {
			v.DisableColor()
		}
	}
	return c
}

func (c *colorScheme) status(code int) *color.Color {
	switch {
	case code >= 500:
		return c.StatusError
	case code >= 300:
		return c.StatusWarn
	default:
		return c.StatusOK
	}
}

// Printer renders a request and its response events as they arrive.
//
//   - pretty: coloured request line, status, a table of the response headers, the body and a summary
//   - text: the response head and body as they were on the wire, without transfer coding
//   - json: one object per line, the request first and then each event
type Printer struct {
	w      io.Writer
	format log.LogFormat
	colors *colorScheme

	bodyBytes int
}

func NewPrinter(w io.Writer, format log.LogFormat, noColor bool) *Printer {
	return &Printer{
		w:      w,
		format: format,
		colors: newColorScheme(noColor || format != log.Pretty),
	}
}

// Request prints what is about to be sent
func (p *Printer) Request(e Entry) error {
	p.bodyBytes = 0
	switch p.format {
	case log.JSON:
		return p.json(requestLine(e))
	case log.Text:
		return nil
	default:
		_, err := fmt.Fprintf(p.w, "%s %s %s\n",
			p.colors.Method.Sprint(e.Defn.Method),
			p.colors.URL.Sprint(e.Defn.URL),
			p.colors.Faint.Sprintf("(%s, %d headers, %s body)", e.Name, len(e.Defn.Headers), humanize.Bytes(uint64(len(e.Defn.RawBody)))),
		)
		return err
	}
}

// Event prints a single response event
func (p *Printer) Event(ev http.ResponseStreamEvent) error {
	switch p.format {
	case log.JSON:
		return p.json(ev)
	case log.Text:
		return p.text(ev)
	default:
		return p.pretty(ev)
	}
}

func (p *Printer) text(ev http.ResponseStreamEvent) error {
	switch e := ev.(type) {
	case *http.ResponseHead:
		b := make([]byte, 0, 256)
		b = append(b, "HTTP/"...)
		b = append(b, e.HTTPVersion...)
		b = append(b, fmt.Sprintf(" %d %s\r\n", e.StatusCode, e.StatusMessage)...)
		b = e.Headers.AppendBytes(b)
		b = append(b, "\r\n"...)
		_, err := p.w.Write(b)
		return err
	case *http.ResponseBodyPart:
		p.bodyBytes += len(e.RawBody)
		_, err := p.w.Write(e.RawBody)
		return err
	}
	return nil
}

func (p *Printer) pretty(ev http.ResponseStreamEvent) error {
	switch e := ev.(type) {
	case *http.ResponseHead:
		if _, err := fmt.Fprintf(p.w, "HTTP/%s %s\n", e.HTTPVersion, p.colors.status(e.StatusCode).Sprintf("%d %s", e.StatusCode, e.StatusMessage)); err != nil {
			return err
		}
		if len(e.Headers) == 0 {
			return nil
		}
		table := tablewriter.NewWriter(p.w)
		table.SetHeader([]string{"key", "value"})
		table.SetAutoFormatHeaders(false)
		table.SetAutoWrapText(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		for _, h := range e.Headers {
			table.Append([]string{h.Key, h.Value})
		}
		table.Render()
	case *http.ResponseBodyPart:
		p.bodyBytes += len(e.RawBody)
		_, err := p.w.Write(e.RawBody)
		return err
	}
	return nil
}

// Done closes off a response that completed
func (p *Printer) Done(elapsed time.Duration) error {
	switch p.format {
	case log.JSON:
		return p.json(endLine{elapsed: elapsed, bodyBytes: p.bodyBytes})
	case log.Text:
		return nil
	default:
		_, err := fmt.Fprintf(p.w, "\n%s\n", p.colors.Faint.Sprintf("-- %s body in %s", humanize.Bytes(uint64(p.bodyBytes)), elapsed.Round(time.Microsecond)))
		return err
	}
}

// Error reports the error that terminated a response
func (p *Printer) Error(err error) error {
	switch p.format {
	case log.JSON:
		return p.json(errorLine{err: err})
	case log.Text:
		return nil
	default:
		_, werr := fmt.Fprintf(p.w, "\n%s\n", p.colors.Error.Sprintf("-- failed after %s body: %v", humanize.Bytes(uint64(p.bodyBytes)), err))
		return werr
	}
}

func (p *Printer) json(v gojay.MarshalerJSONObject) error {
	b, err := gojay.MarshalJSONObject(v)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	b = append(b, '\n')
	_, err = p.w.Write(b)
	return err
}

type requestLine Entry

func (r requestLine) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("type", "request")
	enc.StringKey("name", r.Name)
	enc.StringKey("method", r.Defn.Method)
	enc.StringKey("url", r.Defn.URL)
	enc.ArrayKey("headers", r.Defn.Headers)
	enc.IntKey("bodyLength", len(r.Defn.RawBody))
}

func (r requestLine) IsNil() bool { return false }

type endLine struct {
	elapsed   time.Duration
	bodyBytes int
}

func (e endLine) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("type", "end")
	enc.IntKey("bodyLength", e.bodyBytes)
	enc.Int64Key("elapsedMicros", e.elapsed.Microseconds())
}

func (e endLine) IsNil() bool { return false }

type errorLine struct {
	err error
}

func (e errorLine) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("type", "error")
	enc.StringKey("error", e.err.Error())
}

func (e errorLine) IsNil() bool { return false }
