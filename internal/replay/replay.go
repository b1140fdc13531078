package replay

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/assetnote/rawreq/pkg/http"
	"github.com/assetnote/rawreq/pkg/log"
	"github.com/hashicorp/go-multierror"
)

type Options struct {
	Request     http.RequestOptions
	Repeat      int
	ProgressBar bool
	StopOnError bool
	Output      io.Writer
	Format      log.LogFormat
	NoColor     bool
}

type Option func(*Options)

func RequestOptions(o http.RequestOptions) Option {
	return func(opts *Options) {
		opts.Request = o
	}
}

// Repeat sends every entry n times. Values below 1 are treated as 1
func Repeat(n int) Option {
	return func(opts *Options) {
		opts.Repeat = n
	}
}

func ProgressBarEnabled(v bool) Option {
	return func(opts *Options) {
		opts.ProgressBar = v
	}
}

func StopOnError(v bool) Option {
	return func(opts *Options) {
		opts.StopOnError = v
	}
}

func Output(w io.Writer) Option {
	return func(opts *Options) {
		opts.Output = w
	}
}

func Format(f log.LogFormat) Option {
	return func(opts *Options) {
		opts.Format = f
	}
}

func NoColor(v bool) Option {
	return func(opts *Options) {
		opts.NoColor = v
	}
}

func NewDefaultOptions() *Options {
	return &Options{
		Repeat: 1,
		Output: os.Stdout,
		Format: log.GetLogFormat(),
	}
}

// Run sends every entry in order, one at a time, printing the events of each as they arrive.
// Failed requests do not stop the run unless StopOnError is set; all failures are returned together
func Run(ctx context.Context, entries []Entry, opts ...Option) (*Stats, error) {
	o := NewDefaultOptions()
	for _, fn := range opts {
		fn(o)
	}
	if o.Repeat < 1 {
		o.Repeat = 1
	}

	var (
		stats   = NewStats()
		printer = NewPrinter(o.Output, o.Format, o.NoColor)
		merr    *multierror.Error
		bar     *ProgressBar
		total   = int64(len(entries) * o.Repeat)
	)
	if o.ProgressBar && total > 1 {
		bar = NewProgress(total)
	}

	log.Debug().Int("entries", len(entries)).Int("repeat", o.Repeat).Msg("starting replay")

replay:
	for i := 0; i < o.Repeat; i++ {
		for _, e := range entries {
			if ctx.Err() != nil {
				merr = multierror.Append(merr, ctx.Err())
				break replay
			}

			err := Send(ctx, e, o.Request, printer, stats)
			if bar != nil {
				bar.Incr(1)
			}
			if err != nil {
				merr = multierror.Append(merr, err)
				if o.StopOnError {
					break replay
				}
			}
		}
	}

	return stats, merr.ErrorOrNil()
}

// Send sends a single entry and prints its events
func Send(ctx context.Context, e Entry, ro http.RequestOptions, printer *Printer, stats *Stats) error {
	if err := printer.Request(e); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	start := time.Now()
	stream, err := http.SendRequest(ctx, e.Defn, ro)
	if err != nil {
		stats.recordEnd(time.Since(start), 0, err)
		printer.Error(err)
		return fmt.Errorf("%s: %w", e.Name, err)
	}
	defer stream.Close()

	log.Debug().Str("id", stream.ID()).Str("name", e.Name).Object("request", e.Defn).Msg("sent request")

	bodyBytes := 0
	for {
		ev, err := stream.Next(ctx)
		if err == io.EOF {
			elapsed := time.Since(start)
			stats.recordEnd(elapsed, bodyBytes, nil)
			return printer.Done(elapsed)
		}
		if err != nil {
			stats.recordEnd(time.Since(start), bodyBytes, err)
			if perr := printer.Error(err); perr != nil {
				log.Debug().Err(perr).Msg("failed to write error output")
			}
			return fmt.Errorf("%s: %w", e.Name, err)
		}

		switch ev := ev.(type) {
		case *http.ResponseHead:
			stats.recordHead(time.Since(start))
			log.Debug().Str("id", stream.ID()).Object("head", ev).Msg("received head")
		case *http.ResponseBodyPart:
			bodyBytes += len(ev.RawBody)
		}

		if err := printer.Event(ev); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
}
