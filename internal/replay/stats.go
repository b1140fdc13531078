package replay

import (
	"fmt"
	"io"
	"time"

	hdrhistogram "github.com/HdrHistogram/hdrhistogram-go"
	humanize "github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

const (
	minLatencyMicros = 1
	maxLatencyMicros = int64(10 * time.Minute / time.Microsecond)
	sigFigs          = 3
)

// Stats records how long replayed requests took, both until the response head arrived and until the
// stream terminated
type Stats struct {
	Head  *hdrhistogram.Histogram
	Total *hdrhistogram.Histogram

	Succeeded int
	Failed    int
	BodyBytes int64
}

func NewStats() *Stats {
	return &Stats{
		Head:  hdrhistogram.New(minLatencyMicros, maxLatencyMicros, sigFigs),
		Total: hdrhistogram.New(minLatencyMicros, maxLatencyMicros, sigFigs),
	}
}

func (s *Stats) recordHead(d time.Duration) {
	s.Head.RecordValue(clampMicros(d))
}

func (s *Stats) recordEnd(d time.Duration, bodyBytes int, err error) {
	s.Total.RecordValue(clampMicros(d))
	s.BodyBytes += int64(bodyBytes)
	if err != nil {
		s.Failed++
	} else {
		s.Succeeded++
	}
}

func clampMicros(d time.Duration) int64 {
	v := d.Microseconds()
	if v < minLatencyMicros {
		return minLatencyMicros
	}
	if v > maxLatencyMicros {
		return maxLatencyMicros
	}
	return v
}

func micros(v int64) string {
	return (time.Duration(v) * time.Microsecond).String()
}

// Render writes a summary table of the recorded latencies
func (s *Stats) Render(w io.Writer) {
	fmt.Fprintf(w, "%d succeeded, %d failed, %s received\n", s.Succeeded, s.Failed, humanize.Bytes(uint64(s.BodyBytes)))
	if s.Total.TotalCount() == 0 {
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"", "count", "min", "p50", "p90", "p99", "max"})
	for _, v := range []struct {
		name string
		h    *hdrhistogram.Histogram
	}{
		{"head", s.Head},
		{"total", s.Total},
	} {
		table.Append([]string{
			v.name,
			fmt.Sprint(v.h.TotalCount()),
			micros(v.h.Min()),
			micros(v.h.ValueAtQuantile(50)),
			micros(v.h.ValueAtQuantile(90)),
			micros(v.h.ValueAtQuantile(99)),
			micros(v.h.Max()),
		})
	}
	table.Render()
}
