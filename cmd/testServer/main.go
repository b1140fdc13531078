package main

import (
	"bufio"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/assetnote/rawreq/pkg/log"
	humanize "github.com/dustin/go-humanize"
	"github.com/fasthttp/router"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

const (
	maxChunks  = 1024
	chunkDelay = 10 * time.Millisecond
)

var (
	requestCount count32
)

type count32 struct {
	val uint32
}

func (c *count32) increment() {
	atomic.AddUint32(&c.val, 1)
}

func (c *count32) get() uint32 {
	return atomic.LoadUint32(&c.val)
}

func PreRequest(ctx *fasthttp.RequestCtx) {
	requestCount.increment()
	ctx.Response.Header.Set("X-Request-Id", uuid.New().String())
}

func Index(ctx *fasthttp.RequestCtx) {
	PreRequest(ctx)

	ctx.WriteString("Welcome!")
}

// EchoResponder returns the request head exactly as the server received it, so a client can check
// what it actually put on the wire
func EchoResponder(ctx *fasthttp.RequestCtx) {
	PreRequest(ctx)

	ctx.SetContentType("text/plain")
	ctx.Write(ctx.Request.Header.Method())
	ctx.WriteString(" ")
	ctx.Write(ctx.Request.Header.RequestURI())
	ctx.WriteString(" ")
	ctx.Write(ctx.Request.Header.Protocol())
	ctx.WriteString("\r\n")
	ctx.Write(ctx.Request.Header.RawHeaders())
	ctx.WriteString("\r\n")
	ctx.Write(ctx.Request.Body())
}

// ChunkedResponder streams n chunks with a short pause between each
func ChunkedResponder(ctx *fasthttp.RequestCtx) {
	PreRequest(ctx)

	n, err := strconv.Atoi(ctx.UserValue("n").(string))
	if err != nil || n < 0 || n > maxChunks {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		fmt.Fprintf(ctx, "chunk count must be between 0 and %d\n", maxChunks)
		return
	}

	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		for i := 0; i < n; i++ {
			fmt.Fprintf(w, "chunk %d\n", i)
			if err := w.Flush(); err != nil {
				return
			}
			time.Sleep(chunkDelay)
		}
	})
}

func StatusResponder(ctx *fasthttp.RequestCtx) {
	PreRequest(ctx)

	code, err := strconv.Atoi(ctx.UserValue("code").(string))
	if err != nil || code < 200 || code > 999 {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		ctx.WriteString("status must be a number between 200 and 999\n")
		return
	}
	ctx.SetStatusCode(code)
	fmt.Fprintf(ctx, "status %d\n", code)
}

func WildcardResponder(ctx *fasthttp.RequestCtx) {
	PreRequest(ctx)

	log.Debug().
		Bytes("method", ctx.Method()).
		Bytes("uri", ctx.RequestURI()).Msg("got request")
	fmt.Fprintf(ctx, "%s %s\n", ctx.Method(), ctx.RequestURI())
}

func StatsFunc(end <-chan bool) {
	// rolling average
	lastRequest := time.Now()
	lastRequestCount := requestCount.get()
	rpsPeak := float64(0)
	for {
		select {
		case <-end:
			fmt.Println("\nTerminating.")
			return
		default:
			timeDiff := time.Since(lastRequest).Seconds()
			curRequestCount := requestCount.get()
			requestCountDiff := curRequestCount - lastRequestCount
			rps := float64(requestCountDiff) / timeDiff
			if rps > rpsPeak {
				rpsPeak = rps
			}

			fmt.Printf("Total Requests: %s. Requests since last checkin: %s. RPS: %s. Peak: %s\t\t\t\t\r",
				humanize.Comma(int64(curRequestCount)),
				humanize.Comma(int64(requestCountDiff)),
				humanize.FormatFloat("#,###.##", rps),
				humanize.FormatFloat("#,###.##", rpsPeak))
			lastRequest = time.Now()
			lastRequestCount = curRequestCount
			time.Sleep(1 * time.Second)
		}
	}
}

func main() {
	var portRange string
	flag.StringVar(&portRange, "p", "14000-14010", "Range of ports to start servers on")
	flag.Parse()

	flagParts := strings.Split(portRange, "-")
	if len(flagParts) != 2 {
		log.Fatal().Msg("Invalid portRange. Format should be <int>-<int>")
	}

	startPort, err := strconv.Atoi(flagParts[0])
	if err != nil {
		log.Fatal().Msgf("Unable to parse port: %s", err)
	}

	endPort, err := strconv.Atoi(flagParts[1])
	if err != nil {
		log.Fatal().Msgf("Unable to parse port: %s", err)
	}

	r := router.New()
	r.GET("/", Index)
	r.Handle("*", "/echo", EchoResponder)
	r.GET("/chunked/{n}", ChunkedResponder)
	r.Handle("*", "/status/{code}", StatusResponder)
	r.Handle("*", "/{req:*}", WildcardResponder)

	var wg sync.WaitGroup
	for i := startPort; i < endPort; i++ {
		wg.Add(1)
		go func(port int) {
			defer wg.Done()
			s := &fasthttp.Server{
				Handler:                       r.Handler,
				Name:                          "rawreq-testServer",
				DisableHeaderNamesNormalizing: true,
			}
			Host := fmt.Sprintf(":%d", port)
			log.Fatal().Err(s.ListenAndServe(Host)).Msg("failed to start server")
		}(i)
	}
	statsFunc := make(chan bool)

	go StatsFunc(statsFunc)
	wg.Wait()

	statsFunc <- true
	close(statsFunc)
}
