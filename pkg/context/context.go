package context

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/assetnote/rawreq/pkg/log"
)

var (
	ctx            context.Context
	cancel         context.CancelFunc
	ctxInitialized sync.Once
)

// WithInterrupt returns a child of parent that is cancelled on the first SIGINT/SIGTERM.
// Cancelling the context aborts every in-flight request stream derived from it, which closes their sockets.
// A second signal exits the process immediately
func WithInterrupt(parent context.Context) (context.Context, context.CancelFunc) {
	c, cancel := context.WithCancel(parent)
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigs)
		interrupts := 0
		done := c.Done()
		for {
			select {
			case <-sigs:
				interrupts++
				if interrupts > 1 {
					log.Info().Msg("Received multiple interrupt signals. Exiting")
					os.Exit(1)
				}
				log.Info().Msg("Received interrupt signal, aborting in-flight requests")
				cancel()
			case <-done:
				if interrupts == 0 {
					return
				}
				// keep listening so a second interrupt can still force the exit
				done = nil
			}
		}
	}()
	return c, cancel
}

// InitContext will initialize the global context used to catch interrupts. This is automatically called
// by Context and Cancel
func InitContext() {
	ctxInitialized.Do(func() {
		ctx, cancel = WithInterrupt(context.Background())
	})
}

// Context will initialize the global context and attach the interrupt handler that will cancel the context
// upon SIGTERM. This is safe to call from multiple goroutines and will always return the same context
func Context() context.Context {
	InitContext()
	return ctx
}

// Cancel will cancel the global context. Calling this multiple times is the equivalent of cancelling
// the same context multiple times
func Cancel() {
	InitContext()
	cancel()
}
