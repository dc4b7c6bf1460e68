package batch

import (
	"context"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rshade/apreboot/internal/logging"
)

// Cancellation is a one-way cooperative stop request shared between the
// signal boundary and the Runner. Once requested it stays requested.
type Cancellation struct {
	requested atomic.Bool
	done      chan struct{}
	once      sync.Once
}

// NewCancellation returns an unrequested Cancellation.
func NewCancellation() *Cancellation {
	return &Cancellation{done: make(chan struct{})}
}

// Request asks the runner to stop after the current task. It returns true
// only for the first request.
func (c *Cancellation) Request() bool {
	first := false
	c.once.Do(func() {
		c.requested.Store(true)
		close(c.done)
		first = true
	})
	return first
}

// Requested reports whether a stop was requested.
func (c *Cancellation) Requested() bool {
	return c.requested.Load()
}

// Done is closed on the first request.
func (c *Cancellation) Done() <-chan struct{} {
	return c.done
}

// Watch turns interrupt signals into a two-stage shutdown until ctx ends:
// the first signal requests a graceful stop, the second calls force. force
// typically exits the process without saving further state.
func (c *Cancellation) Watch(ctx context.Context, signals <-chan os.Signal, force func()) {
	log := logging.FromContext(ctx)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-signals:
				if !ok {
					return
				}
				if c.Request() {
					log.Warn().Ctx(ctx).Str("signal", sig.String()).
						Msg("shutdown requested, finishing the current task. Press CTRL+C again to force stop")
					continue
				}
				log.Warn().Ctx(ctx).Str("signal", sig.String()).Msg("force shutdown requested, exiting immediately")
				force()
				return
			}
		}
	}()
}
