package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/arthur-debert/ariamove/pkg/logging"
	"github.com/arthur-debert/ariamove/pkg/shutdown"
)

// withSignals returns a context cancelled on SIGINT or SIGTERM. The first
// signal also sets the shutdown flag so in-flight steps stop at their next
// safe boundary; a second one is left to the default handler.
func withSignals(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-ch:
			shutdown.Request()
			signal.Stop(ch)
			logger := logging.GetLogger("cli")
			logger.Warn().Str("signal", sig.String()).
				Msg("interrupt received; finishing the current step and shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(ch)
		cancel()
	}
}
