package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/raphaelgruber/imgfill/internal/search"
)

// buildEngines creates the named engines in order. The returned func closes
// all of them.
func buildEngines(names []string) ([]*search.Engine, func(), error) {
	opts := search.Options{
		UserAgent:  cfg.UserAgent,
		Threads:    cfg.Threads,
		RateLimit:  cfg.RateLimit,
		RateBurst:  cfg.RateBurst,
		Timeout:    cfg.Timeout,
		BingURL:    cfg.BingURL,
		GoogleURL:  cfg.GoogleURL,
		BrowserBin: cfg.BrowserBin,
	}

	engines := make([]*search.Engine, 0, len(names))
	closeAll := func() {
		for _, e := range engines {
			if err := e.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close %s engine: %v\n", e.Name(), err)
			}
		}
	}

	for _, name := range names {
		e, err := search.New(name, opts)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		engines = append(engines, e)
	}
	return engines, closeAll, nil
}

// interruptContext is cancelled on Ctrl+C so the run stops between targets.
func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// interrupted reports whether err is a user cancellation rather than a failure.
func interrupted(err error) bool {
	return errors.Is(err, context.Canceled)
}
