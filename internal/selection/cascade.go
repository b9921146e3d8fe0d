package selection

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/raphaelgruber/imgfill/internal/acquire"
	"github.com/raphaelgruber/imgfill/internal/resolve"
)

// Fetcher places one image for a query at dest. *acquire.Acquirer
// satisfies it.
type Fetcher interface {
	Acquire(ctx context.Context, c acquire.Crawler, query, dest string) bool
}

// Attempt is one step of the cascade.
type Attempt struct {
	Engine acquire.Crawler
	Query  string
}

// Cascade tries every engine with the decorated query, then every engine
// with the plain query, stopping at the first success.
type Cascade struct {
	Engines []acquire.Crawler
	Suffix  string
	Fetcher Fetcher
	Out     io.Writer

	// OnAttempt, if set, observes every attempt.
	OnAttempt func(a Attempt, ok bool, elapsed time.Duration)
}

// Attempts lists the cascade steps for a base query in order.
func (c Cascade) Attempts(base string) []Attempt {
	variants := []string{resolve.Decorate(base, c.Suffix)}
	if c.Suffix != "" {
		variants = append(variants, base)
	}

	attempts := make([]Attempt, 0, len(variants)*len(c.Engines))
	for _, q := range variants {
		for _, e := range c.Engines {
			attempts = append(attempts, Attempt{Engine: e, Query: q})
		}
	}
	return attempts
}

// Run executes the cascade for base, placing the image at dest. It returns
// the winning attempt, or false when every attempt failed.
func (c Cascade) Run(ctx context.Context, base, dest string) (Attempt, bool) {
	out := c.Out
	if out == nil {
		out = io.Discard
	}

	attempts := c.Attempts(base)
	for i, a := range attempts {
		if ctx.Err() != nil {
			return Attempt{}, false
		}
		if i > 0 && i == len(c.Engines) && a.Query == base {
			fmt.Fprintf(out, "  [!] Retrying without suffixes: '%s'\n", base)
		}

		start := time.Now()
		ok := c.Fetcher.Acquire(ctx, a.Engine, a.Query, dest)
		if c.OnAttempt != nil {
			c.OnAttempt(a, ok, time.Since(start))
		}
		if ok {
			return a, true
		}
		slog.Warn("cascade attempt failed",
			"attempt", i+1, "of", len(attempts), "engine", a.Engine.Name(), "query", a.Query)
	}
	return Attempt{}, false
}
