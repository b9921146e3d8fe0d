// Package workflow drives the missing-image resolution loop: one target at
// a time, skipping files that already exist.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/raphaelgruber/imgfill/internal/acquire"
	"github.com/raphaelgruber/imgfill/internal/ledger"
	"github.com/raphaelgruber/imgfill/internal/metrics"
	"github.com/raphaelgruber/imgfill/internal/preview"
	"github.com/raphaelgruber/imgfill/internal/refs"
	"github.com/raphaelgruber/imgfill/internal/resolve"
	"github.com/raphaelgruber/imgfill/internal/selection"
)

// Summary counts what happened to each reference in a run.
type Summary struct {
	Total      int // references processed
	Present    int // already on disk
	Resolved   int // image placed this run
	Unresolved int // automatic cascade exhausted, or no candidates downloaded
	Skipped    int // human chose skip; written to the ledger
	Deferred   int // retry requested, or nothing viewable
	Failed     int // local errors (directory, ledger, file move)
}

// Missing returns how many targets still lack an image.
func (s Summary) Missing() int { return s.Total - s.Present - s.Resolved }

// Runner holds everything one run needs. Fields not used by a mode may be
// left zero: RunAuto needs Cascade, RunInteractive needs Acquirer, Engine,
// Picker and Ledger.
type Runner struct {
	Resolver resolve.Resolver
	Acquirer *acquire.Acquirer
	Cascade  selection.Cascade

	Engine            acquire.Crawler
	Picker            selection.Picker
	Candidates        int
	InteractiveSuffix string
	Ledger            *ledger.Ledger

	Stats  *metrics.Collector
	Out    io.Writer
	DryRun bool

	// Progress, if set, is called before each target with its index.
	Progress func(index, total int)
}

func (r *Runner) out() io.Writer {
	if r.Out == nil {
		return io.Discard
	}
	return r.Out
}

// RunAuto resolves every path with the automatic cascade.
func (r *Runner) RunAuto(ctx context.Context, paths []string) (Summary, error) {
	var sum Summary
	out := r.out()

	cascade := r.Cascade
	cascade.Out = out
	if r.Stats != nil {
		cascade.OnAttempt = func(a selection.Attempt, ok bool, elapsed time.Duration) {
			r.Stats.RecordAttempt(a.Engine.Name(), ok, elapsed)
		}
	}

	for i, p := range paths {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		r.progress(i, len(paths))
		sum.Total++

		target, ok := r.prepare(refs.Reference{Path: p}, &sum)
		if !ok {
			continue
		}

		fmt.Fprintf(out, "\nMissing: %s\n", target.RelativePath)
		if r.DryRun {
			fmt.Fprintf(out, "  query: %s\n", resolve.Decorate(target.SearchQuery, cascade.Suffix))
			continue
		}

		if win, ok := cascade.Run(ctx, target.SearchQuery, target.AbsolutePath); ok {
			sum.Resolved++
			slog.Info("target resolved", "path", target.RelativePath, "engine", win.Engine.Name(), "query", win.Query)
			continue
		}
		if ctx.Err() != nil {
			return sum, ctx.Err()
		}
		sum.Unresolved++
		fmt.Fprintf(out, "  [x] Unresolved: %s\n", target.RelativePath)
		slog.Warn("target unresolved", "path", target.RelativePath, "query", target.SearchQuery)
	}
	return sum, nil
}

// RunInteractive downloads candidates for each named reference and lets
// the picker decide.
func (r *Runner) RunInteractive(ctx context.Context, references []refs.Reference) (Summary, error) {
	var sum Summary
	out := r.out()

	for i, ref := range references {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		r.progress(i, len(references))
		sum.Total++

		target, ok := r.prepare(ref, &sum)
		if !ok {
			continue
		}

		query := target.SearchQuery
		if ref.Name != "" {
			query = ref.Name
		}
		query = resolve.Decorate(query, r.InteractiveSuffix)

		fmt.Fprintf(out, "\nTarget: [%s] -> %s\n", ref.Name, target.RelativePath)
		if r.DryRun {
			fmt.Fprintf(out, "  query: %s\n", query)
			continue
		}

		if err := r.pickOne(ctx, target, query, &sum); err != nil {
			return sum, err
		}
	}
	return sum, nil
}

// pickOne handles a single interactive target. Only cancellation and
// picker failures are returned; everything else is counted and logged.
func (r *Runner) pickOne(ctx context.Context, target resolve.Target, query string, sum *Summary) error {
	out := r.out()

	fmt.Fprintln(out, "  Downloading candidates...")
	start := time.Now()
	set, err := r.Acquirer.Candidates(ctx, r.Engine, query, r.Candidates)
	if r.Stats != nil {
		r.Stats.RecordAttempt(r.Engine.Name(), err == nil, time.Since(start))
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		sum.Unresolved++
		if errors.Is(err, acquire.ErrNoCandidates) {
			fmt.Fprintf(out, "  [!] No results found on %s\n", r.Engine.Name())
		} else {
			fmt.Fprintf(out, "  [x] Error with %s: %v\n", r.Engine.Name(), err)
		}
		slog.Warn("candidate download failed", "path", target.RelativePath, "engine", r.Engine.Name(), "error", err)
		return nil
	}
	defer set.Close()

	title := fmt.Sprintf("Target: [%s] -> %s", target.Name, target.RelativePath)
	outcome, err := selection.Present(ctx, r.Picker, title, preview.Inspect(set.Files))
	if err != nil {
		return err
	}

	switch outcome.Kind {
	case selection.Skip:
		sum.Skipped++
		fmt.Fprintln(out, "  Skipped.")
		if err := r.Ledger.Record(target.Name, target.RelativePath); err != nil {
			sum.Failed++
			slog.Error("ledger write failed", "path", target.RelativePath, "error", err)
			return nil
		}
		fmt.Fprintf(out, "  (recorded in %s)\n", r.Ledger.Path())

	case selection.Retry:
		sum.Deferred++
		fmt.Fprintln(out, "  Retrying next time...")

	case selection.Selected:
		if err := acquire.Place(outcome.Path, target.AbsolutePath); err != nil {
			sum.Failed++
			fmt.Fprintf(out, "  [x] Could not save: %v\n", err)
			slog.Error("place selected file failed", "path", target.AbsolutePath, "error", err)
			return nil
		}
		sum.Resolved++
		fmt.Fprintf(out, "  Saved: %s\n", target.AbsolutePath)

	default:
		// Nothing could be decoded for display. Treated like retry: no
		// ledger entry, the target stays missing.
		sum.Deferred++
		fmt.Fprintln(out, "  No valid selection.")
		slog.Info("no viewable candidates", "path", target.RelativePath, "files", len(set.Files))
	}
	return nil
}

// prepare resolves ref and reports whether it still needs an image.
func (r *Runner) prepare(ref refs.Reference, sum *Summary) (resolve.Target, bool) {
	var (
		target resolve.Target
		err    error
	)
	if r.DryRun {
		target = r.Resolver.Target(ref)
	} else {
		target, err = r.Resolver.Resolve(ref)
	}
	if err != nil {
		sum.Failed++
		fmt.Fprintf(r.out(), "  [x] %v\n", err)
		slog.Error("resolve failed", "path", ref.Path, "error", err)
		return resolve.Target{}, false
	}

	if target.Exists() {
		sum.Present++
		slog.Debug("already present", "path", target.RelativePath)
		return resolve.Target{}, false
	}
	return target, true
}

func (r *Runner) progress(i, n int) {
	if r.Progress != nil {
		r.Progress(i, n)
	}
}
