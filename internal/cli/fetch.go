package cli

import (
	"errors"
	"fmt"

	"github.com/raphaelgruber/imgfill/internal/acquire"
	"github.com/raphaelgruber/imgfill/internal/metrics"
	"github.com/raphaelgruber/imgfill/internal/refs"
	"github.com/raphaelgruber/imgfill/internal/resolve"
	"github.com/raphaelgruber/imgfill/internal/selection"
	"github.com/raphaelgruber/imgfill/internal/workflow"
	"github.com/spf13/cobra"
)

var (
	fetchDryRun  bool
	fetchEngines []string
	fetchMarker  string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download missing images automatically",
	Long: `Scan the document for img: references and download every missing image,
taking the first search hit.

Each image is tried with "<country> <city> <name> travel landmark" on every
engine in order, then with the plain query. The first success wins.

Examples:
  imgfill fetch
  imgfill fetch -d site/index.html
  imgfill fetch --engines bing
  imgfill fetch --dry-run`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchDryRun, "dry-run", false, "list missing images and queries without downloading")
	fetchCmd.Flags().StringSliceVar(&fetchEngines, "engines", nil, "engines in cascade order (default from config: google,bing)")
	fetchCmd.Flags().StringVar(&fetchMarker, "marker", "", "only consider paths containing this folder marker (default images/)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Target: %s\n", cfg.Document)

	text, err := refs.ReadDocument(cfg.Document)
	if errors.Is(err, refs.ErrSourceNotFound) {
		fmt.Fprintf(out, "Could not find %s\n", cfg.Document)
		return nil
	}
	if err != nil {
		return err
	}

	marker := cfg.Marker
	if cmd.Flags().Changed("marker") {
		marker = fetchMarker
	}
	paths := refs.ExtractPaths(text, marker)
	fmt.Fprintf(out, "Found %d image references.\n", len(paths))
	if len(paths) == 0 {
		return nil
	}

	names := cfg.Engines
	if len(fetchEngines) > 0 {
		names = fetchEngines
	}
	engines, closeEngines, err := buildEngines(names)
	if err != nil {
		return err
	}
	defer closeEngines()

	crawlers := make([]acquire.Crawler, len(engines))
	for i, e := range engines {
		crawlers[i] = e
	}

	acq := acquire.New(cfg.ScratchDir, out)
	stats := metrics.NewCollector()
	runner := &workflow.Runner{
		Resolver: resolve.Resolver{BaseDir: cfg.ResolveBaseDir()},
		Acquirer: acq,
		Cascade: selection.Cascade{
			Engines: crawlers,
			Suffix:  cfg.AutoSuffix,
			Fetcher: acq,
		},
		Stats:  stats,
		Out:    out,
		DryRun: fetchDryRun,
	}

	ctx, cancel := interruptContext()
	defer cancel()

	sum, err := runner.RunAuto(ctx, paths)
	fmt.Fprintln(out)
	if err != nil && !interrupted(err) {
		return err
	}
	if interrupted(err) {
		fmt.Fprintln(out, defaultTheme.hintStyle().Render("Interrupted."))
	}
	fmt.Fprint(out, defaultTheme.renderSummary(sum, stats))
	return nil
}
