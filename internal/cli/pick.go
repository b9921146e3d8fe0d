package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/raphaelgruber/imgfill/internal/acquire"
	"github.com/raphaelgruber/imgfill/internal/ledger"
	"github.com/raphaelgruber/imgfill/internal/metrics"
	"github.com/raphaelgruber/imgfill/internal/refs"
	"github.com/raphaelgruber/imgfill/internal/resolve"
	"github.com/raphaelgruber/imgfill/internal/selection"
	"github.com/raphaelgruber/imgfill/internal/workflow"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	pickCandidates int
	pickEngine     string
	pickMode       string
	pickDryRun     bool
)

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Choose missing images from search candidates",
	Long: `Scan the document for named places ({ name: "...", img: "..." }) whose image
is missing, download a few candidates for each and let you choose.

Choose a candidate, skip the place (recorded in the skip ledger) or retry it
on a later run. In a terminal the candidates are shown as thumbnails;
otherwise, or with --picker prompt, a numbered list is printed.

Examples:
  imgfill pick
  imgfill pick -n 6 --engine google
  imgfill pick --picker prompt`,
	Args: cobra.NoArgs,
	RunE: runPick,
}

func init() {
	pickCmd.Flags().IntVarP(&pickCandidates, "candidates", "n", 0, "candidates per place (default from config: 4)")
	pickCmd.Flags().StringVar(&pickEngine, "engine", "", "search engine (default from config: bing)")
	pickCmd.Flags().StringVar(&pickMode, "picker", "auto", "picker: auto, grid or prompt")
	pickCmd.Flags().BoolVar(&pickDryRun, "dry-run", false, "list missing places and queries without downloading")
}

func runPick(cmd *cobra.Command, args []string) error {
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

	named := refs.ExtractNamed(text)
	fmt.Fprintf(out, "Found %d named places.\n", len(named))
	if len(named) == 0 {
		return nil
	}

	candidates := cfg.Candidates
	if pickCandidates > 0 {
		candidates = pickCandidates
	}
	engineName := cfg.InteractiveEngine
	if pickEngine != "" {
		engineName = pickEngine
	}

	picker, progressHook, err := choosePicker(pickMode)
	if err != nil {
		return err
	}

	engines, closeEngines, err := buildEngines([]string{engineName})
	if err != nil {
		return err
	}
	defer closeEngines()

	stats := metrics.NewCollector()
	runner := &workflow.Runner{
		Resolver:          resolve.Resolver{BaseDir: cfg.ResolveBaseDir()},
		Acquirer:          acquire.New(cfg.ScratchDir, out),
		Engine:            engines[0],
		Picker:            picker,
		Candidates:        candidates,
		InteractiveSuffix: cfg.InteractiveSuffix,
		Ledger:            ledger.Open(cfg.LedgerPath()),
		Stats:             stats,
		Out:               out,
		DryRun:            pickDryRun,
		Progress:          progressHook,
	}

	ctx, cancel := interruptContext()
	defer cancel()

	sum, err := runner.RunInteractive(ctx, named)
	fmt.Fprintln(out)
	switch {
	case errors.Is(err, errPickAborted), interrupted(err):
		fmt.Fprintln(out, defaultTheme.hintStyle().Render("Stopped. Remaining places are left for the next run."))
	case err != nil:
		return err
	}
	fmt.Fprint(out, defaultTheme.renderSummary(sum, stats))
	return nil
}

// choosePicker returns the picker for mode and an optional progress hook.
// "auto" uses the grid when both stdin and stdout are terminals.
func choosePicker(mode string) (selection.Picker, func(int, int), error) {
	switch mode {
	case "auto":
		if term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) {
			return choosePicker("grid")
		}
		return choosePicker("prompt")
	case "grid":
		g := &gridPicker{}
		return g, g.setProgress, nil
	case "prompt":
		return selection.NewPromptPicker(os.Stdin, os.Stdout), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown picker %q (want auto, grid or prompt)", mode)
	}
}
