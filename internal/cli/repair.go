package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/raphaelgruber/imgfill/internal/refs"
	"github.com/raphaelgruber/imgfill/internal/repair"
	"github.com/spf13/cobra"
)

var repairDryRun bool

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Fix broken template interpolations in the document",
	Long: `Rewrite the document in place, joining "$ {" split by whitespace or line
breaks back into "${" and collapsing runs of blank lines.

Examples:
  imgfill repair
  imgfill repair --dry-run`,
	Args: cobra.NoArgs,
	RunE: runRepair,
}

func init() {
	repairCmd.Flags().BoolVar(&repairDryRun, "dry-run", false, "report changes without writing")
}

func runRepair(cmd *cobra.Command, args []string) error {
	text, err := refs.ReadDocument(cfg.Document)
	if errors.Is(err, refs.ErrSourceNotFound) {
		fmt.Fprintf(cmd.OutOrStdout(), "Could not find %s\n", cfg.Document)
		return nil
	}
	if err != nil {
		return err
	}

	fixed, ch := repair.Fix(text)
	out := cmd.OutOrStdout()
	if !ch.Any() {
		fmt.Fprintf(out, "%s is clean.\n", cfg.Document)
		return nil
	}

	fmt.Fprintf(out, "Interpolations fixed: %d\n", ch.Interpolations)
	fmt.Fprintf(out, "Blank runs collapsed: %d\n", ch.BlankRuns)
	if repairDryRun {
		fmt.Fprintln(out, defaultTheme.hintStyle().Render("Dry run, nothing written."))
		return nil
	}

	info, err := os.Stat(cfg.Document)
	if err != nil {
		return fmt.Errorf("stat document: %w", err)
	}
	if err := os.WriteFile(cfg.Document, []byte(fixed), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	fmt.Fprintln(out, defaultTheme.completedStyle().Render("✓ Saved "+cfg.Document))
	return nil
}
