package cli

import (
	"fmt"
	"io"

	"github.com/raphaelgruber/imgfill/internal/ledger"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var skippedFormat string

var skippedCmd = &cobra.Command{
	Use:   "skipped",
	Short: "List places skipped during pick",
	Long: `Show the skip ledger written by "pick", for reviewing places no suitable
image was found for.

Examples:
  imgfill skipped
  imgfill skipped --format yaml > skipped.yaml`,
	Args: cobra.NoArgs,
	RunE: runSkipped,
}

func init() {
	skippedCmd.Flags().StringVarP(&skippedFormat, "format", "f", "text", "output format: text or yaml")
}

func runSkipped(cmd *cobra.Command, args []string) error {
	records, err := ledger.Read(cfg.LedgerPath())
	if err != nil {
		return err
	}
	return writeSkipped(cmd.OutOrStdout(), records, skippedFormat)
}

func writeSkipped(w io.Writer, records []ledger.Record, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if records == nil {
			records = []ledger.Record{}
		}
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()

	case "text":
		if len(records) == 0 {
			fmt.Fprintln(w, "No skipped places.")
			return nil
		}
		fmt.Fprintf(w, "Skipped places (%d):\n\n", len(records))
		for _, r := range records {
			name := r.Name
			if name == "" {
				name = "(unnamed)"
			}
			fmt.Fprintf(w, "  %-30s %s\n", name, r.Path)
		}
		return nil

	default:
		return fmt.Errorf("unknown format %q (want text or yaml)", format)
	}
}
