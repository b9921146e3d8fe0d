package selection

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/raphaelgruber/imgfill/internal/preview"
)

// PromptPicker lists candidates and reads the choice line by line:
// a number from 1 to N, "s" to skip or "r" to retry. It keeps asking until
// the input is valid. End of input counts as skip.
type PromptPicker struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewPromptPicker reads choices from in and writes prompts to out.
func NewPromptPicker(in io.Reader, out io.Writer) *PromptPicker {
	return &PromptPicker{scanner: bufio.NewScanner(in), out: out}
}

// Pick implements Picker.
func (p *PromptPicker) Pick(ctx context.Context, title string, candidates []preview.Candidate) (Outcome, error) {
	fmt.Fprintf(p.out, "%s\n", title)
	for i, c := range candidates {
		fmt.Fprintf(p.out, "  [%d] %s  (%s)\n", i+1, c.Describe(), c.Path)
	}

	n := len(candidates)
	for {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}

		fmt.Fprintf(p.out, "Choose 1-%d, 's' to skip, 'r' to retry: ", n)
		if !p.scanner.Scan() {
			if err := p.scanner.Err(); err != nil {
				return Outcome{}, fmt.Errorf("read choice: %w", err)
			}
			fmt.Fprintln(p.out)
			return Outcome{Kind: Skip}, nil
		}

		choice := strings.ToLower(strings.TrimSpace(p.scanner.Text()))
		switch choice {
		case "s":
			return Outcome{Kind: Skip}, nil
		case "r":
			return Outcome{Kind: Retry}, nil
		}

		idx, err := strconv.Atoi(choice)
		if err != nil {
			fmt.Fprintln(p.out, "Please enter a number.")
			continue
		}
		if idx < 1 || idx > n {
			fmt.Fprintln(p.out, "Invalid number.")
			continue
		}
		return Choose(candidates[idx-1].Path), nil
	}
}
