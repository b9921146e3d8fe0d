// Package selection decides which downloaded candidate, if any, becomes the
// destination image.
package selection

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/imgfill/internal/preview"
)

// Kind is the outcome of one pick.
type Kind int

const (
	// None means no candidate could be shown.
	None Kind = iota
	// Selected carries the chosen file in Outcome.Path.
	Selected
	// Skip means the human rejected the target; it goes to the ledger.
	Skip
	// Retry leaves the target missing for a future run.
	Retry
)

func (k Kind) String() string {
	switch k {
	case Selected:
		return "selected"
	case Skip:
		return "skip"
	case Retry:
		return "retry"
	default:
		return "none"
	}
}

// Outcome is exactly one of: a selected path, skip, retry or none.
type Outcome struct {
	Kind Kind
	Path string
}

// Choose returns a Selected outcome for path.
func Choose(path string) Outcome { return Outcome{Kind: Selected, Path: path} }

// Picker presents candidates and returns the human's decision. How the
// decision is gathered (console prompt, full-screen grid) is up to the
// implementation; callers only see the Outcome.
type Picker interface {
	Pick(ctx context.Context, title string, candidates []preview.Candidate) (Outcome, error)
}

// PickerFunc adapts a function to Picker.
type PickerFunc func(ctx context.Context, title string, candidates []preview.Candidate) (Outcome, error)

// Pick implements Picker.
func (f PickerFunc) Pick(ctx context.Context, title string, candidates []preview.Candidate) (Outcome, error) {
	return f(ctx, title, candidates)
}

// Present runs p unless there is nothing to show, in which case the outcome
// is None without involving the human.
func Present(ctx context.Context, p Picker, title string, candidates []preview.Candidate) (Outcome, error) {
	if len(candidates) == 0 {
		return Outcome{Kind: None}, nil
	}
	out, err := p.Pick(ctx, title, candidates)
	if err != nil {
		return Outcome{}, fmt.Errorf("pick: %w", err)
	}
	return out, nil
}
