package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/imgfill/internal/metrics"
	"github.com/raphaelgruber/imgfill/internal/workflow"
)

// Theme holds the color scheme for terminal output.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
	Accent  lipgloss.Color
	Border  lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
	Accent:  lipgloss.Color("#FFAF00"), // amber
	Border:  lipgloss.Color("#3A3A3A"), // dark gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status).Bold(true)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// renderSummary formats the end-of-run report.
func (t Theme) renderSummary(sum workflow.Summary, stats *metrics.Collector) string {
	var out string
	if sum.Missing() == 0 {
		out += t.completedStyle().Render("✓ All images present") + "\n\n"
	} else {
		out += t.errorStyle().Render(fmt.Sprintf("✗ %d image(s) still missing", sum.Missing())) + "\n\n"
	}

	out += fmt.Sprintf("  References:   %d\n", sum.Total)
	out += fmt.Sprintf("  Present:      %d\n", sum.Present)
	out += fmt.Sprintf("  Downloaded:   %d\n", sum.Resolved)
	if sum.Unresolved > 0 {
		out += fmt.Sprintf("  Unresolved:   %d\n", sum.Unresolved)
	}
	if sum.Skipped > 0 {
		out += fmt.Sprintf("  Skipped:      %d\n", sum.Skipped)
	}
	if sum.Deferred > 0 {
		out += fmt.Sprintf("  Deferred:     %d\n", sum.Deferred)
	}
	if sum.Failed > 0 {
		out += t.errorStyle().Render(fmt.Sprintf("  Errors:       %d", sum.Failed)) + "\n"
	}

	if stats == nil {
		return out
	}
	if snap := stats.Snapshot(); len(snap) > 0 {
		out += "\n" + t.statusStyle().Render("Engines") + "\n"
		for _, e := range snap {
			out += fmt.Sprintf("  %-7s %d/%d ok, avg %.0fms, min %dms, max %dms\n",
				e.Engine, e.Successes, e.Attempts, e.AvgTimeMs, e.MinTimeMs, e.MaxTimeMs)
		}
	}
	out += t.hintStyle().Render(fmt.Sprintf("Finished in %s", stats.Elapsed().Round(time.Millisecond))) + "\n"
	return out
}
