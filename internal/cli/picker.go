package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/imgfill/internal/preview"
	"github.com/raphaelgruber/imgfill/internal/selection"
)

const (
	thumbCols = 24
	thumbRows = 10

	// gridTop is the first screen row of the card grid: header, title and
	// a blank line come before it.
	gridTop = 3
)

// errPickAborted is returned when the user quits the picker with Ctrl+C.
// The run stops; the current target is left untouched.
var errPickAborted = errors.New("pick aborted")

// pickerModel is the bubbletea model for choosing among candidates.
type pickerModel struct {
	title      string
	candidates []preview.Candidate
	thumbs     []string
	cursor     int
	width      int

	// position of this target in the run, for the header bar
	index, total int
	progress     progress.Model

	theme   Theme
	outcome selection.Outcome
	done    bool
	aborted bool
}

func newPickerModel(title string, candidates []preview.Candidate, index, total int) pickerModel {
	thumbs := make([]string, len(candidates))
	for i, c := range candidates {
		thumbs[i] = preview.Thumbnail(c.Image, thumbCols, thumbRows)
	}

	return pickerModel{
		title:      title,
		candidates: candidates,
		thumbs:     thumbs,
		index:      index,
		total:      total,
		progress: progress.New(
			progress.WithDefaultBlend(),
			progress.WithWidth(40),
		),
		theme: defaultTheme,
	}
}

// Init returns the initial command.
func (m pickerModel) Init() tea.Cmd {
	return m.progress.Init()
}

// Update handles messages and returns the updated model.
func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		m = m.handleKey(msg.String())
		if m.done {
			return m, tea.Quit
		}

	case tea.MouseClickMsg:
		if msg.Button == tea.MouseLeft {
			if i := m.cardAt(msg.X, msg.Y); i >= 0 {
				m = m.choose(i)
				return m, tea.Quit
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleKey applies one key press. Split from Update so it can be tested
// without a terminal.
func (m pickerModel) handleKey(key string) pickerModel {
	n := len(m.candidates)
	switch key {
	case "ctrl+c":
		m.aborted, m.done = true, true
	case "s", "q", "esc":
		m.outcome, m.done = selection.Outcome{Kind: selection.Skip}, true
	case "r":
		m.outcome, m.done = selection.Outcome{Kind: selection.Retry}, true
	case "enter", "space":
		if n > 0 {
			m = m.choose(m.cursor)
		}
	case "left", "h", "up", "k", "shift+tab":
		if n > 0 {
			m.cursor = (m.cursor - 1 + n) % n
		}
	case "right", "l", "down", "j", "tab":
		if n > 0 {
			m.cursor = (m.cursor + 1) % n
		}
	default:
		if idx, err := strconv.Atoi(key); err == nil && idx >= 1 && idx <= n {
			m = m.choose(idx - 1)
		}
	}
	return m
}

func (m pickerModel) choose(i int) pickerModel {
	m.cursor = i
	m.outcome, m.done = selection.Choose(m.candidates[i].Path), true
	return m
}

// layout returns the size of one card including its margin and how many
// cards fit in a grid row.
func (m pickerModel) layout() (cardW, cardH, perRow int) {
	if len(m.candidates) == 0 {
		return 0, 0, 0
	}
	card := m.renderCard(0, m.candidates[0])
	cardW, cardH = lipgloss.Width(card), lipgloss.Height(card)

	perRow = len(m.candidates)
	if m.width > 0 {
		perRow = max(1, m.width/cardW)
	}
	return cardW, cardH, perRow
}

// cardAt maps a screen cell to a candidate index, or -1 when the cell is
// outside every card.
func (m pickerModel) cardAt(x, y int) int {
	cardW, cardH, perRow := m.layout()
	if perRow == 0 || x < 0 || y < gridTop {
		return -1
	}
	col, row := x/cardW, (y-gridTop)/cardH
	if col >= perRow || x%cardW == cardW-1 {
		return -1
	}
	if i := row*perRow + col; i < len(m.candidates) {
		return i
	}
	return -1
}

// View renders the picker with mouse reporting on, so cards can be clicked.
func (m pickerModel) View() tea.View {
	v := tea.NewView(m.renderContent())
	v.MouseMode = tea.MouseModeCellMotion
	return v
}

func (m pickerModel) renderContent() string {
	if m.done {
		return ""
	}

	var pct float64
	if m.total > 0 {
		pct = float64(m.index) / float64(m.total)
	}
	header := fmt.Sprintf("%s %s %d/%d",
		m.theme.statusStyle().Render("[pick]"), m.progress.ViewAs(pct), m.index+1, m.total)

	title := lipgloss.NewStyle().Bold(true).Render(m.title)
	hint := m.theme.hintStyle().Render("click, 1-9 or ←/→ + enter to choose · s skip · r retry · ctrl+c stop")

	return strings.Join([]string{header, title, "", m.renderGrid(), hint}, "\n") + "\n"
}

// renderGrid lays the candidate cards out in rows that fit the terminal.
func (m pickerModel) renderGrid() string {
	cards := make([]string, len(m.candidates))
	for i, c := range m.candidates {
		cards[i] = m.renderCard(i, c)
	}

	_, _, perRow := m.layout()
	if perRow == 0 {
		return ""
	}

	var rows []string
	for start := 0; start < len(cards); start += perRow {
		end := min(start+perRow, len(cards))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[start:end]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m pickerModel) renderCard(i int, c preview.Candidate) string {
	border := m.theme.Border
	if i == m.cursor {
		border = m.theme.Accent
	}

	label := fmt.Sprintf("[%d] %s", i+1, c.Describe())
	if r := []rune(label); len(r) > thumbCols {
		label = string(r[:thumbCols-1]) + "…"
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		MarginRight(1).
		Render(m.thumbs[i] + "\n" + label)
}

// gridPicker shows candidates as a full-screen grid of thumbnails.
type gridPicker struct {
	index, total int
}

// Pick implements selection.Picker.
func (g *gridPicker) Pick(ctx context.Context, title string, candidates []preview.Candidate) (selection.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return selection.Outcome{}, err
	}

	model := newPickerModel(title, candidates, g.index, g.total)
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return selection.Outcome{}, fmt.Errorf("picker UI error: %w", err)
	}

	m, ok := final.(pickerModel)
	if !ok {
		return selection.Outcome{}, fmt.Errorf("picker UI returned %T", final)
	}
	if m.aborted {
		return selection.Outcome{}, errPickAborted
	}
	return m.outcome, nil
}

// setProgress records the target position; it is the Runner's Progress hook.
func (g *gridPicker) setProgress(index, total int) {
	g.index, g.total = index, total
}
