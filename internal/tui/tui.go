package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	glam "github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/asynkron/aipatch/pkg/patch"
)

// entry pairs a scanned block with its dry-run result so the list can show
// the predicted outcome next to the diff.
type entry struct {
	block  patch.Block
	result patch.Result
}

func (e entry) appliable() bool {
	return !e.result.Failed()
}

type model struct {
	entries  []entry
	approved []bool
	index    int

	vp     viewport.Model
	width  int
	height int
	ready  bool

	glam      *glam.TermRenderer
	confirmed bool

	border    lipgloss.Style
	titleText lipgloss.Style
	okMark    lipgloss.Style
	failMark  lipgloss.Style
	dimText   lipgloss.Style
}

func newModel(entries []entry) *model {
	approved := make([]bool, len(entries))
	for i, e := range entries {
		approved[i] = e.appliable()
	}

	vp := viewport.Model{}
	vp.YPosition = 0

	m := &model{
		entries:   entries,
		approved:  approved,
		vp:        vp,
		border:    lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240")),
		titleText: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		okMark:    lipgloss.NewStyle().Foreground(lipgloss.Color("70")),
		failMark:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		dimText:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	}
	_ = m.rebuildRenderer(80)
	return m
}

// rebuildRenderer recreates the Glamour renderer with the given wrap width.
func (m *model) rebuildRenderer(wrap int) error {
	if wrap < 10 {
		wrap = 10
	}
	r, err := glam.NewTermRenderer(
		glam.WithStylePath("dark"), // fixed style to avoid OSC queries
		glam.WithWordWrap(wrap),
	)
	if err != nil {
		return err
	}
	m.glam = r
	return nil
}

// renderDiff renders the current entry's preview as a fenced diff so Glamour
// colors additions and removals.
func (m *model) renderDiff() string {
	if len(m.entries) == 0 {
		return "No blocks found in the input."
	}
	e := m.entries[m.index]
	if e.result.Failed() {
		return m.failMark.Render("cannot apply: "+e.result.Reason) + "\n"
	}
	preview := e.result.Preview
	if preview == "" {
		return m.dimText.Render("no textual change") + "\n"
	}
	fenced := "```diff\n" + preview + "```\n"
	if m.glam == nil {
		return preview
	}
	rendered, err := m.glam.Render(fenced)
	if err != nil {
		return preview
	}
	return rendered
}

func (m *model) refresh() {
	m.vp.SetContent(m.renderDiff())
	m.vp.GotoTop()
}

func (m *model) recalcLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	// Viewport height leaves room for the title, the entry list and the help
	// line below it, plus the border rows.
	vpH := m.height - len(m.entries) - 5
	if vpH < 3 {
		vpH = 3
	}
	m.vp.Width = m.width - 2
	m.vp.Height = vpH
	_ = m.rebuildRenderer(m.vp.Width - 2)
}

func (m *model) move(delta int) {
	if len(m.entries) == 0 {
		return
	}
	m.index = (m.index + delta + len(m.entries)) % len(m.entries)
	m.refresh()
}

func (m *model) toggle() {
	if len(m.entries) == 0 || !m.entries[m.index].appliable() {
		return
	}
	m.approved[m.index] = !m.approved[m.index]
}

func (m *model) approveAll(value bool) {
	for i, e := range m.entries {
		if e.appliable() {
			m.approved[i] = value
		}
	}
}

func (m *model) Init() tea.Cmd {
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		m.ready = true
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.confirmed = false
			return m, tea.Quit
		case "enter":
			m.confirmed = true
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
			return m, nil
		case "down", "j":
			m.move(1)
			return m, nil
		case " ":
			m.toggle()
			return m, nil
		case "a":
			m.approveAll(true)
			return m, nil
		case "n":
			m.approveAll(false)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m *model) View() string {
	if !m.ready {
		return "Initializing…"
	}

	var b strings.Builder
	title := fmt.Sprintf("Reviewing block %d of %d", m.index+1, len(m.entries))
	b.WriteString(m.titleText.Render(title))
	b.WriteString("\n")
	b.WriteString(m.border.Render(m.vp.View()))
	b.WriteString("\n")

	for i, e := range m.entries {
		mark := "[ ]"
		style := m.dimText
		switch {
		case !e.appliable():
			mark = "[!]"
			style = m.failMark
		case m.approved[i]:
			mark = "[x]"
			style = m.okMark
		}
		line := fmt.Sprintf("%s %-7s %s", mark, e.block.Kind, e.block.Path)
		if i == m.index {
			line = "> " + line
		} else {
			line = "  " + line
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	b.WriteString(m.dimText.Render("↑/↓ select · space toggle · a all · n none · enter apply · q abort"))
	return b.String()
}

// Review shows every block with its predicted outcome and lets the user pick
// the ones to apply. It returns the approved blocks in input order; ok is
// false when the user aborted instead of confirming.
func Review(ctx context.Context, blocks []patch.Block, results []patch.Result) ([]patch.Block, bool, error) {
	if len(blocks) != len(results) {
		return nil, false, fmt.Errorf("tui: %d blocks but %d results", len(blocks), len(results))
	}

	entries := make([]entry, len(blocks))
	for i, b := range blocks {
		entries[i] = entry{block: b, result: results[i]}
	}

	// Prevent OSC background color queries from contaminating stdin by
	// explicitly setting color profile and background for lipgloss/termenv.
	lipgloss.SetColorProfile(termenv.TrueColor)
	lipgloss.SetHasDarkBackground(true)

	p := tea.NewProgram(newModel(entries), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return nil, false, fmt.Errorf("tui: %w", err)
	}

	fm, ok := final.(*model)
	if !ok || !fm.confirmed {
		return nil, false, nil
	}

	var approved []patch.Block
	for i, b := range blocks {
		if fm.approved[i] {
			approved = append(approved, b)
		}
	}
	return approved, true, nil
}
