package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/wippyai/bcreader/dump"
	"github.com/wippyai/bcreader/ir"
	"github.com/wippyai/bcreader/parser"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	detailStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const minListHeight = 5

type browserModel struct {
	err      error
	module   *ir.Module
	log      *zap.Logger
	filename string
	entries  []dump.TypeEntry
	visible  []int
	filter   textinput.Model
	selected int
	offset   int
	height   int
	loaded   bool
}

type loadedMsg struct {
	err    error
	module *ir.Module
}

func newBrowserModel(filename string, log *zap.Logger) *browserModel {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "filter by index, kind or type"
	ti.Width = 40
	return &browserModel{
		filename: filename,
		log:      log,
		filter:   ti,
		height:   24,
	}
}

func (m *browserModel) Init() tea.Cmd {
	return m.loadModule
}

func (m *browserModel) loadModule() tea.Msg {
	mod, err := parser.ParseFile(m.filename, parser.WithLogger(m.log.Named("parser")))
	return loadedMsg{module: mod, err: err}
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.scroll()
		return m, nil

	case loadedMsg:
		m.loaded = true
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.module = msg.module
		m.entries = dump.Summarize(m.filename, msg.module).Types
		m.applyFilter()
		return m, nil

	case tea.KeyMsg:
		if m.filter.Focused() {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "pgup":
			m.move(-m.listHeight())
		case "pgdown":
			m.move(m.listHeight())
		case "home", "g":
			m.move(-len(m.visible))
		case "end", "G":
			m.move(len(m.visible))
		case "enter":
			m.follow()
		case "/":
			m.filter.Focus()
			return m, textinput.Blink
		}
	}
	return m, nil
}

func (m *browserModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		m.filter.Blur()
		return m, nil
	case "esc":
		m.filter.Blur()
		m.filter.SetValue("")
		m.applyFilter()
		return m, nil
	case "up":
		m.move(-1)
		return m, nil
	case "down":
		m.move(1)
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

// applyFilter recomputes the visible entries, keeping the current selection when it still matches.
func (m *browserModel) applyFilter() {
	current := m.current()
	query := strings.ToLower(strings.TrimSpace(m.filter.Value()))

	m.visible = m.visible[:0]
	for i, e := range m.entries {
		if query == "" || matchEntry(e, query) {
			m.visible = append(m.visible, i)
		}
	}

	m.selected = 0
	for i, idx := range m.visible {
		if idx == current {
			m.selected = i
			break
		}
	}
	m.scroll()
}

func matchEntry(e dump.TypeEntry, query string) bool {
	if strings.HasPrefix(query, "#") {
		return "#"+strconv.FormatUint(uint64(e.Index), 10) == query
	}
	return strings.Contains(strings.ToLower(e.Text), query) ||
		strings.Contains(e.Kind, query)
}

// current returns the entry index under the cursor, or -1.
func (m *browserModel) current() int {
	if m.selected < 0 || m.selected >= len(m.visible) {
		return -1
	}
	return m.visible[m.selected]
}

func (m *browserModel) move(delta int) {
	if len(m.visible) == 0 {
		return
	}
	m.selected = max(0, min(len(m.visible)-1, m.selected+delta))
	m.scroll()
}

// follow jumps to the first entry the selected type references.
func (m *browserModel) follow() {
	cur := m.current()
	if cur < 0 || len(m.entries[cur].Refs) == 0 {
		return
	}
	target := int(m.entries[cur].Refs[0])
	m.filter.SetValue("")
	m.applyFilter()
	m.selected = target
	m.scroll()
}

func (m *browserModel) listHeight() int {
	return max(minListHeight, m.height-12)
}

func (m *browserModel) scroll() {
	h := m.listHeight()
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+h {
		m.offset = m.selected - h + 1
	}
	m.offset = max(0, min(m.offset, max(0, len(m.visible)-h)))
}

func (m *browserModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if !m.loaded {
		return "Loading module..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Bitcode Types"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	if m.module.TargetTriple != "" {
		b.WriteString("  ")
		b.WriteString(helpStyle.Render(m.module.TargetTriple))
	}
	b.WriteString("\n\n")
	b.WriteString(m.filter.View())
	b.WriteString("\n\n")

	if len(m.visible) == 0 {
		b.WriteString(helpStyle.Render("no matching types"))
		b.WriteString("\n")
	}
	end := min(len(m.visible), m.offset+m.listHeight())
	for i := m.offset; i < end; i++ {
		line := m.formatEntry(m.entries[m.visible[i]])
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	if cur := m.current(); cur >= 0 {
		b.WriteString("\n")
		b.WriteString(detailStyle.Render(m.detail(m.entries[cur])))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.filter.Focused() {
		b.WriteString(helpStyle.Render("enter apply • esc clear • ↑/↓ select"))
	} else {
		b.WriteString(helpStyle.Render("↑/↓ select • enter follow reference • / filter • q quit"))
	}
	return b.String()
}

func (m *browserModel) formatEntry(e dump.TypeEntry) string {
	return fmt.Sprintf("#%-4d %s %s", e.Index, kindStyle.Render(fmt.Sprintf("%-8s", e.Kind)), e.Text)
}

func (m *browserModel) detail(e dump.TypeEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s", e.Index, kindStyle.Render(e.Kind))
	if e.Name != "" {
		b.WriteString(" ")
		b.WriteString(nameStyle.Render("%" + e.Name))
	}
	b.WriteString("\n")
	b.WriteString(m.module.TypeDefinition(e.Index))
	if len(e.Refs) == 0 {
		return b.String()
	}
	b.WriteString("\n\nreferences:")
	for _, ref := range e.Refs {
		fmt.Fprintf(&b, "\n  #%-4d %s", ref, dump.TypeLine(m.module, ref))
	}
	return b.String()
}

func runInteractive(filename string, log *zap.Logger) error {
	p := tea.NewProgram(newBrowserModel(filename, log), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
