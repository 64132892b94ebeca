// Package wizard implements the interactive Bubble Tea TUI for plugin-release.
// The wizard walks through three stages: the repository root, target
// selection, and a final confirmation screen.
// When Options.Yes is true the TUI is skipped entirely and Run returns a
// Selection populated with plan defaults.
package wizard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/zerr"

	"github.com/snowpark-plugins/release/internal/plan"
)

// ErrCancelled is returned when the user quits the wizard.
var ErrCancelled = zerr.New("release cancelled")

// Options controls wizard behaviour.
type Options struct {
	// DefaultRoot pre-fills the repository root input.
	DefaultRoot string
	// Targets named on the command line; they replace the plan defaults.
	Targets []string
	// Yes skips the TUI and returns defaults immediately.
	Yes bool
}

// Selection holds what the user chose to release.
type Selection struct {
	Root    string
	Targets []string // target names, in plan order
}

// Run shows the interactive wizard and returns the user's selection.
// If opts.Yes is true, returns defaults without launching TUI.
func Run(p *plan.Plan, opts Options) (*Selection, error) {
	if opts.Yes {
		return defaultSelection(p, opts), nil
	}

	model := newModel(p, opts)
	prog := tea.NewProgram(model, tea.WithAltScreen())
	final, err := prog.Run()
	if err != nil {
		return nil, err
	}
	result := final.(wizardModel)
	if result.cancelled {
		return nil, ErrCancelled
	}
	return result.toSelection(), nil
}

// ── styles ────────────────────────────────────────────────────────────────────

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	sectionStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("8"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	focusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle     = dimStyle
)

// ── model stages ─────────────────────────────────────────────────────────────

type stage int

const (
	stageRoot    stage = iota // entering the repository root
	stageTargets              // choosing targets
	stageConfirm              // confirm / cancel
)

type checkItem struct {
	name    string
	format  string
	desc    string
	checked bool
}

type wizardModel struct {
	plan      *plan.Plan
	errMsg    string
	targets   []checkItem
	rootInput textinput.Model
	stage     stage
	cursor    int
	cancelled bool
	confirmed bool
}

func newModel(p *plan.Plan, opts Options) wizardModel {
	root := opts.DefaultRoot
	if root == "" {
		root, _ = os.Getwd()
	}

	ri := textinput.New()
	ri.Placeholder = "~/src/snowpark-plugins"
	ri.SetValue(root)
	ri.Focus()
	ri.Width = 50

	selected := initialTargets(p, opts.Targets)
	targets := make([]checkItem, len(p.Targets))
	for i, t := range p.Targets {
		targets[i] = checkItem{name: t.Name, format: string(t.Format), desc: t.Description, checked: selected[t.Name]}
	}

	return wizardModel{
		plan:      p,
		stage:     stageRoot,
		rootInput: ri,
		targets:   targets,
	}
}

// ── tea.Model interface ───────────────────────────────────────────────────────

func (m wizardModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m wizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		return m.handleKey(key)
	}
	// forward to active input
	var cmd tea.Cmd
	if m.stage == stageRoot {
		m.rootInput, cmd = m.rootInput.Update(msg)
	}
	return m, cmd
}

func (m wizardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.stage {
	case stageRoot:
		return m.handleRootKey(msg)
	case stageTargets:
		return m.handleTargetsKey(msg)
	case stageConfirm:
		return m.handleConfirmKey(msg)
	}
	return m, nil
}

func (m wizardModel) handleRootKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.cancelled = true
		return m, tea.Quit
	case "enter":
		if err := m.validateRoot(); err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.stage = stageTargets
		m.cursor = 0
		return m, nil
	}
	var cmd tea.Cmd
	m.rootInput, cmd = m.rootInput.Update(msg)
	return m, cmd
}

func (m wizardModel) handleTargetsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.cancelled = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.targets)-1 {
			m.cursor++
		}
	case " ":
		m.toggleCursor()
	case "enter":
		if len(m.selectedNames()) == 0 {
			m.errMsg = "select at least one target"
			return m, nil
		}
		m.errMsg = ""
		m.stage = stageConfirm
	}
	return m, nil
}

func (m wizardModel) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc", "n", "N":
		m.cancelled = true
		return m, tea.Quit
	case "enter", "y", "Y":
		m.confirmed = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *wizardModel) toggleCursor() {
	if m.cursor >= 0 && m.cursor < len(m.targets) {
		m.targets[m.cursor].checked = !m.targets[m.cursor].checked
	}
}

func (m wizardModel) validateRoot() error {
	root := strings.TrimSpace(m.rootInput.Value())
	if root == "" {
		return fmt.Errorf("repository root is required")
	}
	info, err := os.Stat(expandHome(root))
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}
	return nil
}

// ── View ──────────────────────────────────────────────────────────────────────

func (m wizardModel) View() string {
	switch m.stage {
	case stageRoot:
		return m.viewRoot()
	case stageTargets:
		return m.viewTargets()
	case stageConfirm:
		return m.viewConfirm()
	}
	return ""
}

func (m wizardModel) viewRoot() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("  plugin-release") + "  release packager\n\n")

	b.WriteString("  " + sectionStyle.Render("Repository root") + "\n")
	b.WriteString("  " + m.rootInput.View() + "\n")
	b.WriteString(dimStyle.Render("  Directory holding the core and plugin modules\n\n"))

	if m.errMsg != "" {
		b.WriteString("  " + errorStyle.Render("✖ "+m.errMsg) + "\n\n")
	}

	b.WriteString(helpStyle.Render("  enter next · esc quit"))
	return b.String()
}

func (m wizardModel) viewTargets() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("  plugin-release") + "  select targets\n\n")

	// core (always merged)
	b.WriteString("  " + sectionStyle.Render("─── Core (merged into every target) ───") + "\n")
	b.WriteString("  " + dimStyle.Render("  ● "+m.plan.Core.ID) + "\n\n")

	b.WriteString("  " + sectionStyle.Render("─── Targets ───") + "\n")
	for i, t := range m.targets {
		b.WriteString(m.renderItem(i, t))
	}
	b.WriteString("\n")

	if m.errMsg != "" {
		b.WriteString("  " + errorStyle.Render("✖ "+m.errMsg) + "\n\n")
	}

	b.WriteString(helpStyle.Render("  ↑↓ move · space toggle · enter next · esc quit"))
	return b.String()
}

func (m wizardModel) renderItem(idx int, item checkItem) string {
	cursor := "  "
	if idx == m.cursor {
		cursor = focusStyle.Render(" ▶")
	}
	check := "○"
	style := normalStyle
	if item.checked {
		check = selectedStyle.Render("◉")
		style = selectedStyle
	}
	return fmt.Sprintf("%s %s  %-10s %-7s %s\n",
		cursor, check,
		style.Render(item.name),
		dimStyle.Render(item.format),
		dimStyle.Render(item.desc),
	)
}

func (m wizardModel) viewConfirm() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("  plugin-release") + "  ready to release\n\n")
	b.WriteString(fmt.Sprintf("  Root:     %s\n", focusStyle.Render(m.rootInput.Value())))
	b.WriteString("  Targets:  " + strings.Join(m.selectedNames(), ", ") + "\n\n")

	for _, name := range m.selectedNames() {
		if t, ok := m.plan.Target(name); ok {
			b.WriteString(dimStyle.Render(fmt.Sprintf("    %-10s → %s  (%s)", t.Name, t.ReleaseDir, strings.Join(t.Command, " "))) + "\n")
		}
	}
	b.WriteString("\n")

	b.WriteString(helpStyle.Render("  Press enter to release · n to cancel"))
	return b.String()
}

// ── helpers ───────────────────────────────────────────────────────────────────

func (m wizardModel) selectedNames() []string {
	var names []string
	for _, t := range m.targets {
		if t.checked {
			names = append(names, t.name)
		}
	}
	return names
}

func (m wizardModel) toSelection() *Selection {
	return &Selection{
		Root:    expandHome(strings.TrimSpace(m.rootInput.Value())),
		Targets: m.selectedNames(),
	}
}

func defaultSelection(p *plan.Plan, opts Options) *Selection {
	root := opts.DefaultRoot
	if root == "" {
		root, _ = os.Getwd()
	}

	selected := initialTargets(p, opts.Targets)
	var targets []string
	for _, t := range p.Targets {
		if selected[t.Name] {
			targets = append(targets, t.Name)
		}
	}
	return &Selection{
		Root:    expandHome(root),
		Targets: targets,
	}
}

// initialTargets returns the targets checked at start: the names given, or
// the plan defaults, or every target when the plan marks none.
func initialTargets(p *plan.Plan, names []string) map[string]bool {
	selected := make(map[string]bool, len(p.Targets))
	if len(names) > 0 {
		for _, n := range names {
			selected[n] = true
		}
		return selected
	}
	for _, t := range p.Targets {
		if t.Default {
			selected[t.Name] = true
		}
	}
	if len(selected) == 0 {
		for _, t := range p.Targets {
			selected[t.Name] = true
		}
	}
	return selected
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
