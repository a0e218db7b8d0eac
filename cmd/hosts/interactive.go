package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.bytecodealliance.org/wit"
	"golang.org/x/term"

	"github.com/wippyai/host-bundles/adapter"
	"github.com/wippyai/host-bundles/bundle"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	bundleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelectBundle modelState = iota
	stateViewOps
)

type inspectorModel struct {
	err      error
	title    string
	bundles  []bundle.Bundle
	selected int
	state    modelState

	ops    []adapter.Operation
	probed map[string]bool
	filter textinput.Model
}

func newInspectorModel(title string, bundles []bundle.Bundle) *inspectorModel {
	filter := textinput.New()
	filter.Placeholder = "filter operations"
	filter.Prompt = "/ "
	filter.Width = 40

	return &inspectorModel{
		title:   title,
		bundles: bundles,
		filter:  filter,
		state:   stateSelectBundle,
	}
}

type opsMsg struct {
	err error
	ops []adapter.Operation
}

type probeMsg struct {
	err    error
	probed map[string]bool
}

func (m *inspectorModel) Init() tea.Cmd {
	return nil
}

func (m *inspectorModel) loadOps() tea.Msg {
	ops, err := adapter.Describe(m.bundles[m.selected])
	return opsMsg{ops: ops, err: err}
}

// probeOps loads the selected bundle's native library and checks each
// declared operation for a matching symbol. Loading executes library
// initializers in-process; the inspector trusts what the manifest trusts.
func (m *inspectorModel) probeOps() tea.Msg {
	a, err := adapter.Load(m.bundles[m.selected])
	if err != nil {
		return probeMsg{err: err}
	}
	defer a.Close()

	results, err := a.Probe()
	if err != nil {
		return probeMsg{err: err}
	}

	probed := make(map[string]bool, len(results))
	for _, r := range results {
		probed[r.Op.Namespace+"#"+r.Op.Name] = r.Found
	}
	return probeMsg{probed: probed}
}

func (m *inspectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state == stateSelectBundle || !m.filter.Focused() {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectBundle && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectBundle && m.selected < len(m.bundles)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectBundle:
				if len(m.bundles) > 0 {
					m.state = stateViewOps
					m.ops = nil
					m.probed = nil
					m.err = nil
					return m, m.loadOps
				}
			case stateViewOps:
				m.filter.Blur()
			}

		case "p":
			if m.state == stateViewOps && !m.filter.Focused() {
				return m, m.probeOps
			}

		case "/":
			if m.state == stateViewOps && !m.filter.Focused() {
				m.filter.Focus()
				return m, textinput.Blink
			}

		case "esc":
			if m.state == stateViewOps {
				if m.filter.Focused() {
					m.filter.Blur()
					m.filter.SetValue("")
				} else {
					m.state = stateSelectBundle
					m.err = nil
				}
			}
		}

	case opsMsg:
		m.ops = msg.ops
		m.err = msg.err

	case probeMsg:
		m.probed = msg.probed
		if msg.err != nil {
			m.err = msg.err
		}
	}

	if m.state == stateViewOps && m.filter.Focused() {
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *inspectorModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Host Bundles"))
	if m.title != "" {
		b.WriteString(" ")
		b.WriteString(m.title)
	}
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectBundle:
		if len(m.bundles) == 0 {
			b.WriteString("No bundles resolved.\n")
			break
		}
		b.WriteString("Select a bundle:\n\n")
		for i, bun := range m.bundles {
			line := bundleStyle.Render(bun.Name()) + "  " + helpStyle.Render(bun.Root)
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + bun.Name()))
				b.WriteString("  " + helpStyle.Render(bun.Root))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter open • q quit"))

	case stateViewOps:
		bun := m.bundles[m.selected]
		b.WriteString(bundleStyle.Render(bun.Name()))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("lib " + bun.LibPath()))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("wit " + bun.WitPath()))
		b.WriteString("\n\n")

		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			b.WriteString("\n\n")
		}

		if m.filter.Focused() || m.filter.Value() != "" {
			b.WriteString(m.filter.View())
			b.WriteString("\n\n")
		}

		needle := strings.ToLower(m.filter.Value())
		for _, op := range m.ops {
			if needle != "" && !strings.Contains(strings.ToLower(op.Name), needle) {
				continue
			}
			if m.probed != nil {
				if m.probed[op.Namespace+"#"+op.Name] {
					b.WriteString(okStyle.Render("ok      "))
				} else {
					b.WriteString(errorStyle.Render("missing "))
				}
			}
			b.WriteString(formatOpStyled(op))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("p probe symbols • / filter • esc back • q quit"))
	}

	return b.String()
}

func formatOpStyled(op adapter.Operation) string {
	var params []string
	for _, p := range op.Params {
		params = append(params, typeStyle.Render(witTypeStr(p)))
	}
	var results []string
	for _, t := range op.Results {
		results = append(results, typeStyle.Render(witTypeStr(t)))
	}

	s := bundleStyle.Render(op.Name)
	if op.Namespace != "" {
		s = helpStyle.Render(op.Namespace+"#") + s
	}
	s += "(" + strings.Join(params, ", ") + ")"
	if len(results) > 0 {
		s += " -> " + strings.Join(results, ", ")
	}
	return s
}

func witTypeStr(t wit.Type) string {
	switch v := t.(type) {
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.S8:
		return "s8"
	case wit.U16:
		return "u16"
	case wit.S16:
		return "s16"
	case wit.U32:
		return "u32"
	case wit.S32:
		return "s32"
	case wit.U64:
		return "u64"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	case *wit.TypeDef:
		if v.Name != nil {
			return *v.Name
		}
		switch k := v.Kind.(type) {
		case *wit.List:
			return "list<" + witTypeStr(k.Type) + ">"
		case *wit.Option:
			return "option<" + witTypeStr(k.Type) + ">"
		case *wit.Tuple:
			parts := make([]string, len(k.Types))
			for i, t := range k.Types {
				parts[i] = witTypeStr(t)
			}
			return "tuple<" + strings.Join(parts, ", ") + ">"
		case *wit.Result:
			ok, errStr := "_", "_"
			if k.OK != nil {
				ok = witTypeStr(k.OK)
			}
			if k.Err != nil {
				errStr = witTypeStr(k.Err)
			}
			return "result<" + ok + ", " + errStr + ">"
		}
		return "typedef"
	default:
		return fmt.Sprintf("%T", t)
	}
}

func runInteractive(title string, bundles *bundle.Bundles) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("interactive mode requires a terminal")
	}

	p := tea.NewProgram(newInspectorModel(title, bundles.All()), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
