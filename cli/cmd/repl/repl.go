// Package repl implements an interactive loop for evaluating template
// calls against a loaded document.
package repl

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-yaml"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/parley/cli/cmd"
	"github.com/ardnew/parley/lang"
	"github.com/ardnew/parley/log"
)

const prompt = "» "

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	resultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Command runs the interactive evaluation loop.
type Command struct {
	Data string `help:"YAML file providing the scope data" short:"d" type:"existingfile"`
}

// Run executes the repl command.
func (c *Command) Run(ctx context.Context) error {
	doc, err := cmd.LoadDocument(ctx)
	if err != nil {
		return err
	}

	var scope any

	if c.Data != "" {
		data, err := os.ReadFile(c.Data)
		if err != nil {
			return err
		}

		if err := yaml.Unmarshal(data, &scope); err != nil {
			return err
		}
	}

	m := newModel(ctx, lang.New(doc, lang.WithLogger(log.Default())), scope)

	_, err = tea.NewProgram(m).Run()

	return err
}

// model is the bubbletea model for the evaluation loop.
type model struct {
	ctx   context.Context
	eval  *lang.Evaluator
	scope any
	names []string

	input   textinput.Model
	history []string
}

func newModel(ctx context.Context, eval *lang.Evaluator, scope any) *model {
	input := textinput.New()
	input.Prompt = promptStyle.Render(prompt)
	input.Focus()

	return &model{
		ctx:   ctx,
		eval:  eval,
		scope: scope,
		names: eval.Document().Names(),
		input: input,
		history: []string{
			hintStyle.Render(
				"Type a template call like greet(\"Ada\")." +
					" Tab completes names; Ctrl-D exits.",
			),
		},
	}
}

func (m *model) Init() tea.Cmd { return textinput.Blink }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)

		return m, cmd
	}

	switch key.Type {
	case tea.KeyCtrlC, tea.KeyCtrlD:
		return m, tea.Quit

	case tea.KeyTab:
		m.complete()

		return m, nil

	case tea.KeyEnter:
		line := strings.TrimSpace(m.input.Value())
		m.input.SetValue("")

		switch line {
		case "":
			return m, nil

		case "quit", "exit":
			return m, tea.Quit

		case "list":
			m.history = append(m.history, m.list()...)

			return m, nil
		}

		m.history = append(m.history, prompt+line, m.evaluate(line))

		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m *model) View() string {
	var b strings.Builder

	for _, line := range m.history {
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())

	if hint := m.candidate(); hint != "" {
		b.WriteString(hintStyle.Render("  (" + hint + ")"))
	}

	b.WriteString("\n")

	return b.String()
}

// evaluate renders one template call and styles the outcome.
func (m *model) evaluate(line string) string {
	out, err := m.eval.EvaluateCall(m.ctx, line, m.scope)
	if err != nil {
		return errorStyle.Render(err.Error())
	}

	return resultStyle.Render(out)
}

// list formats the document's template signatures.
func (m *model) list() []string {
	lines := make([]string, 0, m.eval.Document().Len())
	for t := range m.eval.Document().All() {
		lines = append(lines, hintStyle.Render(fmt.Sprintf("  %s", t.Signature())))
	}

	return lines
}

// candidate returns the best fuzzy completion for the name portion of
// the current input.
func (m *model) candidate() string {
	name := m.input.Value()
	if name == "" || strings.Contains(name, "(") {
		return ""
	}

	matches := fuzzy.Find(name, m.names)
	if len(matches) == 0 || matches[0].Str == name {
		return ""
	}

	return matches[0].Str
}

// complete replaces the input's name portion with the best candidate.
func (m *model) complete() {
	if c := m.candidate(); c != "" {
		m.input.SetValue(c)
		m.input.CursorEnd()
	}
}
