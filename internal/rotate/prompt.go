package rotate

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	promptStyle = lipgloss.NewStyle().Bold(true)
	hintStyle   = lipgloss.NewStyle().Faint(true)
)

// ConfirmFunc asks a yes/no question and returns the answer.
type ConfirmFunc func(question string) (bool, error)

// Confirm is the default interactive prompt: a minimal Bubble Tea
// program reading a single y/N keystroke. An InteractiveAuto override
// on Options bypasses it entirely, which is what non-TTY CI
// invocations and tests should use.
func Confirm(question string) (bool, error) {
	model := confirmModel{question: question}
	p := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	final, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("running confirmation prompt: %w", err)
	}
	return final.(confirmModel).answer, nil
}

type confirmModel struct {
	question string
	answer   bool
	done     bool
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "y", "Y":
		m.answer, m.done = true, true
		return m, tea.Quit
	case "n", "N", "enter", "esc":
		m.answer, m.done = false, true
		return m, tea.Quit
	case "ctrl+c":
		m.answer, m.done = false, true
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done {
		return ""
	}
	return promptStyle.Render(m.question) + " " + hintStyle.Render("[y/N]") + " "
}
