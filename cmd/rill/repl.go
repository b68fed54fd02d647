package main

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rill-lang/rill/ir"
	"github.com/rill-lang/rill/parser"
	"github.com/rill-lang/rill/token"
)

// session holds the state surviving between REPL lines: the constant
// function registry and an interpreter whose root scope keeps bindings.
type session struct {
	registry *ir.Registry
	interp   *ir.Interpreter
	budget   int
}

func newSession(budget int) *session {
	registry := ir.NewRegistry()
	return &session{
		registry: registry,
		interp:   ir.NewInterpreter(registry, budget),
		budget:   budget,
	}
}

// eval parses, lowers and evaluates one REPL input, returning the lines to
// print.
func (s *session) eval(input []byte) (string, error) {
	file := token.NewFile("(repl)", len(input))

	parsed, err := parser.Parse(file, input)
	if err != nil {
		return "", err
	}

	module, err := ir.LowerFile(parsed, s.registry)
	if err != nil {
		return "", positionError(file, err)
	}

	// every line gets a fresh budget
	s.interp.Budget = ir.NewBudget(s.budget)

	var output []string
	for _, stmt := range module.Stmts {
		if _, outcome := s.interp.Eval(stmt, ir.Compilation); outcome != nil {
			return strings.Join(output, "\n"), outcomeError(file, outcome)
		}
		if decl, ok := stmt.(*ir.Decl); ok {
			if value, ok := s.interp.Scopes.Get(decl.Name); ok {
				output = append(output, fmt.Sprintf("%s = %s", decl.Name, value))
			}
		}
	}

	if module.Last != nil {
		value, outcome := s.interp.Eval(module.Last, ir.Compilation)
		if outcome != nil {
			return strings.Join(output, "\n"), outcomeError(file, outcome)
		}
		output = append(output, value.String())
	}

	return strings.Join(output, "\n"), nil
}

type model struct {
	input         [][]rune
	line          int
	col           int
	session       *session
	quitting      bool
	err           error
	history       [][][]rune
	uncommited    [][][]rune
	uncommitedIdx int
	textStyle     lipgloss.Style
	cursorStyle   lipgloss.Style
	errorStyle    lipgloss.Style
}

func newModel(budget int) *model {
	return &model{
		input:         make([][]rune, 1),
		session:       newSession(budget),
		uncommited:    make([][][]rune, 1),
		uncommitedIdx: 0,
		textStyle:     lipgloss.NewStyle().Inline(true),
		cursorStyle:   lipgloss.NewStyle().Inline(true).Reverse(true),
		errorStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

func (m *model) reset() {
	clear(m.uncommited)
	m.uncommitedIdx = len(m.uncommited) - 1
	m.input = m.input[:1]
	m.input[0] = m.input[0][:0]
	m.line = 0
	m.col = 0
}

func (m *model) upHistory() {
	if m.uncommitedIdx > 0 {
		m.uncommited[m.uncommitedIdx] = m.input
		m.uncommitedIdx--
		if m.uncommited[m.uncommitedIdx] == nil {
			histItem := slices.Clone(m.history[m.uncommitedIdx])
			for i := range histItem {
				histItem[i] = slices.Clone(histItem[i])
			}
			m.uncommited[m.uncommitedIdx] = histItem
		}
		m.input = m.uncommited[m.uncommitedIdx]
		m.line = len(m.input) - 1
		m.col = len(m.input[m.line])
	}
}

func (m *model) downHistory() {
	if m.uncommitedIdx+1 < len(m.uncommited) {
		m.uncommited[m.uncommitedIdx] = m.input
		m.uncommitedIdx++
		m.input = m.uncommited[m.uncommitedIdx]
		m.line = len(m.input) - 1
		m.col = len(m.input[m.line])
	}
}

func (m *model) prevLineOrUpHistory() {
	if m.line > 0 {
		m.line--
		if m.col >= len(m.input[m.line]) {
			m.col = len(m.input[m.line])
		}
	} else if len(m.input) == 1 {
		m.upHistory()
	}
}

func (m *model) nextLineOrDownHistory() {
	if m.line+1 < len(m.input) {
		m.line++
		if m.col >= len(m.input[m.line]) {
			m.col = len(m.input[m.line])
		}
	} else if len(m.input) == 1 && m.uncommitedIdx+1 < len(m.uncommited) {
		m.downHistory()
	}
}

func (m *model) charForward() {
	if m.col > 0 {
		m.col--
	} else if m.line > 0 {
		m.line--
		m.col = len(m.input[m.line])
	}
}

func (m *model) charBackward() {
	if m.col < len(m.input[m.line]) {
		m.col++
	} else if m.line+1 < len(m.input) {
		m.line++
		m.col = 0
	}
}

func (m *model) deleteCharBefore() {
	if m.col > 0 {
		m.input[m.line] = slices.Delete(m.input[m.line], m.col-1, m.col)
		m.col--
	} else if m.line > 0 {
		m.col = len(m.input[m.line-1])
		m.input[m.line-1] = append(m.input[m.line-1], m.input[m.line]...)
		m.input = slices.Delete(m.input, m.line, m.line+1)
		m.line--
	}
}

func (m *model) deleteCharAfter() {
	if m.col < len(m.input[m.line]) {
		m.input[m.line] = slices.Delete(m.input[m.line], m.col, m.col+1)
	} else if m.line+1 < len(m.input) {
		m.input[m.line] = append(m.input[m.line], m.input[m.line+1]...)
		m.input = slices.Delete(m.input, m.line+1, m.line+2)
	}
}

func (m *model) deleteAfterCursor() {
	if m.col != len(m.input[m.line]) {
		m.input[m.line] = m.input[m.line][:m.col]
	} else if m.line+1 < len(m.input) {
		m.input[m.line] = append(m.input[m.line], m.input[m.line+1]...)
		m.input = slices.Delete(m.input, m.line+1, m.line+2)
	}
}

func (m *model) deleteBeforeCursor() {
	if m.col != 0 {
		m.input[m.line] = slices.Delete(m.input[m.line], 0, m.col)
		m.col = 0
	} else if m.line > 0 {
		m.col = len(m.input[m.line-1])
		m.input[m.line-1] = append(m.input[m.line-1], m.input[m.line]...)
		m.input = slices.Delete(m.input, m.line, m.line+1)
		m.line--
	}
}

func (m *model) newLine() {
	m.handleUserInput([]rune("\n"))
}

func (m *model) onEnter() (tea.Model, tea.Cmd) {
	var buf bytes.Buffer
	for i, line := range m.input {
		if i != 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(string(line))
	}

	input := bytes.TrimSpace(buf.Bytes())
	if len(input) == 0 {
		return m, nil
	}

	if needsMoreInput(input) {
		m.newLine()
		return m, nil
	}

	output, err := m.session.eval(input)
	if err != nil {
		m.err = err
		return m, nil
	}

	cmds := []tea.Cmd{tea.Println(m.view(true))}
	if output != "" {
		cmds = append(cmds, tea.Println(output))
	}

	m.history = append(m.history, m.input)
	clear(m.uncommited)
	m.uncommited = append(m.uncommited, nil)
	m.uncommitedIdx = len(m.uncommited) - 1

	m.input = make([][]rune, 1)
	m.line = 0
	m.col = 0

	return m, tea.Sequence(cmds...)
}

// needsMoreInput reports whether the input has unbalanced delimiters, in
// which case enter continues the input on a new line instead of evaluating.
func needsMoreInput(input []byte) bool {
	file := token.NewFile("(repl)", len(input))
	scanner := parser.NewScanner(file, input, nil)

	var parens, braces, brackets int
loop:
	for {
		tok, _, _ := scanner.Scan()
		switch tok {
		case token.LParen:
			parens++
		case token.RParen:
			parens--
		case token.LBrace, token.HashBrace:
			braces++
		case token.RBrace:
			braces--
		case token.LBrack:
			brackets++
		case token.RBrack:
			brackets--
		case token.EOF:
			break loop
		}
	}

	return parens > 0 || braces > 0 || brackets > 0
}

func (m *model) handleUserInput(runes []rune) {
	var buf, rem []rune
	for _, r := range runes {
		switch {
		case r == '\r' || r == '\n':
			rem = append(rem, m.input[m.line][m.col:]...)
			m.input[m.line] = append(m.input[m.line][:m.col], buf...)
			buf = buf[:0]
			m.col = 0
			m.line++
			if m.line == len(m.input) {
				m.input = append(m.input, nil)
			}
		case r == '\t':
			buf = append(buf, ' ', ' ')
		case unicode.IsPrint(r):
			buf = append(buf, r)
		}
	}
	if len(buf) != 0 || len(rem) != 0 {
		m.input[m.line] = slices.Concat(m.input[m.line][:m.col], buf, rem, m.input[m.line][m.col:])
		m.col += len(buf)
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Printf("rill %s", version)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.err != nil {
		m.err = nil
	}
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+q":
			m.quitting = true
			return m, tea.Quit
		case "ctrl+d":
			if len(m.input) == 1 && len(m.input[m.line]) == 0 {
				// quit if input is empty
				m.quitting = true
				return m, tea.Quit
			}
			m.deleteCharAfter()
		case "ctrl+l":
			return m, tea.ClearScreen
		case "ctrl+c":
			m.reset()
		case "up":
			m.prevLineOrUpHistory()
		case "down":
			m.nextLineOrDownHistory()
		case "ctrl+p":
			m.upHistory()
		case "ctrl+n":
			m.downHistory()
		case "left":
			m.charForward()
		case "right", "ctrl+f":
			m.charBackward()
		case "backspace", "ctrl+h":
			m.deleteCharBefore()
		case "delete":
			m.deleteCharAfter()
		case "home", "ctrl+a":
			m.col = 0
		case "end", "ctrl+e":
			m.col = len(m.input[m.line])
		case "ctrl+k":
			m.deleteAfterCursor()
		case "ctrl+u":
			m.deleteBeforeCursor()
		case "enter":
			return m.onEnter()
		case "tab":
			m.handleUserInput([]rune{' ', ' '})
		default:
			m.handleUserInput(msg.Runes)
		}
	}
	return m, nil
}

func (m *model) view(persist bool) string {
	if persist || m.quitting {
		cursorStyle := m.cursorStyle
		m.cursorStyle = m.textStyle
		defer func() { m.cursorStyle = cursorStyle }()
	}
	var b strings.Builder
	for i, line := range m.input {
		if i == 0 {
			b.WriteString(">>> ")
		} else {
			b.WriteString("\n... ")
		}
		if m.line != i {
			b.WriteString(m.textStyle.Render(string(line)))
			continue
		}
		b.WriteString(m.textStyle.Render(string(line[:m.col])))
		if m.col < len(line) {
			b.WriteString(m.cursorStyle.Render(string(line[m.col])))
			b.WriteString(m.textStyle.Render(string(line[m.col+1:])))
		} else {
			b.WriteString(m.cursorStyle.Render(" "))
		}
	}
	if !persist {
		b.WriteByte('\n')
		if m.err != nil {
			b.WriteString(m.errorStyle.Render(m.err.Error()))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (m *model) View() string {
	return m.view(false)
}

// RunREPL runs the interactive evaluator.
func RunREPL(budget int, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(newModel(budget), tea.WithInput(in), tea.WithOutput(out))
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
