package main

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type state int

const (
	stateScanning state = iota
	stateSelecting
	stateCapturing
	stateDone
)

type scanDoneMsg struct {
	outputs []Output
	err     error
}

type captureDoneMsg struct {
	err error
}

type model struct {
	state   state
	spinner spinner.Model
	outputs []Output
	cursor  int
	chosen  *Output
	outPath string
	cfg     *Config
	err     error
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	itemStyle     = lipgloss.NewStyle().PaddingLeft(2)
	selectedStyle = lipgloss.NewStyle().PaddingLeft(0).Foreground(lipgloss.Color("170"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func newModel(cfg *Config, outPath string) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	return model{
		state:   stateScanning,
		spinner: s,
		outPath: outPath,
		cfg:     cfg,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, scanCmd(m.cfg.MaxCards))
}

func scanCmd(maxCards int) tea.Cmd {
	return func() tea.Msg {
		outputs, err := listOutputs(maxCards)
		return scanDoneMsg{outputs: outputs, err: err}
	}
}

func captureCmd(o Output, outPath string, maxCards int) tea.Cmd {
	return func() tea.Msg {
		frame, _, err := captureFrame(backendDRM, o.Card, o.CrtcID, maxCards)
		if err != nil {
			return captureDoneMsg{err: err}
		}
		return captureDoneMsg{err: writePNG(frame, outPath)}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case scanDoneMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateDone
			return m, tea.Quit
		}

		if len(msg.outputs) == 1 {
			m.chosen = &msg.outputs[0]
			m.state = stateCapturing
			return m, captureCmd(*m.chosen, m.outPath, m.cfg.MaxCards)
		}

		m.outputs = msg.outputs
		m.state = stateSelecting
		return m, nil

	case captureDoneMsg:
		m.err = msg.err
		m.state = stateDone
		return m, tea.Quit
	}

	if m.state == stateSelecting {
		if msg, ok := msg.(tea.KeyMsg); ok {
			switch msg.String() {
			case "up", "k":
				if m.cursor > 0 {
					m.cursor--
				}
			case "down", "j":
				if m.cursor < len(m.outputs)-1 {
					m.cursor++
				}
			case "enter":
				m.chosen = &m.outputs[m.cursor]
				m.state = stateCapturing
				return m, captureCmd(*m.chosen, m.outPath, m.cfg.MaxCards)
			}
		}
	}

	return m, nil
}

func (m model) View() string {
	switch m.state {
	case stateScanning:
		return fmt.Sprintf("\n %s %s\n\n",
			m.spinner.View(),
			titleStyle.Render("Scanning display devices..."))

	case stateSelecting:
		s := "\n" + titleStyle.Render("  Select an output to capture:") + "\n\n"
		for i, o := range m.outputs {
			label := o.String()
			if i == m.cursor {
				s += selectedStyle.Render("▸ "+label) + "\n"
			} else {
				s += itemStyle.Render(label) + "\n"
			}
		}
		s += "\n" + helpStyle.Render("  ↑/k up · ↓/j down · enter capture · q quit") + "\n"
		return s

	case stateCapturing:
		return fmt.Sprintf("\n %s %s\n\n",
			m.spinner.View(),
			titleStyle.Render("Capturing..."))

	case stateDone:
		if m.err != nil {
			return "\n" + errStyle.Render("  Error: "+m.err.Error()) + "\n\n"
		}
		if m.chosen != nil {
			return fmt.Sprintf("\n  Captured %s to %s\n\n", m.chosen, m.outPath)
		}
	}

	return ""
}
