package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bryanwahyu/auditor-console/internal/application/upload"
	"github.com/bryanwahyu/auditor-console/internal/domain/analysis"
	"github.com/bryanwahyu/auditor-console/internal/render"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	flaggedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("45"))
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("229"))
)

type stateMsg struct {
	state upload.State
	ok    bool
}

type pickRequestMsg struct {
	req pickRequest
}

type selectionDoneMsg struct {
	err error
}

type tickMsg time.Time

type uiModel struct {
	ctrl     *upload.Controller
	renderer render.Renderer
	picker   *PromptPicker
	states   <-chan upload.State

	state     upload.State
	selecting bool
	prompt    *pickRequest
	input     []rune
	notice    string
	tick      int
}

func newModel(ctrl *upload.Controller, renderer render.Renderer, picker *PromptPicker, states <-chan upload.State) uiModel {
	return uiModel{
		ctrl:     ctrl,
		renderer: renderer,
		picker:   picker,
		states:   states,
		state:    ctrl.State(),
	}
}

func waitForState(ch <-chan upload.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		return stateMsg{state: st, ok: ok}
	}
}

func waitForPick(ch <-chan pickRequest) tea.Cmd {
	return func() tea.Msg {
		return pickRequestMsg{req: <-ch}
	}
}

// triggerSelection runs the whole select-and-submit workflow off the UI
// loop; progress arrives through the state subscription.
func triggerSelection(ctrl *upload.Controller, picker analysis.Picker) tea.Cmd {
	return func() tea.Msg {
		_, err := ctrl.TriggerSelection(context.Background(), picker)
		return selectionDoneMsg{err: err}
	}
}

func nextTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m uiModel) Init() tea.Cmd {
	return tea.Batch(waitForState(m.states), waitForPick(m.picker.requests), nextTick())
}

func (m uiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.prompt != nil {
			return m.updatePrompt(msg)
		}
		switch msg.String() {
		case "u":
			if m.state.Loading() {
				m.notice = "An analysis is already in progress."
				return m, nil
			}
			if m.selecting {
				return m, nil
			}
			m.selecting = true
			m.notice = ""
			return m, triggerSelection(m.ctrl, m.picker)
		case "q", "ctrl+c":
			return m, tea.Quit
		}
		return m, nil
	case pickRequestMsg:
		req := msg.req
		m.prompt = &req
		m.input = m.input[:0]
		return m, waitForPick(m.picker.requests)
	case selectionDoneMsg:
		m.selecting = false
		switch {
		case msg.err == nil:
			m.notice = ""
		case errors.Is(msg.err, analysis.ErrSubmissionInFlight):
			m.notice = "An analysis is already in progress."
		case errors.Is(msg.err, analysis.ErrEmptyFile):
			m.notice = "The selected file is empty."
		default:
			m.notice = msg.err.Error()
		}
		return m, nil
	case stateMsg:
		if !msg.ok {
			return m, nil
		}
		m.state = msg.state
		return m, waitForState(m.states)
	case tickMsg:
		m.tick++
		return m, nextTick()
	default:
		return m, nil
	}
}

func (m uiModel) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.answer(pickReply{path: string(m.input), ok: true})
	case tea.KeyEsc, tea.KeyCtrlC:
		m.answer(pickReply{})
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	case tea.KeySpace:
		m.input = append(m.input, ' ')
	case tea.KeyRunes:
		m.input = append(m.input, msg.Runes...)
	}
	return m, nil
}

func (m *uiModel) answer(r pickReply) {
	m.prompt.reply <- r
	m.prompt = nil
	m.input = nil
}

func (m uiModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("🔍 Auditor Agent"))
	b.WriteString("\n")
	b.WriteString(subtleStyle.Render("AI-Powered Fraud Detection for Public Spending"))
	b.WriteString("\n\n")

	if m.prompt != nil {
		b.WriteString(promptStyle.Render("CSV file path: "))
		b.WriteString(string(m.input))
		b.WriteString("█\n")
		b.WriteString(helpStyle.Render("enter select • esc cancel"))
		b.WriteString("\n\n")
	}

	v := m.renderer.View(m.state)
	switch v.Panel {
	case render.PanelLoading:
		b.WriteString(runningStyle.Render(m.spinnerFrame() + " " + render.Text(v)))
		b.WriteString("\n")
	case render.PanelError:
		b.WriteString(errorStyle.Render(render.Text(v)))
		b.WriteString("\n")
	case render.PanelResults:
		b.WriteString(headerStyle.Render("Analysis Results"))
		b.WriteString("\n")
		b.WriteString(v.TotalLine() + "\n")
		b.WriteString(flaggedStyle.Render(v.FlaggedLine()) + "\n")
		b.WriteString(v.RiskScoreLine() + "\n")
		if v.ReportText != "" {
			b.WriteString("\n")
			b.WriteString(v.ReportText)
			b.WriteString("\n")
		}
	}

	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render(m.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.state.Loading() {
		b.WriteString(helpStyle.Render("q quit"))
	} else {
		b.WriteString(helpStyle.Render("u upload CSV file • q quit"))
	}
	b.WriteString("\n")
	return b.String()
}

func (m uiModel) spinnerFrame() string {
	frames := []string{"-", "\\", "|", "/"}
	return frames[m.tick%len(frames)]
}
