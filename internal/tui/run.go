package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bryanwahyu/auditor-console/internal/application/upload"
	"github.com/bryanwahyu/auditor-console/internal/render"
)

type Options struct {
	Controller *upload.Controller
	Renderer   render.Renderer
	Picker     *PromptPicker
}

func Run(opts Options) error {
	if opts.Controller == nil {
		return fmt.Errorf("tui controller is required")
	}
	picker := opts.Picker
	if picker == nil {
		picker = NewPromptPicker()
	}

	states, cancel := opts.Controller.Subscribe()
	defer cancel()

	m := newModel(opts.Controller, opts.Renderer, picker, states)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
