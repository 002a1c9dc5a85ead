package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bryanwahyu/auditor-console/internal/domain/analysis"
)

// pickRequest asks the UI for a path; the UI answers exactly once on reply.
type pickRequest struct {
	reply chan<- pickReply
}

type pickReply struct {
	path string
	ok   bool
}

// PromptPicker is the terminal file picker. Pick blocks until the user
// answers the path prompt drawn by the model.
type PromptPicker struct {
	requests chan pickRequest
	readFile func(string) ([]byte, error)
}

func NewPromptPicker() *PromptPicker {
	return &PromptPicker{
		requests: make(chan pickRequest),
		readFile: os.ReadFile,
	}
}

func (p *PromptPicker) Pick(ctx context.Context) (analysis.File, error) {
	reply := make(chan pickReply, 1)
	select {
	case p.requests <- pickRequest{reply: reply}:
	case <-ctx.Done():
		return analysis.File{}, ctx.Err()
	}

	var r pickReply
	select {
	case r = <-reply:
	case <-ctx.Done():
		return analysis.File{}, ctx.Err()
	}

	path := strings.TrimSpace(r.path)
	if !r.ok || path == "" {
		return analysis.File{}, analysis.ErrSelectionCancelled
	}
	path = expandHome(path)

	data, err := p.readFile(path)
	if err != nil {
		return analysis.File{}, fmt.Errorf("read %s: %w", path, err)
	}
	return analysis.File{Name: filepath.Base(path), Data: data}, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
