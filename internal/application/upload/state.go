package upload

import (
	"time"

	"github.com/bryanwahyu/auditor-console/internal/domain/analysis"
)

// Phase of the upload workflow
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseLoading   Phase = "loading"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
)

// State is the single upload state owned by the Controller. Result is set
// only when succeeded, Error only when failed.
type State struct {
	Phase        Phase            `json:"phase"`
	Result       *analysis.Result `json:"result,omitempty"`
	Error        string           `json:"error,omitempty"`
	SubmissionID string           `json:"submission_id,omitempty"`
	FileName     string           `json:"file_name,omitempty"`
	Version      uint64           `json:"version"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func (s State) Loading() bool { return s.Phase == PhaseLoading }

// Settled reports whether the state is a terminal outcome of a submission.
func (s State) Settled() bool {
	return s.Phase == PhaseSucceeded || s.Phase == PhaseFailed
}

// Observer is called synchronously, in commit order, after every transition.
// Implementations must not call back into the Controller.
type Observer interface {
	Transitioned(prev, next State)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(prev, next State)

func (f ObserverFunc) Transitioned(prev, next State) { f(prev, next) }
