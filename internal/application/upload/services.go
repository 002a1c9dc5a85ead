package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/bryanwahyu/auditor-console/internal/application"
	"github.com/bryanwahyu/auditor-console/internal/domain/analysis"
	"github.com/bryanwahyu/auditor-console/internal/domain/submissions"
)

// Options wires the Controller. Only Analyzer is required.
type Options struct {
	Analyzer  analysis.Analyzer
	Journal   submissions.Repository
	Artifacts submissions.ArtifactStore
	Clock     application.Clock
	Logger    *slog.Logger
	Observers []Observer
}

// Controller owns the upload workflow state. It is safe for concurrent use;
// all writes to the state go through mu.
type Controller struct {
	analyzer  analysis.Analyzer
	journal   submissions.Repository
	artifacts submissions.ArtifactStore
	clock     application.Clock
	logger    *slog.Logger
	observers []Observer

	mu      sync.Mutex
	state   State
	subs    map[uint64]chan State
	nextSub uint64

	wg sync.WaitGroup
}

func NewController(opts Options) *Controller {
	if opts.Analyzer == nil {
		panic("upload: Analyzer is required")
	}
	clock := opts.Clock
	if clock == nil {
		clock = application.SystemClock{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		analyzer:  opts.Analyzer,
		journal:   opts.Journal,
		artifacts: opts.Artifacts,
		clock:     clock,
		logger:    logger,
		observers: opts.Observers,
		state:     State{Phase: PhaseIdle, UpdatedAt: clock.Now()},
		subs:      make(map[uint64]chan State),
	}
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe returns a channel that always holds the most recent state; a
// slow reader skips intermediate states. The current state is delivered
// immediately. cancel closes the channel.
func (c *Controller) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.state
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			close(ch)
			c.mu.Unlock()
		})
	}
}

// TriggerSelection opens the picker and submits the chosen file. A cancelled
// selection leaves the state untouched and returns no error.
func (c *Controller) TriggerSelection(ctx context.Context, picker analysis.Picker) (State, error) {
	if cur := c.State(); cur.Loading() {
		return cur, analysis.ErrSubmissionInFlight
	}
	f, err := picker.Pick(ctx)
	if errors.Is(err, analysis.ErrSelectionCancelled) {
		return c.State(), nil
	}
	if err != nil {
		return c.State(), fmt.Errorf("pick file: %w", err)
	}
	return c.Submit(ctx, f)
}

// Submit runs one submission and blocks until it settles. Analysis failures
// are reported through the returned state, not the error; the error is set
// only when the submission was not accepted.
func (c *Controller) Submit(ctx context.Context, f analysis.File) (State, error) {
	done, err := c.Start(ctx, f)
	if err != nil {
		return c.State(), err
	}
	return <-done, nil
}

// Start moves to loading and settles the submission in the background. The
// returned channel yields the terminal state once. Cancelling ctx after
// Start returns has no effect on the submission.
func (c *Controller) Start(ctx context.Context, f analysis.File) (<-chan State, error) {
	if len(f.Data) == 0 {
		return nil, analysis.ErrEmptyFile
	}
	loading, err := c.begin(f)
	if err != nil {
		return nil, err
	}

	c.logger.Info("submission started",
		"submission_id", loading.SubmissionID,
		"file", loading.FileName,
		"bytes", f.Size(),
	)

	done := make(chan State, 1)
	go c.settle(context.WithoutCancel(ctx), loading, f, done)
	return done, nil
}

// Wait blocks until every background settlement has finished recording.
func (c *Controller) Wait() { c.wg.Wait() }

func (c *Controller) begin(f analysis.File) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Loading() {
		return c.state, analysis.ErrSubmissionInFlight
	}
	c.commitLocked(State{
		Phase:        PhaseLoading,
		SubmissionID: uuid.NewString(),
		FileName:     f.Name,
	})
	c.wg.Add(1)
	return c.state, nil
}

func (c *Controller) settle(ctx context.Context, loading State, f analysis.File, done chan<- State) {
	defer c.wg.Done()

	res, err := c.analyze(ctx, f)
	if err == nil && res == nil {
		err = fmt.Errorf("%w: no result", analysis.ErrMalformedResponse)
	}

	next := State{SubmissionID: loading.SubmissionID, FileName: loading.FileName}
	if err != nil {
		next.Phase = PhaseFailed
		next.Error = analysis.Message(err)
		c.logger.Warn("submission failed",
			"submission_id", loading.SubmissionID,
			"error", err,
		)
	} else {
		next.Phase = PhaseSucceeded
		next.Result = res
		c.logger.Info("submission succeeded",
			"submission_id", loading.SubmissionID,
			"total_transactions", res.TotalTransactions,
			"flagged_count", res.FlaggedCount,
		)
	}

	final := c.transition(next)
	done <- final
	close(done)

	c.record(ctx, loading, final, f)
}

// analyze converts a panic inside the analyzer into a network fault so the
// workflow always leaves loading.
func (c *Controller) analyze(ctx context.Context, f analysis.File) (res *analysis.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("%w: analyzer panic: %v", analysis.ErrNetworkFault, r)
		}
	}()
	return c.analyzer.Analyze(ctx, f)
}

func (c *Controller) transition(next State) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commitLocked(next)
	return c.state
}

// commitLocked replaces the state and fans it out. c.mu must be held.
func (c *Controller) commitLocked(next State) {
	prev := c.state
	next.Version = prev.Version + 1
	next.UpdatedAt = c.clock.Now()
	c.state = next

	for _, o := range c.observers {
		o.Transitioned(prev, next)
	}
	for _, ch := range c.subs {
		offer(ch, next)
	}
}

// offer replaces whatever is buffered in ch with s. Only commitLocked sends,
// so the final send cannot block.
func offer(ch chan State, s State) {
	select {
	case ch <- s:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- s
}

// record archives the upload and journals the outcome. Failures here are
// logged only; the workflow state is already final.
func (c *Controller) record(ctx context.Context, loading, final State, f analysis.File) {
	if c.journal == nil && c.artifacts == nil {
		return
	}

	entry := &submissions.Submission{
		ID:          final.SubmissionID,
		FileName:    final.FileName,
		SizeBytes:   f.Size(),
		SubmittedAt: loading.UpdatedAt,
		CompletedAt: final.UpdatedAt,
	}
	if final.Phase == PhaseSucceeded {
		entry.Status = submissions.StatusSucceeded
		entry.TotalTransactions = final.Result.TotalTransactions
		entry.FlaggedCount = final.Result.FlaggedCount
		if final.Result.RiskScore.Valid {
			score := final.Result.RiskScore.Value
			entry.RiskScore = &score
		}
	} else {
		entry.Status = submissions.StatusFailed
		entry.Error = final.Error
	}

	if c.artifacts != nil {
		prefix := path.Join("submissions", final.SubmissionID)
		url, err := c.artifacts.Put(ctx, path.Join(prefix, archiveName(f.Name)), f.Data, "text/csv")
		if err != nil {
			c.logger.Warn("archive upload failed", "submission_id", final.SubmissionID, "error", err)
		} else {
			entry.ArchiveURL = url
		}
		if final.Result != nil && final.Result.ComplianceReport != "" {
			url, err := c.artifacts.Put(ctx, path.Join(prefix, "report.html"),
				[]byte(final.Result.ComplianceReport), "text/html; charset=utf-8")
			if err != nil {
				c.logger.Warn("report archive failed", "submission_id", final.SubmissionID, "error", err)
			} else {
				entry.ReportURL = url
			}
		}
	}

	if c.journal != nil {
		if err := c.journal.Save(ctx, entry); err != nil {
			c.logger.Warn("journal save failed", "submission_id", final.SubmissionID, "error", err)
		}
	}
}

// archiveName reduces a client-supplied file name to a safe object key segment.
func archiveName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "upload.csv"
	}
	return out
}
