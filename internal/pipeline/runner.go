// Package pipeline orchestrates the staged run: raw-table import, panel
// construction, descriptive tabulations, model evaluation, and export.
// Stages run sequentially in dependency order; there are no retries.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RunReport summarises a finished run.
type RunReport struct {
	RunID    string
	Stages   []*StageState
	Started  time.Time
	Finished time.Time
	// Failed lists the IDs of failed stages, in execution order.
	Failed []string
}

// Runner executes the registered stages of one pipeline.
type Runner struct {
	registry *Registry
	logger   *slog.Logger
	progress *ProgressLog

	// continueOnError keeps the run alive past analysis-stage failures.
	// Critical stages abort regardless.
	continueOnError bool
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithProgressLog attaches a progress log.
func WithProgressLog(p *ProgressLog) RunnerOption {
	return func(r *Runner) { r.progress = p }
}

// WithRunnerLogger replaces the default logger.
func WithRunnerLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithContinueOnError controls whether analysis-stage failures stop the
// run.
func WithContinueOnError(v bool) RunnerOption {
	return func(r *Runner) { r.continueOnError = v }
}

// NewRunner creates a Runner over a registry.
func NewRunner(registry *Registry, opts ...RunnerOption) *Runner {
	r := &Runner{
		registry:        registry,
		logger:          slog.Default(),
		continueOnError: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every stage in dependency order against a fresh state.
// The report always covers all stages, including skipped ones. The error
// is non-nil when a critical stage failed, when continueOnError is off
// and any stage failed, or when the context was cancelled.
func (r *Runner) Run(ctx context.Context, state *State) (*RunReport, error) {
	stages, err := r.registry.DependencyOrder()
	if err != nil {
		return nil, fmt.Errorf("resolve stage order: %w", err)
	}

	report := &RunReport{RunID: state.RunID, Started: time.Now()}
	states := make(map[string]*StageState, len(stages))
	for _, stage := range stages {
		st := NewStageState(stage.ID(), stage.Name())
		states[stage.ID()] = st
		report.Stages = append(report.Stages, st)
	}

	r.logger.InfoContext(ctx, "pipeline run starting",
		"run_id", state.RunID,
		"stages", len(stages))

	var firstErr error
	for _, stage := range stages {
		st := states[stage.ID()]

		if err := ctx.Err(); err != nil {
			st.Skip("run cancelled")
			r.record(state.RunID, st)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		if reason := r.unmetDependency(stage, states); reason != "" {
			st.Skip(reason)
			r.logger.WarnContext(ctx, "stage skipped",
				"run_id", state.RunID,
				"stage", stage.ID(),
				"reason", reason)
			r.record(state.RunID, st)
			continue
		}

		st.Start()
		r.logger.InfoContext(ctx, "stage starting",
			"run_id", state.RunID,
			"stage", stage.ID())

		if err := stage.Run(ctx, state); err != nil {
			stageErr := &StageError{StageID: stage.ID(), Critical: stage.Critical(), Err: err}
			st.Fail(stageErr)
			r.logger.ErrorContext(ctx, "stage failed",
				"run_id", state.RunID,
				"stage", stage.ID(),
				"critical", stage.Critical(),
				"error", err)
			report.Failed = append(report.Failed, stage.ID())
			r.record(state.RunID, st)

			if stage.Critical() || !r.continueOnError {
				r.skipRemaining(state.RunID, stages, states, stage.ID())
				report.Finished = time.Now()
				return report, stageErr
			}
			if firstErr == nil {
				firstErr = stageErr
			}
			continue
		}

		st.Complete()
		r.logger.InfoContext(ctx, "stage completed",
			"run_id", state.RunID,
			"stage", stage.ID(),
			"duration", st.Duration())
		r.record(state.RunID, st)
	}

	report.Finished = time.Now()
	return report, firstErr
}

// unmetDependency returns a skip reason when a dependency of the stage
// did not complete.
func (r *Runner) unmetDependency(stage Stage, states map[string]*StageState) string {
	for _, dep := range stage.Dependencies() {
		depState, ok := states[dep]
		if !ok {
			return fmt.Sprintf("dependency %s not found", dep)
		}
		if status := depState.GetStatus(); status != StageStatusCompleted {
			return fmt.Sprintf("dependency %s %s", dep, status)
		}
	}
	return ""
}

// skipRemaining marks every still-pending stage skipped after an abort.
func (r *Runner) skipRemaining(runID string, stages []Stage, states map[string]*StageState, failedID string) {
	for _, stage := range stages {
		st := states[stage.ID()]
		if st.GetStatus() == StageStatusPending {
			st.Skip(fmt.Sprintf("aborted after %s failed", failedID))
			r.record(runID, st)
		}
	}
}

func (r *Runner) record(runID string, st *StageState) {
	if r.progress == nil {
		return
	}
	if err := r.progress.Record(runID, st); err != nil {
		r.logger.Warn("failed to record progress",
			"run_id", runID,
			"stage", st.ID,
			"error", err)
	}
}
