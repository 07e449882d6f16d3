package pipeline

import (
	"context"
	"sync"
	"time"
)

// Stage is one unit of pipeline work. Critical stages abort the run on
// failure; analysis stages log their error and let independent work
// continue, with dependent stages skipped.
type Stage interface {
	// ID returns the unique identifier for this stage.
	ID() string

	// Name returns the human-readable name for this stage.
	Name() string

	// Dependencies returns the IDs of stages that must complete first.
	Dependencies() []string

	// Critical reports whether a failure must abort the whole run.
	Critical() bool

	// Run executes the stage against the shared run state.
	Run(ctx context.Context, state *State) error
}

// StageStatus is the lifecycle state of a stage within a run.
type StageStatus string

const (
	StageStatusPending   StageStatus = "pending"
	StageStatusActive    StageStatus = "active"
	StageStatusCompleted StageStatus = "completed"
	StageStatusFailed    StageStatus = "failed"
	StageStatusSkipped   StageStatus = "skipped"
)

// StageState is the runtime record of one stage in one run.
type StageState struct {
	mu        sync.RWMutex
	ID        string
	Name      string
	Status    StageStatus
	StartTime time.Time
	EndTime   time.Time
	Message   string
	Err       error
}

// NewStageState creates a pending stage record.
func NewStageState(id, name string) *StageState {
	return &StageState{ID: id, Name: name, Status: StageStatusPending}
}

// Start marks the stage active.
func (s *StageState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = StageStatusActive
	s.StartTime = time.Now()
}

// Complete marks the stage completed.
func (s *StageState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = StageStatusCompleted
	s.EndTime = time.Now()
}

// Fail marks the stage failed with its error.
func (s *StageState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = StageStatusFailed
	s.EndTime = time.Now()
	s.Err = err
	if err != nil {
		s.Message = err.Error()
	}
}

// Skip marks the stage skipped with a reason.
func (s *StageState) Skip(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = StageStatusSkipped
	s.EndTime = time.Now()
	s.Message = reason
}

// GetStatus returns the current status.
func (s *StageState) GetStatus() StageStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// Duration returns the elapsed time of a finished stage.
func (s *StageState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.StartTime.IsZero() || s.EndTime.IsZero() {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}
