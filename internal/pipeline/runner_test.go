package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStage is a scriptable stage for runner tests.
type fakeStage struct {
	id       string
	deps     []string
	critical bool
	err      error
	ran      *[]string
}

func (f *fakeStage) ID() string             { return f.id }
func (f *fakeStage) Name() string           { return f.id }
func (f *fakeStage) Dependencies() []string { return f.deps }
func (f *fakeStage) Critical() bool         { return f.critical }

func (f *fakeStage) Run(ctx context.Context, state *State) error {
	if f.ran != nil {
		*f.ran = append(*f.ran, f.id)
	}
	return f.err
}

func buildRegistry(t *testing.T, stages ...Stage) *Registry {
	t.Helper()
	reg := NewRegistry()
	for _, s := range stages {
		require.NoError(t, reg.Register(s))
	}
	return reg
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&fakeStage{id: "a"}))
	assert.Error(t, reg.Register(&fakeStage{id: "a"}))
	assert.Error(t, reg.Register(nil))
	assert.Error(t, reg.Register(&fakeStage{id: ""}))
}

func TestDependencyOrder(t *testing.T) {
	// Registered out of order; dependencies must still resolve.
	reg := buildRegistry(t,
		&fakeStage{id: "export", deps: []string{"predict"}},
		&fakeStage{id: "predict", deps: []string{"build"}},
		&fakeStage{id: "build", deps: []string{"import"}},
		&fakeStage{id: "import"},
	)

	ordered, err := reg.DependencyOrder()
	require.NoError(t, err)

	ids := make([]string, len(ordered))
	for i, s := range ordered {
		ids[i] = s.ID()
	}
	assert.Equal(t, []string{"import", "build", "predict", "export"}, ids)
}

func TestDependencyOrderDetectsCycle(t *testing.T) {
	reg := buildRegistry(t,
		&fakeStage{id: "a", deps: []string{"b"}},
		&fakeStage{id: "b", deps: []string{"a"}},
	)
	_, err := reg.DependencyOrder()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestDependencyOrderUnknownDependency(t *testing.T) {
	reg := buildRegistry(t, &fakeStage{id: "a", deps: []string{"ghost"}})
	_, err := reg.DependencyOrder()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestRunnerHappyPath(t *testing.T) {
	var ran []string
	reg := buildRegistry(t,
		&fakeStage{id: "a", ran: &ran},
		&fakeStage{id: "b", deps: []string{"a"}, ran: &ran},
	)

	report, err := NewRunner(reg).Run(context.Background(), NewState())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ran)
	assert.Empty(t, report.Failed)
	for _, st := range report.Stages {
		assert.Equal(t, StageStatusCompleted, st.GetStatus())
	}
	assert.NotEmpty(t, report.RunID)
}

func TestRunnerCriticalFailureAborts(t *testing.T) {
	var ran []string
	boom := errors.New("boom")
	reg := buildRegistry(t,
		&fakeStage{id: "a", critical: true, err: boom, ran: &ran},
		&fakeStage{id: "b", deps: []string{"a"}, ran: &ran},
		&fakeStage{id: "c", ran: &ran},
	)

	report, err := NewRunner(reg).Run(context.Background(), NewState())
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "a", stageErr.StageID)
	assert.True(t, stageErr.Critical)
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, []string{"a"}, ran, "abort must stop independent stages too")
	assert.Equal(t, StageStatusSkipped, report.Stages[1].GetStatus())
	assert.Equal(t, StageStatusSkipped, report.Stages[2].GetStatus())
}

func TestRunnerAnalysisFailureContinues(t *testing.T) {
	var ran []string
	reg := buildRegistry(t,
		&fakeStage{id: "build", critical: true, ran: &ran},
		&fakeStage{id: "descriptives", deps: []string{"build"}, err: errors.New("bad table"), ran: &ran},
		&fakeStage{id: "predict", deps: []string{"build"}, ran: &ran},
		&fakeStage{id: "export", deps: []string{"predict"}, ran: &ran},
	)

	report, err := NewRunner(reg).Run(context.Background(), NewState())
	require.Error(t, err, "the failure still surfaces")
	assert.Equal(t, []string{"build", "descriptives", "predict", "export"}, ran)
	assert.Equal(t, []string{"descriptives"}, report.Failed)
	assert.Equal(t, StageStatusCompleted, report.Stages[3].GetStatus())
}

func TestRunnerSkipsDependentsOfFailedStage(t *testing.T) {
	var ran []string
	reg := buildRegistry(t,
		&fakeStage{id: "predict", err: errors.New("no fit"), ran: &ran},
		&fakeStage{id: "export", deps: []string{"predict"}, ran: &ran},
	)

	report, err := NewRunner(reg).Run(context.Background(), NewState())
	require.Error(t, err)
	assert.Equal(t, []string{"predict"}, ran)
	assert.Equal(t, StageStatusSkipped, report.Stages[1].GetStatus())
	assert.Contains(t, report.Stages[1].Message, "predict")
}

func TestRunnerContinueOnErrorOff(t *testing.T) {
	var ran []string
	reg := buildRegistry(t,
		&fakeStage{id: "a", err: errors.New("halt"), ran: &ran},
		&fakeStage{id: "b", ran: &ran},
	)

	_, err := NewRunner(reg, WithContinueOnError(false)).Run(context.Background(), NewState())
	require.Error(t, err)
	assert.Equal(t, []string{"a"}, ran)
}

func TestRunnerProgressLog(t *testing.T) {
	dir := t.TempDir()
	reg := buildRegistry(t,
		&fakeStage{id: "a"},
		&fakeStage{id: "b", deps: []string{"a"}, err: errors.New("nope")},
	)

	state := NewState()
	runner := NewRunner(reg, WithProgressLog(NewProgressLog(dir)))
	_, err := runner.Run(context.Background(), state)
	require.Error(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "progress.csv"))
	require.NoError(t, err)
	content := string(data)

	lines := strings.Split(strings.TrimSpace(content), "\n")
	require.Len(t, lines, 3, "header plus one row per stage")
	assert.Contains(t, lines[0], "run_id")
	assert.Contains(t, content, state.RunID)
	assert.Contains(t, content, "completed")
	assert.Contains(t, content, "failed")
}

func TestRunnerCancelledContext(t *testing.T) {
	var ran []string
	reg := buildRegistry(t, &fakeStage{id: "a", ran: &ran})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewRunner(reg).Run(ctx, NewState())
	require.Error(t, err)
	assert.Empty(t, ran)
	assert.Equal(t, StageStatusSkipped, report.Stages[0].GetStatus())
}

func TestStageErrorFormatting(t *testing.T) {
	err := &StageError{StageID: "import", Critical: true, Err: fmt.Errorf("missing file")}
	assert.Contains(t, err.Error(), "critical stage import")
	assert.Contains(t, err.Error(), "missing file")
}
