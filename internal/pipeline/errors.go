package pipeline

import "fmt"

// StageError wraps a stage failure with the stage it came from and
// whether the failure aborted the run. Stage failures are never retried;
// a rerun of the pipeline is the recovery path.
type StageError struct {
	StageID  string
	Critical bool
	Err      error
}

func (e *StageError) Error() string {
	if e.Critical {
		return fmt.Sprintf("critical stage %s failed: %v", e.StageID, e.Err)
	}
	return fmt.Sprintf("stage %s failed: %v", e.StageID, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
