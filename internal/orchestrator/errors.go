// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrator

import "fmt"

// Stage names the pipeline stage an error came from. The caller
// always learns which stage failed; recoverable stage failures are
// absorbed before they reach the caller.
type Stage string

const (
	StageUnderstanding Stage = "understanding"
	StagePlanning      Stage = "planning"
	StageExecution     Stage = "execution"
	StageSynthesis     Stage = "synthesis"
	StageContent       Stage = "content"
)

// StageError wraps a pipeline failure with the stage it occurred in.
type StageError struct {
	Stage Stage
	Topic string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed for %q: %v", e.Stage, e.Topic, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
