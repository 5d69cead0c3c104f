package pipeline

import (
	"fmt"
	"time"
)

// StageError is the base type for errors raised from a stage's setup
// (§6/§7). It carries the stage's key, its params, and a reference to the
// stage, so a test-harness layer can map engine outcomes to verdicts.
type StageError struct {
	Key    string
	Params any
	Stage  Stage
	msg    string
}

func (e *StageError) Error() string { return fmt.Sprintf("stage %q: %s", e.Key, e.msg) }

func newStageError(msg string, stage Stage) *StageError {
	return &StageError{Key: stage.Key(), Params: stage.Params(), Stage: stage, msg: msg}
}

// NonZeroExitCodeError reports a sandbox that exited with a non-zero code
// (§4.7 classification priority: memory_limit, then cpu_limit, then this).
type NonZeroExitCodeError struct {
	*StageError
	ExitCode int
}

func newNonZeroExitCodeError(exitCode int, stage Stage) *NonZeroExitCodeError {
	return &NonZeroExitCodeError{
		StageError: newStageError(fmt.Sprintf("sandbox finished with non-zero exit code (%d)", exitCode), stage),
		ExitCode:   exitCode,
	}
}

// CpuLimitError reports a sandbox killed by the wall-clock watchdog.
type CpuLimitError struct {
	*StageError
	Limit time.Duration
}

func newCpuLimitError(limit time.Duration, stage Stage) *CpuLimitError {
	return &CpuLimitError{
		StageError: newStageError(fmt.Sprintf("sandbox has been killed due to time limit >%s", limit), stage),
		Limit:      limit,
	}
}

// MemoryLimitError reports a sandbox killed by the engine's OOM killer.
type MemoryLimitError struct {
	*StageError
	LimitMB int
}

func newMemoryLimitError(limitMB int, stage Stage) *MemoryLimitError {
	return &MemoryLimitError{
		StageError: newStageError(fmt.Sprintf("sandbox has been killed due to memory limit >%dMB", limitMB), stage),
		LimitMB:    limitMB,
	}
}
