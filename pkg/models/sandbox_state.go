package models

import "time"

// UnknownDuration is the sentinel returned by SandboxState.Duration when
// the container has not finished yet (§3: "else a sentinel \"unknown\"").
const UnknownDuration time.Duration = -1

// SandboxState is a point-in-time snapshot of a container's lifecycle
// (§3). At most one of MemoryLimit and CPULimit is true; a normal exit has
// both false and ExitCode populated.
type SandboxState struct {
	Status     string
	ExitCode   *int
	StartedAt  time.Time
	FinishedAt *time.Time
	// MemoryLimit reflects the engine's own OOM-kill flag, verbatim.
	MemoryLimit bool
	// CPULimit reflects this core's wall-clock watchdog kill, not a
	// cgroup CPU quota — the engine has no notion of this flag.
	CPULimit bool
}

// Duration returns FinishedAt - StartedAt, or UnknownDuration if the
// container has not finished.
func (s SandboxState) Duration() time.Duration {
	if s.FinishedAt == nil {
		return UnknownDuration
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
