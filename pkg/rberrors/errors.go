// Package rberrors defines the error kinds visible to callers of the
// runbox core (§6/§7): ConfigError, EngineError, TimeoutError, and
// SandboxError. StageError and its classification subclasses live in
// package pipeline, since they carry a reference to the raising stage.
package rberrors

import "fmt"

// ConfigError reports a problem detected before any engine resource was
// acquired: a malformed pipeline document, an unknown stage kind, invalid
// stage params, or a cmd_template placeholder/splat resolution failure.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string { return "config error: " + e.Message }

// EngineError wraps a failure surfaced by the container engine adapter.
type EngineError struct {
	Op  string
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine error during %s: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// TimeoutError reports that a bounded engine call did not complete before
// its deadline. wait(container, timeout) classifies this outcome rather
// than raising it (§4.4); create_container raises it (§5).
type TimeoutError struct {
	Op      string
	Timeout string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Op, e.Timeout)
}

// SandboxError reports a Sandbox state-machine violation, e.g. run() on an
// already-running sandbox, or wait() on one that was never run (§4.4).
type SandboxError struct {
	Message string
}

func (e *SandboxError) Error() string { return "sandbox error: " + e.Message }
