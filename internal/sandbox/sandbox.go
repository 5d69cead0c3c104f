// Package sandbox implements the Sandbox (§4.4), Sandbox Builder (§4.5),
// and Volume Scope (§4.6): the stateful container handle, its immutable
// spec assembler, and scoped ephemeral-volume acquisition.
package sandbox

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/burenotti/runbox/internal/dockerengine"
	"github.com/burenotti/runbox/internal/logging"
	"github.com/burenotti/runbox/internal/tarutil"
	"github.com/burenotti/runbox/pkg/models"
	"github.com/burenotti/runbox/pkg/rberrors"
)

type lifecycleState int32

const (
	stateCreated lifecycleState = iota
	stateRunning
	stateTerminated
	stateDeleted
)

type watchdogOutcome struct {
	res dockerengine.WaitResult
	err error
}

// Sandbox is a stateful handle around one created container (§4.4). It
// owns its duplex stream, its wall-clock watchdog, and its termination
// classification. State machine: created -> running -> terminated ->
// deleted; kill from running forces terminated.
type Sandbox struct {
	engine      dockerengine.Engine
	containerID string
	limits      models.Limits

	mu       sync.Mutex
	state    lifecycleState
	stream   dockerengine.DuplexStream
	cpuLimit bool
	watchdog chan watchdogOutcome
}

func newSandbox(engine dockerengine.Engine, containerID string, limits models.Limits) *Sandbox {
	return &Sandbox{engine: engine, containerID: containerID, limits: limits, state: stateCreated}
}

// ContainerID returns the underlying engine container id.
func (s *Sandbox) ContainerID() string { return s.containerID }

// Run starts the container, attaches a duplex stream, optionally writes
// stdin immediately, and starts the wall-clock watchdog (§4.4). Preconditions:
// not already running.
func (s *Sandbox) Run(ctx context.Context, stdin []byte) (dockerengine.DuplexStream, error) {
	s.mu.Lock()
	if s.state != stateCreated {
		s.mu.Unlock()
		return nil, &rberrors.SandboxError{Message: "already running"}
	}
	s.state = stateRunning
	s.cpuLimit = false
	s.mu.Unlock()

	if err := s.engine.StartContainer(ctx, s.containerID); err != nil {
		return nil, err
	}

	stream, err := s.engine.Attach(ctx, s.containerID)
	if err != nil {
		return nil, err
	}

	if len(stdin) > 0 {
		if err := stream.WriteStdin(stdin); err != nil {
			return nil, err
		}
	}

	watchdog := make(chan watchdogOutcome, 1)
	s.mu.Lock()
	s.stream = stream
	s.watchdog = watchdog
	s.mu.Unlock()

	go func() {
		res, err := s.engine.Wait(context.Background(), s.containerID, s.limits.Time)
		watchdog <- watchdogOutcome{res: res, err: err}
	}()

	return stream, nil
}

// Wait blocks until the watchdog completes (§4.4). If the watchdog reports
// TimeoutError, the sandbox kills the container (suppressing any secondary
// engine error — the container may have exited moments earlier) and sets
// cpu_limit. Calling Wait a second time without an intervening Run returns
// a SandboxError ("not running").
func (s *Sandbox) Wait(ctx context.Context) error {
	s.mu.Lock()
	watchdog := s.watchdog
	s.mu.Unlock()
	if watchdog == nil {
		return &rberrors.SandboxError{Message: "not running"}
	}

	outcome := <-watchdog

	s.mu.Lock()
	s.watchdog = nil
	s.mu.Unlock()

	var timeoutErr *rberrors.TimeoutError
	if errors.As(outcome.err, &timeoutErr) {
		if err := s.engine.KillContainer(context.Background(), s.containerID); err != nil {
			logging.L().Debug("suppressed kill error racing natural exit",
				logging.Container(s.containerID), zap.Error(err))
		}
		s.mu.Lock()
		s.cpuLimit = true
		s.state = stateTerminated
		s.mu.Unlock()
		return nil
	}

	s.mu.Lock()
	s.state = stateTerminated
	s.mu.Unlock()

	return outcome.err
}

// State inspects the container and overlays this sandbox's own cpu_limit
// flag, which the engine has no notion of (§4.4).
func (s *Sandbox) State(ctx context.Context) (models.SandboxState, error) {
	raw, err := s.engine.InspectContainer(ctx, s.containerID)
	if err != nil {
		return models.SandboxState{}, err
	}
	s.mu.Lock()
	cpuLimit := s.cpuLimit
	s.mu.Unlock()

	st := raw.ToSandboxState()
	st.CPULimit = cpuLimit
	return st, nil
}

// Log retrieves buffered container logs from the engine (§4.4), for
// callers that did not consume the live attached stream.
func (s *Sandbox) Log(ctx context.Context, stdout, stderr bool) ([]string, error) {
	return s.engine.ContainerLogs(ctx, s.containerID, stdout, stderr)
}

// Kill is a direct engine pass-through (§4.4).
func (s *Sandbox) Kill(ctx context.Context) error {
	s.mu.Lock()
	s.state = stateTerminated
	s.mu.Unlock()
	return s.engine.KillContainer(ctx, s.containerID)
}

// Delete is a direct engine pass-through (§4.4).
func (s *Sandbox) Delete(ctx context.Context, force bool) error {
	s.mu.Lock()
	s.state = stateDeleted
	s.mu.Unlock()
	return s.engine.DeleteContainer(ctx, s.containerID, force)
}

// WriteFiles is a thin wrapper over the File Packager plus engine
// put_archive (§4.4).
func (s *Sandbox) WriteFiles(ctx context.Context, directory string, files []models.File) error {
	data, err := tarutil.BuildArchive(files)
	if err != nil {
		return err
	}
	return s.engine.PutArchive(ctx, s.containerID, directory, data)
}

// Scope runs fn with the sandbox, then deletes the container
// unconditionally (§4.4: "entering scope returns the same handle; exiting
// scope calls delete() unconditionally").
func (s *Sandbox) Scope(ctx context.Context, fn func(*Sandbox) error) error {
	fnErr := fn(s)
	delErr := s.Delete(ctx, false)
	if fnErr != nil {
		return fnErr
	}
	return delErr
}
