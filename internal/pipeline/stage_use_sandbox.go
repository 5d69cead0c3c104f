package pipeline

import (
	"context"

	"github.com/burenotti/runbox/internal/dockerengine"
	"github.com/burenotti/runbox/internal/sandbox"
	"github.com/burenotti/runbox/pkg/models"
	"github.com/burenotti/runbox/pkg/rberrors"
)

// SandboxMountParams is one entry of use_sandbox's mounts list (§6).
type SandboxMountParams struct {
	Key      string `json:"key" yaml:"key" validate:"required"`
	Bind     string `json:"bind" yaml:"bind" validate:"required"`
	ReadOnly bool   `json:"readonly,omitempty" yaml:"readonly,omitempty"`
}

// UseSandboxParams is the use_sandbox stage's declarative schema (§6).
type UseSandboxParams struct {
	Key     string                `json:"key" yaml:"key" validate:"required"`
	Profile models.DockerProfile  `json:"profile" yaml:"profile" validate:"required"`
	Limits  *models.Limits        `json:"limits,omitempty" yaml:"limits,omitempty"`
	Files   []models.File         `json:"files,omitempty" yaml:"files,omitempty"`
	Mounts  []SandboxMountParams  `json:"mounts,omitempty" yaml:"mounts,omitempty"`
	// Attach defaults to true (§6: "attach?: true") when nil; a pointer is
	// needed to tell "omitted" from "explicitly false".
	Attach *bool `json:"attach,omitempty" yaml:"attach,omitempty"`
	// Language, when set and the build's PackageCache is enabled, mounts
	// that language's package cache volumes into the sandbox (SUPPLEMENTED
	// FEATURES: package cache mounts).
	Language string `json:"language,omitempty" yaml:"language,omitempty"`
}

// UseSandbox builds, runs, optionally attaches to, waits on, and
// classifies a sandbox, publishing it to shared state on success (§4.7).
type UseSandbox struct {
	params     UseSandboxParams
	isSetup    bool
	isDisposed bool

	shared *SharedState
	sb     *sandbox.Sandbox

	cancelInput context.CancelFunc
	outputDone  chan struct{}
	inputDone   chan struct{}
}

func NewUseSandbox(params UseSandboxParams) *UseSandbox {
	if params.Limits == nil {
		limits := models.DefaultLimits()
		params.Limits = &limits
	}
	if params.Attach == nil {
		params.Attach = boolPtr(true)
	}
	return &UseSandbox{params: params}
}

func boolPtr(b bool) *bool { return &b }

func (s *UseSandbox) Key() string      { return s.params.Key }
func (s *UseSandbox) Params() any      { return s.params }
func (s *UseSandbox) IsSetup() bool    { return s.isSetup }
func (s *UseSandbox) IsDisposed() bool { return s.isDisposed }

func (s *UseSandbox) Setup(ctx context.Context, state *BuildState) error {
	s.isSetup = true
	s.shared = state.Shared

	if *s.params.Attach && state.Observer == nil {
		return newStageError("can't attach without observer", s)
	}

	builder := sandbox.NewBuilder().
		WithLimits(*s.params.Limits).
		WithProfile(s.params.Profile).
		AddFiles(s.params.Files...)

	for _, m := range s.params.Mounts {
		art, ok := state.Shared.Get(m.Key)
		if !ok || art.Volume == nil {
			return &rberrors.ConfigError{Message: "mount key \"" + m.Key + "\" is not a volume"}
		}
		builder = builder.Mount(*art.Volume, m.Bind, m.ReadOnly)
	}

	if s.params.Language != "" && state.PackageCache.Enabled() {
		builder = state.PackageCache.Apply(builder, state.PackageCache.MountsForLanguage(s.params.Language))
	}

	sb, err := builder.Create(ctx, state.Engine, state.Timeouts.CreateContainer)
	if err != nil {
		return err
	}
	s.sb = sb

	stream, err := sb.Run(ctx, nil)
	if err != nil {
		return err
	}

	if *s.params.Attach {
		inputCtx, cancel := context.WithCancel(context.Background())
		s.cancelInput = cancel
		s.outputDone = make(chan struct{})
		s.inputDone = make(chan struct{})
		go s.runOutputListener(stream, state.Observer)
		go s.runInputListener(inputCtx, stream, state.Observer)
	}

	if err := sb.Wait(ctx); err != nil {
		return err
	}

	result, err := sb.State(ctx)
	if err != nil {
		return err
	}

	switch {
	case result.MemoryLimit:
		return newMemoryLimitError(s.params.Limits.MemoryMB, s)
	case result.CPULimit:
		return newCpuLimitError(s.params.Limits.Time, s)
	case result.ExitCode != nil && *result.ExitCode != 0:
		return newNonZeroExitCodeError(*result.ExitCode, s)
	}

	state.Shared.Set(s.params.Key, Artifact{Sandbox: sb})
	return nil
}

// runOutputListener consumes demultiplexed frames and forwards each as a
// UTF-8 decoded message to the observer (§4.7 output listener).
func (s *UseSandbox) runOutputListener(stream dockerengine.DuplexStream, obs Observer) {
	defer close(s.outputDone)
	for {
		msg, err := stream.ReadMessage()
		if err != nil {
			return
		}
		obs.WriteOutput(s.params.Key, string(msg.Data), StreamID(msg.StreamID))
	}
}

// runInputListener drains the observer's stdin source onto the stream
// until it closes or the stage cancels it during dispose (§4.7 input
// listener).
func (s *UseSandbox) runInputListener(ctx context.Context, stream dockerengine.DuplexStream, obs Observer) {
	defer close(s.inputDone)
	for {
		select {
		case <-ctx.Done():
			return
		case chunk, ok := <-obs.Stdin():
			if !ok {
				return
			}
			if err := stream.WriteStdin([]byte(chunk)); err != nil {
				return
			}
		}
	}
}

// Dispose removes the published artifact, deletes the container, cancels
// the input listener eagerly, and awaits output listener drain (§4.7).
func (s *UseSandbox) Dispose(ctx context.Context) error {
	s.isDisposed = true

	if s.shared != nil {
		s.shared.Delete(s.params.Key)
	}

	var deleteErr error
	if s.sb != nil {
		deleteErr = s.sb.Delete(ctx, false)
	}

	if s.cancelInput != nil {
		s.cancelInput()
	}
	if s.outputDone != nil {
		<-s.outputDone
	}
	if s.inputDone != nil {
		<-s.inputDone
	}

	return deleteErr
}
