package pipeline

import (
	"context"

	"github.com/burenotti/runbox/internal/sandbox"
	"github.com/burenotti/runbox/pkg/models"
)

// UseVolumeParams is the use_volume stage's declarative schema (§6).
//
// ExistingName, when set, attaches to an already-live volume instead of
// creating a fresh one (SUPPLEMENTED FEATURES: pre-seeded volume reuse);
// the scope does not delete it on Dispose.
type UseVolumeParams struct {
	Key          string `json:"key" yaml:"key" validate:"required"`
	ExistingName string `json:"existing_name,omitempty" yaml:"existing_name,omitempty"`
	Driver       string `json:"driver,omitempty" yaml:"driver,omitempty"`
}

// UseVolume opens a Volume Scope on Setup, publishing its ref to
// shared[key]; Dispose closes the scope and removes the key (§4.7).
type UseVolume struct {
	params     UseVolumeParams
	isSetup    bool
	isDisposed bool
	shared     *SharedState
	scope      *sandbox.VolumeScope
}

func NewUseVolume(params UseVolumeParams) *UseVolume {
	return &UseVolume{params: params}
}

func (s *UseVolume) Key() string      { return s.params.Key }
func (s *UseVolume) Params() any      { return s.params }
func (s *UseVolume) IsSetup() bool    { return s.isSetup }
func (s *UseVolume) IsDisposed() bool { return s.isDisposed }

func (s *UseVolume) Setup(ctx context.Context, state *BuildState) error {
	s.isSetup = true
	s.shared = state.Shared

	driver := s.params.Driver
	if driver == "" {
		driver = "local"
	}

	var scope *sandbox.VolumeScope
	if s.params.ExistingName != "" {
		scope = sandbox.AttachVolume(state.Engine, models.VolumeRef{Name: s.params.ExistingName, Driver: driver})
	} else {
		opened, err := sandbox.OpenVolume(ctx, state.Engine, "", driver, state.Timeouts.VolumeOpen, sandbox.RandomName)
		if err != nil {
			return err
		}
		scope = opened
	}
	s.scope = scope

	ref := scope.Ref()
	state.Shared.Set(s.params.Key, Artifact{Volume: &ref})
	return nil
}

func (s *UseVolume) Dispose(ctx context.Context) error {
	s.isDisposed = true
	if s.scope != nil {
		s.scope.Close(ctx)
	}
	if s.shared != nil {
		s.shared.Delete(s.params.Key)
	}
	return nil
}
