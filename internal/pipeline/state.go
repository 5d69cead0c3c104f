// Package pipeline implements the declarative multi-stage pipeline (§4.7,
// §4.8): Stage, Group, Pipeline, the shared keyed state passed between
// stages, and the three core stage kinds.
package pipeline

import (
	"sync"
	"time"

	"github.com/burenotti/runbox/internal/dockerengine"
	"github.com/burenotti/runbox/internal/sandbox"
	"github.com/burenotti/runbox/pkg/models"
)

// StreamID distinguishes stdout (1) from stderr (2) observer messages (§6).
type StreamID int

const (
	Stdout StreamID = 1
	Stderr StreamID = 2
)

// Observer receives per-message output from an attached sandbox and
// supplies stdin chunks (§6/§4.7). Stdin is a lazy, possibly-empty,
// possibly-infinite-until-closed sequence of text chunks.
type Observer interface {
	Stdin() <-chan string
	WriteOutput(key string, data string, stream StreamID)
}

// Artifact is the tagged variant shared state entries hold (§9): stages
// publish borrowed Volume/Sandbox/Files references that later stages may
// read but must not dispose — ownership stays with the publishing stage.
// Exactly one field is populated per artifact.
type Artifact struct {
	Volume  *models.VolumeRef
	Sandbox *sandbox.Sandbox
	Files   []models.File
}

// SharedState is a mapping from string keys to opaque Artifacts (§3). Keys
// are stage-parameter-chosen; the pipeline does not interpret them.
type SharedState struct {
	mu   sync.RWMutex
	data map[string]Artifact
}

// NewSharedState returns an empty SharedState.
func NewSharedState() *SharedState {
	return &SharedState{data: make(map[string]Artifact)}
}

func (s *SharedState) Get(key string) (Artifact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.data[key]
	return a, ok
}

func (s *SharedState) Set(key string, a Artifact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = a
}

func (s *SharedState) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// Timeouts carries the runtime-configurable bounds stage Setup applies to
// engine create_container/create_volume calls (internal/config's
// RUNBOX_CREATE_TIMEOUT/RUNBOX_VOLUME_TIMEOUT). A zero field falls back to
// the sandbox package's own defaults (§4.5/§4.6).
type Timeouts struct {
	CreateContainer time.Duration
	VolumeOpen      time.Duration
}

// BuildState is threaded through all stages of one pipeline execution
// (§3): the engine adapter, an optional observer, and shared state.
type BuildState struct {
	Engine   dockerengine.Engine
	Observer Observer
	Shared   *SharedState
	Timeouts Timeouts

	// PackageCache is optional; nil (or disabled) means use_sandbox's
	// Language field mounts nothing (SUPPLEMENTED FEATURES).
	PackageCache *sandbox.PackageCache
}
