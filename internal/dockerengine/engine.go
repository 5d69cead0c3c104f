// Package dockerengine implements the Engine Client Adapter (§4.1): the
// thin, opaque capability surface the core needs from a container engine.
// Only this package knows Docker's field names; everything above it
// speaks in terms of ContainerSpec, RawState and StreamMessage.
package dockerengine

import (
	"context"
	"time"

	"github.com/burenotti/runbox/pkg/models"
)

// MountSpec is the engine-facing shape of a mount (§4.1: "must accept a
// mount list of {target, source_volume, type:\"volume\", readonly}").
type MountSpec struct {
	Target       string
	SourceVolume string
	ReadOnly     bool
}

// ContainerSpec is the engine-facing container creation config (§6).
type ContainerSpec struct {
	Image       string
	Cmd         []string
	WorkingDir  string
	User        string
	MemoryBytes int64
	Mounts      []MountSpec
	// Env holds "KEY=VALUE" entries, used by the package-cache mounts to
	// point a toolchain at its cache directory (e.g. GOCACHE, NPM_CONFIG_CACHE).
	Env []string
}

// ContainerHandle is returned by CreateContainer.
type ContainerHandle struct {
	ID string
}

// RawState is the engine's native inspect result, from which
// models.SandboxState is built (§4.1: "the adapter is the only place that
// knows engine-specific field names").
type RawState struct {
	Status     string
	ExitCode   *int
	StartedAt  time.Time
	FinishedAt *time.Time
	OOMKilled  bool
}

// ToSandboxState converts a RawState into the core's SandboxState. CPULimit
// is never set here — only the Sandbox (which owns the watchdog) knows it.
func (r RawState) ToSandboxState() models.SandboxState {
	return models.SandboxState{
		Status:      r.Status,
		ExitCode:    r.ExitCode,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
		MemoryLimit: r.OOMKilled,
	}
}

// WaitResult is the outcome of a container reaching a non-running state.
type WaitResult struct {
	ExitCode int
}

// StreamMessage is one demultiplexed frame from an attached duplex stream
// (§4.1: "outbound messages carry a stream-id tag (1=stdout, 2=stderr)").
type StreamMessage struct {
	StreamID int
	Data     []byte
}

// DuplexStream is a live, bidirectional connection to a running
// container's stdin/stdout/stderr.
type DuplexStream interface {
	// ReadMessage blocks for the next demultiplexed output frame. It
	// returns io.EOF once the container's output stream closes.
	ReadMessage() (StreamMessage, error)
	// WriteStdin sends raw bytes to the container's stdin.
	WriteStdin(data []byte) error
	Close() error
}

// Engine is the capability surface §4.1/§2 names. Implementations are
// opaque to the sandbox/pipeline layers.
type Engine interface {
	CreateContainer(ctx context.Context, spec ContainerSpec, name string) (ContainerHandle, error)
	StartContainer(ctx context.Context, id string) error
	KillContainer(ctx context.Context, id string) error
	DeleteContainer(ctx context.Context, id string, force bool) error
	InspectContainer(ctx context.Context, id string) (RawState, error)
	// Wait blocks until the container stops, or returns *rberrors.TimeoutError
	// once timeout elapses. It never kills the container itself (§4.1).
	Wait(ctx context.Context, id string, timeout time.Duration) (WaitResult, error)
	Attach(ctx context.Context, id string) (DuplexStream, error)
	PutArchive(ctx context.Context, id, directory string, tarBytes []byte) error
	ContainerLogs(ctx context.Context, id string, stdout, stderr bool) ([]string, error)
	CreateVolume(ctx context.Context, name, driver string) (models.VolumeRef, error)
	DeleteVolume(ctx context.Context, name string) error
}
