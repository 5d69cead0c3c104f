package pipeline

import (
	"context"
	"fmt"

	"github.com/burenotti/runbox/internal/sandbox"
	"github.com/burenotti/runbox/pkg/models"
	"github.com/burenotti/runbox/pkg/rberrors"
)

// WriteFilesParams is the write_files stage's declarative schema (§6).
type WriteFilesParams struct {
	Key      string                `json:"key" yaml:"key" validate:"required"`
	FileKeys []string              `json:"file_keys" yaml:"file_keys" validate:"required,min=1"`
	Volume   string                `json:"volume" yaml:"volume" validate:"required"`
	Profile  *models.DockerProfile `json:"profile,omitempty" yaml:"profile,omitempty"`
}

// DefaultWriteFilesProfile is the minimal profile write_files uses when
// none is given (§4.7: "minimal alpine image, workdir /tmp").
func DefaultWriteFilesProfile() models.DockerProfile {
	return models.DockerProfile{Image: "alpine:latest", Workdir: "/tmp"}
}

// WriteFiles gathers files from shared state, builds an ephemeral sandbox
// mounting the target volume, creates it (depositing the files) and
// immediately deletes it; the sandbox is never run (§4.7).
type WriteFiles struct {
	params     WriteFilesParams
	isSetup    bool
	isDisposed bool
}

func NewWriteFiles(params WriteFilesParams) *WriteFiles {
	if params.Profile == nil {
		profile := DefaultWriteFilesProfile()
		params.Profile = &profile
	}
	return &WriteFiles{params: params}
}

func (s *WriteFiles) Key() string      { return s.params.Key }
func (s *WriteFiles) Params() any      { return s.params }
func (s *WriteFiles) IsSetup() bool    { return s.isSetup }
func (s *WriteFiles) IsDisposed() bool { return s.isDisposed }

func collectFiles(keys []string, shared *SharedState) ([]models.File, error) {
	var out []models.File
	for _, key := range keys {
		art, ok := shared.Get(key)
		if !ok {
			return nil, &rberrors.ConfigError{Message: fmt.Sprintf("key %q is not present in shared state", key)}
		}
		if art.Files == nil {
			return nil, &rberrors.ConfigError{Message: fmt.Sprintf("value at key %q is not a file or list of files", key)}
		}
		out = append(out, art.Files...)
	}
	return out, nil
}

func (s *WriteFiles) Setup(ctx context.Context, state *BuildState) error {
	s.isSetup = true

	files, err := collectFiles(s.params.FileKeys, state.Shared)
	if err != nil {
		return err
	}

	volArt, ok := state.Shared.Get(s.params.Volume)
	if !ok || volArt.Volume == nil {
		return &rberrors.ConfigError{Message: fmt.Sprintf("key %q is not a volume", s.params.Volume)}
	}

	workdir := s.params.Profile.Workdir
	if workdir == "" {
		workdir = "/"
	}

	builder := sandbox.NewBuilder().
		WithProfile(*s.params.Profile).
		Mount(*volArt.Volume, workdir, false).
		AddFiles(files...)

	sb, err := builder.Create(ctx, state.Engine, state.Timeouts.CreateContainer)
	if err != nil {
		return err
	}
	return sb.Delete(ctx, false)
}

// Dispose is a no-op: the ephemeral sandbox is already deleted in Setup.
func (s *WriteFiles) Dispose(ctx context.Context) error {
	s.isDisposed = true
	return nil
}
