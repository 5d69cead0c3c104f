package pipeline_test

import (
	"context"
	"sync"
	"time"

	"github.com/burenotti/runbox/internal/dockerengine"
	"github.com/burenotti/runbox/pkg/models"
)

// fakeEngine is an in-memory dockerengine.Engine exercising the pipeline's
// Setup/Dispose/classification logic without a live Docker daemon.
type fakeEngine struct {
	mu sync.Mutex

	nextID    int
	exitCode  int
	oomKilled bool
	volumes   map[string]models.VolumeRef

	createErr error

	lastCreateContainerDeadline time.Time
	lastCreateVolumeDeadline    time.Time
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{volumes: map[string]models.VolumeRef{}}
}

func (f *fakeEngine) CreateContainer(ctx context.Context, spec dockerengine.ContainerSpec, name string) (dockerengine.ContainerHandle, error) {
	f.mu.Lock()
	if deadline, ok := ctx.Deadline(); ok {
		f.lastCreateContainerDeadline = deadline
	}
	f.mu.Unlock()
	if f.createErr != nil {
		return dockerengine.ContainerHandle{}, f.createErr
	}
	f.mu.Lock()
	f.nextID++
	id := name
	f.mu.Unlock()
	return dockerengine.ContainerHandle{ID: id}, nil
}

func (f *fakeEngine) StartContainer(ctx context.Context, id string) error { return nil }
func (f *fakeEngine) KillContainer(ctx context.Context, id string) error  { return nil }
func (f *fakeEngine) DeleteContainer(ctx context.Context, id string, force bool) error {
	return nil
}

func (f *fakeEngine) InspectContainer(ctx context.Context, id string) (dockerengine.RawState, error) {
	exit := f.exitCode
	return dockerengine.RawState{Status: "exited", ExitCode: &exit, OOMKilled: f.oomKilled}, nil
}

func (f *fakeEngine) Wait(ctx context.Context, id string, timeout time.Duration) (dockerengine.WaitResult, error) {
	return dockerengine.WaitResult{ExitCode: f.exitCode}, nil
}

func (f *fakeEngine) Attach(ctx context.Context, id string) (dockerengine.DuplexStream, error) {
	return &fakeStream{}, nil
}

func (f *fakeEngine) PutArchive(ctx context.Context, id, directory string, tarBytes []byte) error {
	return nil
}

func (f *fakeEngine) ContainerLogs(ctx context.Context, id string, stdout, stderr bool) ([]string, error) {
	return nil, nil
}

func (f *fakeEngine) CreateVolume(ctx context.Context, name, driver string) (models.VolumeRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if deadline, ok := ctx.Deadline(); ok {
		f.lastCreateVolumeDeadline = deadline
	}
	ref := models.VolumeRef{Name: name, Driver: driver}
	f.volumes[name] = ref
	return ref, nil
}

func (f *fakeEngine) DeleteVolume(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.volumes, name)
	return nil
}

type fakeStream struct{}

func (s *fakeStream) ReadMessage() (dockerengine.StreamMessage, error) {
	return dockerengine.StreamMessage{}, context.Canceled
}
func (s *fakeStream) WriteStdin(data []byte) error { return nil }
func (s *fakeStream) Close() error                 { return nil }
