package dockerengine

import (
	"bytes"
	"context"
	"io"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/volume"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/burenotti/runbox/pkg/models"
	"github.com/burenotti/runbox/pkg/rberrors"
)

// DockerEngine implements Engine against a real Docker daemon via the
// official SDK client, grounded on the teacher's
// internal/sandbox/v2/executor.go (which uses client.NewClientWithOpts +
// ContainerCreate/Start/Wait/Kill/Attach/Logs) rather than the teacher's
// older CLI-shelling internal/execution/container_sandbox.go.
type DockerEngine struct {
	cli *client.Client
}

// New constructs a DockerEngine. host may be empty to use the engine's
// environment-provided default (DOCKER_HOST or the local socket).
func New(host string) (*DockerEngine, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, &rberrors.EngineError{Op: "new_client", Err: err}
	}
	return &DockerEngine{cli: cli}, nil
}

func (e *DockerEngine) CreateContainer(ctx context.Context, spec ContainerSpec, name string) (ContainerHandle, error) {
	cfg := &container.Config{
		Image:        spec.Image,
		Cmd:          spec.Cmd,
		WorkingDir:   spec.WorkingDir,
		User:         spec.User,
		Env:          spec.Env,
		AttachStdin:  true,
		AttachStdout: true,
		AttachStderr: true,
		OpenStdin:    true,
		StdinOnce:    false,
		Tty:          false,
	}

	mounts := make([]mount.Mount, 0, len(spec.Mounts))
	for _, m := range spec.Mounts {
		mounts = append(mounts, mount.Mount{
			Type:     mount.TypeVolume,
			Source:   m.SourceVolume,
			Target:   m.Target,
			ReadOnly: m.ReadOnly,
		})
	}

	hostCfg := &container.HostConfig{
		Mounts: mounts,
		Resources: container.Resources{
			Memory:         spec.MemoryBytes,
			OomKillDisable: boolPtr(false),
		},
	}

	resp, err := e.cli.ContainerCreate(ctx, cfg, hostCfg, nil, nil, name)
	if err != nil {
		return ContainerHandle{}, &rberrors.EngineError{Op: "create_container", Err: err}
	}
	return ContainerHandle{ID: resp.ID}, nil
}

func boolPtr(b bool) *bool { return &b }

func (e *DockerEngine) StartContainer(ctx context.Context, id string) error {
	if err := e.cli.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return &rberrors.EngineError{Op: "start_container", Err: err}
	}
	return nil
}

func (e *DockerEngine) KillContainer(ctx context.Context, id string) error {
	if err := e.cli.ContainerKill(ctx, id, "KILL"); err != nil {
		return &rberrors.EngineError{Op: "kill_container", Err: err}
	}
	return nil
}

func (e *DockerEngine) DeleteContainer(ctx context.Context, id string, force bool) error {
	if err := e.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: force, RemoveVolumes: false}); err != nil {
		return &rberrors.EngineError{Op: "delete_container", Err: err}
	}
	return nil
}

func (e *DockerEngine) InspectContainer(ctx context.Context, id string) (RawState, error) {
	info, err := e.cli.ContainerInspect(ctx, id)
	if err != nil {
		return RawState{}, &rberrors.EngineError{Op: "inspect", Err: err}
	}
	raw := RawState{Status: info.State.Status, OOMKilled: info.State.OOMKilled}

	if startedAt, perr := time.Parse(time.RFC3339Nano, info.State.StartedAt); perr == nil && !startedAt.IsZero() {
		raw.StartedAt = startedAt
	}
	if !info.State.Running {
		if finishedAt, perr := time.Parse(time.RFC3339Nano, info.State.FinishedAt); perr == nil && !finishedAt.IsZero() {
			raw.FinishedAt = &finishedAt
		}
		code := info.State.ExitCode
		raw.ExitCode = &code
	}
	return raw, nil
}

func (e *DockerEngine) Wait(ctx context.Context, id string, timeout time.Duration) (WaitResult, error) {
	waitCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	statusCh, errCh := e.cli.ContainerWait(waitCtx, id, container.WaitConditionNotRunning)
	select {
	case <-waitCtx.Done():
		return WaitResult{}, &rberrors.TimeoutError{Op: "wait", Timeout: timeout.String()}
	case err := <-errCh:
		if err != nil {
			return WaitResult{}, &rberrors.EngineError{Op: "wait", Err: err}
		}
		return WaitResult{}, nil
	case status := <-statusCh:
		return WaitResult{ExitCode: int(status.StatusCode)}, nil
	}
}

func (e *DockerEngine) Attach(ctx context.Context, id string) (DuplexStream, error) {
	resp, err := e.cli.ContainerAttach(ctx, id, container.AttachOptions{
		Stream: true,
		Stdin:  true,
		Stdout: true,
		Stderr: true,
	})
	if err != nil {
		return nil, &rberrors.EngineError{Op: "attach", Err: err}
	}
	return &duplexStream{conn: resp.Conn, reader: resp.Reader}, nil
}

func (e *DockerEngine) PutArchive(ctx context.Context, id, directory string, tarBytes []byte) error {
	err := e.cli.CopyToContainer(ctx, id, directory, bytes.NewReader(tarBytes), container.CopyToContainerOptions{})
	if err != nil {
		return &rberrors.EngineError{Op: "put_archive", Err: err}
	}
	return nil
}

func (e *DockerEngine) ContainerLogs(ctx context.Context, id string, stdout, stderr bool) ([]string, error) {
	reader, err := e.cli.ContainerLogs(ctx, id, container.LogsOptions{ShowStdout: stdout, ShowStderr: stderr})
	if err != nil {
		return nil, &rberrors.EngineError{Op: "logs", Err: err}
	}
	defer reader.Close()

	var out, errOut bytes.Buffer
	if _, err := stdcopy.StdCopy(&out, &errOut, reader); err != nil && err != io.EOF {
		return nil, &rberrors.EngineError{Op: "logs", Err: err}
	}

	var lines []string
	if stdout {
		lines = append(lines, splitLines(out.String())...)
	}
	if stderr {
		lines = append(lines, splitLines(errOut.String())...)
	}
	return lines, nil
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func (e *DockerEngine) CreateVolume(ctx context.Context, name, driver string) (models.VolumeRef, error) {
	vol, err := e.cli.VolumeCreate(ctx, volume.CreateOptions{Name: name, Driver: driver})
	if err != nil {
		return models.VolumeRef{}, &rberrors.EngineError{Op: "create_volume", Err: err}
	}
	return models.VolumeRef{Name: vol.Name, Driver: vol.Driver}, nil
}

func (e *DockerEngine) DeleteVolume(ctx context.Context, name string) error {
	if err := e.cli.VolumeRemove(ctx, name, true); err != nil {
		return &rberrors.EngineError{Op: "delete_volume", Err: err}
	}
	return nil
}
