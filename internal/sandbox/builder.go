package sandbox

import (
	"context"
	"errors"
	"time"

	"github.com/burenotti/runbox/internal/dockerengine"
	"github.com/burenotti/runbox/pkg/models"
	"github.com/burenotti/runbox/pkg/rberrors"
)

const defaultCreateTimeout = 5 * time.Second

// Builder is an immutable, chainable Sandbox spec assembler (§4.5). Every
// With*/Add*/Mount call returns a new Builder holding a shallow copy of
// the mount and file lists; the underlying File/Mount values are
// themselves immutable.
type Builder struct {
	profile     models.DockerProfile
	limits      models.Limits
	files       []models.File
	mounts      []models.Mount
	env         []string
	nameFactory NameFactory
}

// NewBuilder returns a Builder with the spec's default limits and the
// random-uuid name factory.
func NewBuilder() Builder {
	return Builder{limits: models.DefaultLimits(), nameFactory: RandomName}
}

func (b Builder) WithProfile(p models.DockerProfile) Builder {
	b.profile = p
	return b
}

func (b Builder) WithLimits(l models.Limits) Builder {
	b.limits = l
	return b
}

func (b Builder) AddFiles(files ...models.File) Builder {
	b.files = append(append([]models.File{}, b.files...), files...)
	return b
}

func (b Builder) Mount(volume models.VolumeRef, bind string, readonly bool) Builder {
	b.mounts = append(append([]models.Mount{}, b.mounts...), models.Mount{
		Volume: volume, Bind: bind, ReadOnly: readonly,
	})
	return b
}

func (b Builder) WithNameFactory(f NameFactory) Builder {
	b.nameFactory = f
	return b
}

// WithEnv appends "KEY=VALUE" entries to the container's environment, used
// by the package-cache mounts to point a toolchain at its cache directory.
func (b Builder) WithEnv(env ...string) Builder {
	b.env = append(append([]string{}, b.env...), env...)
	return b
}

func toEngineMounts(mounts []models.Mount) []dockerengine.MountSpec {
	out := make([]dockerengine.MountSpec, 0, len(mounts))
	for _, m := range mounts {
		out = append(out, dockerengine.MountSpec{
			Target:       m.Bind,
			SourceVolume: m.Volume.Name,
			ReadOnly:     m.ReadOnly,
		})
	}
	return out
}

// Create composes the container creation config (§4.5/§6), allocates a
// unique name via the name factory, creates the container under an
// overall timeout bound, deposits files into the container's working
// directory via write_files, and returns a Sandbox wrapping it.
func (b Builder) Create(ctx context.Context, engine dockerengine.Engine, timeout time.Duration) (*Sandbox, error) {
	if timeout <= 0 {
		timeout = defaultCreateTimeout
	}

	argv, err := b.profile.ResolveCmd(b.files)
	if err != nil {
		return nil, err
	}

	spec := dockerengine.ContainerSpec{
		Image:       b.profile.Image,
		Cmd:         argv,
		WorkingDir:  b.profile.Workdir,
		User:        b.profile.User,
		MemoryBytes: b.limits.MemoryBytes(),
		Mounts:      toEngineMounts(b.mounts),
		Env:         b.env,
	}

	name := b.nameFactory()

	createCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	handle, err := engine.CreateContainer(createCtx, spec, name)
	if err != nil {
		if errors.Is(createCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &rberrors.TimeoutError{Op: "create_container", Timeout: timeout.String()}
		}
		return nil, err
	}

	sb := newSandbox(engine, handle.ID, b.limits)
	if err := sb.WriteFiles(ctx, b.profile.Workdir, b.files); err != nil {
		return nil, err
	}
	return sb, nil
}
