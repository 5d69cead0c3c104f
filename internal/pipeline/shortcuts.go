package pipeline

import (
	"context"

	"github.com/burenotti/runbox/internal/dockerengine"
	"github.com/burenotti/runbox/pkg/models"
)

// Execute runs a single UseSandbox stage in a one-stage "run" group and
// returns its final SandboxState plus collected stdout/stderr, for callers
// that don't need a full declarative document. Grounded on the original
// implementation's shortucts.py convenience entry point.
func Execute(ctx context.Context, engine dockerengine.Engine, profile models.DockerProfile, limits models.Limits, files ...models.File) (models.SandboxState, []string, error) {
	p := NewPipeline().WithExecutor(engine)
	stage := NewUseSandbox(UseSandboxParams{
		Key:     "main",
		Profile: profile,
		Limits:  &limits,
		Files:   files,
		Attach:  boolPtr(false),
	})
	p.AddStages("run", stage)

	defer p.Finalize(ctx)

	if err := p.ExecuteGroup(ctx, "run"); err != nil {
		return models.SandboxState{}, nil, err
	}

	art, _ := p.shared.Get("main")
	state, err := art.Sandbox.State(ctx)
	if err != nil {
		return models.SandboxState{}, nil, err
	}
	lines, err := art.Sandbox.Log(ctx, true, true)
	if err != nil {
		return state, nil, err
	}
	return state, lines, nil
}
