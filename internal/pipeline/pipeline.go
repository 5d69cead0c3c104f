package pipeline

import (
	"context"
	"fmt"

	"github.com/burenotti/runbox/internal/dockerengine"
	"github.com/burenotti/runbox/internal/sandbox"
	"github.com/burenotti/runbox/pkg/rberrors"
)

// GroupStatus is a Group's execution status (§3).
type GroupStatus string

const (
	GroupPending GroupStatus = "pending"
	GroupDone    GroupStatus = "done"
	GroupFailed  GroupStatus = "failed"
)

// Group is a named, ordered, non-empty sequence of stages executed
// atomically (§3).
type Group struct {
	Name   string
	Stages []Stage
	Status GroupStatus
}

// Pipeline is an ordered mapping from group name to Group, plus the
// engine adapter, observer, shared state, and opaque meta threaded
// through one execution (§3/§4.8).
type Pipeline struct {
	order    []string
	groups   map[string]*Group
	engine   dockerengine.Engine
	observer Observer
	shared   *SharedState
	meta     map[string]any
	pkgCache *sandbox.PackageCache
	timeouts Timeouts
}

// NewPipeline returns an empty Pipeline: no groups, no engine, empty
// shared state, empty meta.
func NewPipeline() *Pipeline {
	return &Pipeline{groups: map[string]*Group{}, shared: NewSharedState(), meta: map[string]any{}}
}

func (p *Pipeline) WithExecutor(e dockerengine.Engine) *Pipeline {
	p.engine = e
	return p
}

func (p *Pipeline) WithObserver(o Observer) *Pipeline {
	p.observer = o
	return p
}

func (p *Pipeline) WithInitialState(shared *SharedState) *Pipeline {
	p.shared = shared
	return p
}

// WithPackageCache attaches an optional package cache that use_sandbox
// stages consult when their Language field is set (SUPPLEMENTED FEATURES).
func (p *Pipeline) WithPackageCache(c *sandbox.PackageCache) *Pipeline {
	p.pkgCache = c
	return p
}

// WithTimeouts sets the engine create_container/create_volume timeouts
// stages apply during Setup, sourced from internal/config (§4.5/§4.6).
func (p *Pipeline) WithTimeouts(t Timeouts) *Pipeline {
	p.timeouts = t
	return p
}

func (p *Pipeline) UpdateMeta(meta map[string]any) *Pipeline {
	for k, v := range meta {
		p.meta[k] = v
	}
	return p
}

func (p *Pipeline) Meta() map[string]any { return p.meta }

// Groups returns the pipeline's groups in insertion order.
func (p *Pipeline) Groups() []*Group {
	out := make([]*Group, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, p.groups[name])
	}
	return out
}

func (p *Pipeline) Group(name string) (*Group, bool) {
	g, ok := p.groups[name]
	return g, ok
}

// AddStages appends stages to an existing group or creates a new one,
// preserving insertion order (§4.8).
func (p *Pipeline) AddStages(group string, stages ...Stage) *Pipeline {
	g, ok := p.groups[group]
	if !ok {
		g = &Group{Name: group, Status: GroupPending}
		p.groups[group] = g
		p.order = append(p.order, group)
	}
	g.Stages = append(g.Stages, stages...)
	return p
}

// IsValid reports whether the engine is set and every group has at least
// one stage (§4.8).
func (p *Pipeline) IsValid() bool {
	if p.engine == nil {
		return false
	}
	for _, g := range p.groups {
		if len(g.Stages) == 0 {
			return false
		}
	}
	return true
}

func (p *Pipeline) buildState() *BuildState {
	return &BuildState{
		Engine:       p.engine,
		Observer:     p.observer,
		Shared:       p.shared,
		PackageCache: p.pkgCache,
		Timeouts:     p.timeouts,
	}
}

// ExecuteGroup runs every stage in name's group in declaration order
// (§4.8). On the first stage failure, the group is marked failed, the
// failing stage is disposed (suppressing a secondary dispose error), and
// the original error is returned. On full success the group is marked
// done.
func (p *Pipeline) ExecuteGroup(ctx context.Context, name string) error {
	g, ok := p.groups[name]
	if !ok {
		return &rberrors.ConfigError{Message: fmt.Sprintf("no group named %q in pipeline", name)}
	}
	if !p.IsValid() {
		return &rberrors.ConfigError{Message: "pipeline is not valid: no executor, or a group has no stages"}
	}
	if g.Status != GroupPending {
		return &rberrors.ConfigError{Message: fmt.Sprintf("group %q is not pending", name)}
	}
	for _, stage := range g.Stages {
		if stage.IsSetup() {
			return &rberrors.ConfigError{Message: fmt.Sprintf("stage %q in group %q was already setup", stage.Key(), name)}
		}
	}

	state := p.buildState()
	for _, stage := range g.Stages {
		if err := stage.Setup(ctx, state); err != nil {
			g.Status = GroupFailed
			_ = stage.Dispose(ctx)
			return err
		}
	}

	g.Status = GroupDone
	return nil
}

// Finalize disposes every stage that is setup and not yet disposed, in
// group-insertion order then stage-declaration order (§4.8: "forward
// order... later-declared stages do not depend on earlier-declared stages
// being alive during their own dispose"). The first error encountered is
// remembered and returned after every dispose has been attempted.
func (p *Pipeline) Finalize(ctx context.Context) error {
	var first error
	for _, name := range p.order {
		g := p.groups[name]
		for _, stage := range g.Stages {
			if stage.IsSetup() && !stage.IsDisposed() {
				if err := stage.Dispose(ctx); err != nil && first == nil {
					first = err
				}
			}
		}
	}
	return first
}

// CompileAndRunPipeline is a Pipeline specialization with fixed build/run
// convenience operations (§4.8).
type CompileAndRunPipeline struct {
	*Pipeline
	buildGroup string
	runGroup   string
}

// NewCompileAndRunPipeline returns a CompileAndRunPipeline with the given
// group names, defaulting to "build" and "run".
func NewCompileAndRunPipeline(buildGroup, runGroup string) *CompileAndRunPipeline {
	if buildGroup == "" {
		buildGroup = "build"
	}
	if runGroup == "" {
		runGroup = "run"
	}
	return &CompileAndRunPipeline{Pipeline: NewPipeline(), buildGroup: buildGroup, runGroup: runGroup}
}

func (p *CompileAndRunPipeline) Build(ctx context.Context) error {
	return p.ExecuteGroup(ctx, p.buildGroup)
}

func (p *CompileAndRunPipeline) Run(ctx context.Context) error {
	return p.ExecuteGroup(ctx, p.runGroup)
}
