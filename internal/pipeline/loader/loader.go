// Package loader implements the Pipeline Loader (§4.9): materializing a
// declarative JSON/YAML pipeline document into a pipeline.Pipeline of
// instantiated stages by looking up stage kinds in an injected registry.
package loader

import (
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"github.com/burenotti/runbox/internal/pipeline"
	"github.com/burenotti/runbox/pkg/rberrors"
)

// StageFactory constructs a Stage from its raw, kind-specific params
// document (JSON-encoded, regardless of the document's original format).
type StageFactory func(raw []byte) (pipeline.Stage, error)

// Registry maps declarative stage kinds to factories (§4.9). It is an
// injected value, never a process-wide singleton — tests and callers
// swap registries freely (§9).
type Registry map[string]StageFactory

var validate = validator.New()

// DefaultRegistry maps the canonical kind names use_sandbox, use_volume,
// write_files to the core stages (§4.9).
func DefaultRegistry() Registry {
	return Registry{
		"use_volume":  useVolumeFactory,
		"write_files": writeFilesFactory,
		"use_sandbox": useSandboxFactory,
	}
}

func useVolumeFactory(raw []byte) (pipeline.Stage, error) {
	var params pipeline.UseVolumeParams
	if err := unmarshalJSON(raw, &params); err != nil {
		return nil, &rberrors.ConfigError{Message: "use_volume: " + err.Error()}
	}
	if err := validate.Struct(params); err != nil {
		return nil, &rberrors.ConfigError{Message: "use_volume: " + err.Error()}
	}
	return pipeline.NewUseVolume(params), nil
}

func writeFilesFactory(raw []byte) (pipeline.Stage, error) {
	var params pipeline.WriteFilesParams
	if err := unmarshalJSON(raw, &params); err != nil {
		return nil, &rberrors.ConfigError{Message: "write_files: " + err.Error()}
	}
	if err := validate.Struct(params); err != nil {
		return nil, &rberrors.ConfigError{Message: "write_files: " + err.Error()}
	}
	return pipeline.NewWriteFiles(params), nil
}

func useSandboxFactory(raw []byte) (pipeline.Stage, error) {
	doc, err := decodeUseSandboxDoc(raw)
	if err != nil {
		return nil, &rberrors.ConfigError{Message: "use_sandbox: " + err.Error()}
	}

	params, err := doc.resolve()
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(params); err != nil {
		return nil, &rberrors.ConfigError{Message: "use_sandbox: " + err.Error()}
	}
	return pipeline.NewUseSandbox(params), nil
}

// stageEntry is one {kind: params} document entry, params kept JSON-encoded
// so every StageFactory has a single input shape regardless of the
// document's original format.
type stageEntry struct {
	kind   string
	params []byte
}

// Loader parses a declarative document using an injected Registry and
// materializes a pipeline.Pipeline via AddStages, preserving group and
// stage order (§4.9).
type Loader struct {
	Registry Registry
}

// New returns a Loader using reg, or DefaultRegistry() if reg is nil.
func New(reg Registry) *Loader {
	if reg == nil {
		reg = DefaultRegistry()
	}
	return &Loader{Registry: reg}
}

// LoadJSON parses a JSON-encoded pipeline document.
func (l *Loader) LoadJSON(data []byte) (*pipeline.Pipeline, error) {
	meta, groupOrder, stagesByGroup, err := parseJSONDocument(data)
	if err != nil {
		return nil, err
	}
	return l.build(meta, groupOrder, stagesByGroup)
}

// LoadYAML parses a YAML-encoded pipeline document.
func (l *Loader) LoadYAML(data []byte) (*pipeline.Pipeline, error) {
	meta, groupOrder, stagesByGroup, err := parseYAMLDocument(data)
	if err != nil {
		return nil, err
	}
	return l.build(meta, groupOrder, stagesByGroup)
}

// LoadFile dispatches to LoadJSON or LoadYAML by the path's extension.
func (l *Loader) LoadFile(path string) (*pipeline.Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &rberrors.ConfigError{Message: "reading pipeline document: " + err.Error()}
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return l.LoadYAML(data)
	default:
		return l.LoadJSON(data)
	}
}

func (l *Loader) build(meta map[string]any, groupOrder []string, stagesByGroup map[string][]stageEntry) (*pipeline.Pipeline, error) {
	p := pipeline.NewPipeline()
	if meta != nil {
		p.UpdateMeta(meta)
	}

	for _, group := range groupOrder {
		for _, entry := range stagesByGroup[group] {
			factory, ok := l.Registry[entry.kind]
			if !ok {
				return nil, &rberrors.ConfigError{Message: "unknown stage kind \"" + entry.kind + "\""}
			}
			stage, err := factory(entry.params)
			if err != nil {
				return nil, err
			}
			p.AddStages(group, stage)
		}
	}

	return p, nil
}
