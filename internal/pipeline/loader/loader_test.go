package loader_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burenotti/runbox/internal/pipeline"
	"github.com/burenotti/runbox/internal/pipeline/loader"
)

func TestLoadJSON_PreservesGroupAndStageOrder(t *testing.T) {
	doc := []byte(`{
		"meta": {"name": "demo"},
		"pipeline": {
			"build": [
				{"use_volume": {"key": "src"}},
				{"use_sandbox": {"key": "compiled", "profile": {"image": "golang:1.22"}}}
			],
			"run": [
				{"use_sandbox": {"key": "run", "profile": {"image": "alpine:latest"}}}
			]
		}
	}`)

	l := loader.New(nil)
	p, err := l.LoadJSON(doc)
	require.NoError(t, err)

	assert.Equal(t, "demo", p.Meta()["name"])

	groups := p.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, "build", groups[0].Name)
	assert.Equal(t, "run", groups[1].Name)
	require.Len(t, groups[0].Stages, 2)
	assert.Equal(t, "src", groups[0].Stages[0].Key())
	assert.Equal(t, "compiled", groups[0].Stages[1].Key())
}

func TestLoadJSON_NoPipelineFieldReturnsEmptyPipeline(t *testing.T) {
	l := loader.New(nil)
	p, err := l.LoadJSON([]byte(`{"meta": {"name": "empty"}}`))
	require.NoError(t, err)
	assert.Empty(t, p.Groups())
	assert.Equal(t, "empty", p.Meta()["name"])
}

func TestLoadJSON_UnknownStageKindIsConfigError(t *testing.T) {
	doc := []byte(`{"pipeline": {"build": [{"nonsense": {}}]}}`)
	l := loader.New(nil)
	_, err := l.LoadJSON(doc)
	assert.Error(t, err)
}

func TestLoadJSON_StageEntryWithMultipleKeysIsConfigError(t *testing.T) {
	doc := []byte(`{"pipeline": {"build": [{"use_volume": {"key": "a"}, "write_files": {}}]}}`)
	l := loader.New(nil)
	_, err := l.LoadJSON(doc)
	assert.Error(t, err)
}

func TestLoadJSON_MissingRequiredParamIsConfigError(t *testing.T) {
	doc := []byte(`{"pipeline": {"build": [{"use_volume": {}}]}}`)
	l := loader.New(nil)
	_, err := l.LoadJSON(doc)
	assert.Error(t, err)
}

func TestLoadYAML_PreservesGroupAndStageOrder(t *testing.T) {
	doc := []byte(`
meta:
  name: demo
pipeline:
  build:
    - use_volume:
        key: src
    - use_sandbox:
        key: compiled
        profile:
          image: golang:1.22
  run:
    - use_sandbox:
        key: run
        profile:
          image: alpine:latest
`)

	l := loader.New(nil)
	p, err := l.LoadYAML(doc)
	require.NoError(t, err)

	groups := p.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, "build", groups[0].Name)
	assert.Equal(t, "run", groups[1].Name)
	require.Len(t, groups[0].Stages, 2)
	assert.Equal(t, "src", groups[0].Stages[0].Key())
	assert.Equal(t, "compiled", groups[0].Stages[1].Key())
}

func TestLoadYAML_NonMappingPipelineIsConfigError(t *testing.T) {
	l := loader.New(nil)
	_, err := l.LoadYAML([]byte("pipeline: [1, 2, 3]"))
	assert.Error(t, err)
}

func TestLoadYAML_NonSequenceGroupIsConfigError(t *testing.T) {
	l := loader.New(nil)
	_, err := l.LoadYAML([]byte("pipeline:\n  build: not-a-list\n"))
	assert.Error(t, err)
}

func TestLoadFile_DispatchesByExtension(t *testing.T) {
	jsonPath := writeTempFile(t, "pipeline.json", `{"pipeline": {"build": [{"use_volume": {"key": "a"}}]}}`)
	yamlPath := writeTempFile(t, "pipeline.yaml", "pipeline:\n  build:\n    - use_volume:\n        key: a\n")

	l := loader.New(nil)

	p, err := l.LoadFile(jsonPath)
	require.NoError(t, err)
	assert.Len(t, p.Groups(), 1)

	p, err = l.LoadFile(yamlPath)
	require.NoError(t, err)
	assert.Len(t, p.Groups(), 1)
}

func TestLoadFile_MissingFileIsConfigError(t *testing.T) {
	l := loader.New(nil)
	_, err := l.LoadFile("/does/not/exist.json")
	assert.Error(t, err)
}

func TestNew_NilRegistryUsesDefault(t *testing.T) {
	l := loader.New(nil)
	_, ok := l.Registry["use_sandbox"]
	assert.True(t, ok)
}

func TestNew_CustomRegistryOverridesFactories(t *testing.T) {
	called := false
	reg := loader.Registry{
		"custom": func(raw []byte) (pipeline.Stage, error) {
			called = true
			return pipeline.NewUseVolume(pipeline.UseVolumeParams{Key: "k"}), nil
		},
	}
	l := loader.New(reg)
	_, err := l.LoadJSON([]byte(`{"pipeline": {"build": [{"custom": {}}]}}`))
	require.NoError(t, err)
	assert.True(t, called)
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := t.TempDir() + "/" + name
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
