package loader_test

import (
	"encoding/base64"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burenotti/runbox/internal/pipeline"
	"github.com/burenotti/runbox/internal/pipeline/loader"
)

func TestUseSandboxDoc_InlineTextContent(t *testing.T) {
	doc := []byte(`{
		"key": "built",
		"profile": {"image": "alpine:latest"},
		"files": [{"name": "main.py", "content": "print(1)", "type": "text"}]
	}`)

	l := loader.New(nil)
	p, err := l.LoadJSON([]byte(`{"pipeline": {"build": [{"use_sandbox": ` + string(doc) + `}]}}`))
	require.NoError(t, err)
	require.Len(t, p.Groups(), 1)
	require.Len(t, p.Groups()[0].Stages, 1)

	stage := p.Groups()[0].Stages[0]
	params, ok := stage.Params().(pipeline.UseSandboxParams)
	require.True(t, ok)
	require.Len(t, params.Files, 1)
	assert.Equal(t, "main.py", params.Files[0].Name)
}

func TestUseSandboxDoc_OmittedAttachDefaultsToTrue(t *testing.T) {
	doc := []byte(`{"pipeline": {"build": [{"use_sandbox": {
		"key": "built",
		"profile": {"image": "alpine:latest"}
	}}]}}`)

	l := loader.New(nil)
	p, err := l.LoadJSON(doc)
	require.NoError(t, err)

	stage := p.Groups()[0].Stages[0]
	params, ok := stage.Params().(pipeline.UseSandboxParams)
	require.True(t, ok)
	require.NotNil(t, params.Attach)
	assert.True(t, *params.Attach)
}

func TestUseSandboxDoc_ExplicitFalseAttachIsPreserved(t *testing.T) {
	doc := []byte(`{"pipeline": {"build": [{"use_sandbox": {
		"key": "built",
		"profile": {"image": "alpine:latest"},
		"attach": false
	}}]}}`)

	l := loader.New(nil)
	p, err := l.LoadJSON(doc)
	require.NoError(t, err)

	stage := p.Groups()[0].Stages[0]
	params, ok := stage.Params().(pipeline.UseSandboxParams)
	require.True(t, ok)
	require.NotNil(t, params.Attach)
	assert.False(t, *params.Attach)
}

func TestUseSandboxDoc_InlineBinaryContentIsBase64Decoded(t *testing.T) {
	raw := []byte{0x01, 0x02, 0x03}
	encoded := base64.StdEncoding.EncodeToString(raw)

	doc := []byte(`{"pipeline": {"build": [{"use_sandbox": {
		"key": "built",
		"profile": {"image": "alpine:latest"},
		"files": [{"name": "blob.bin", "content": "` + encoded + `", "type": "binary"}]
	}}]}}`)

	l := loader.New(nil)
	p, err := l.LoadJSON(doc)
	require.NoError(t, err)
	require.Len(t, p.Groups()[0].Stages, 1)

	params, ok := p.Groups()[0].Stages[0].Params().(pipeline.UseSandboxParams)
	require.True(t, ok)
	require.Len(t, params.Files, 1)
	assert.Equal(t, raw, params.Files[0].Content)
}

func TestUseSandboxDoc_InvalidBase64ContentIsConfigError(t *testing.T) {
	doc := []byte(`{"pipeline": {"build": [{"use_sandbox": {
		"key": "built",
		"profile": {"image": "alpine:latest"},
		"files": [{"name": "blob.bin", "content": "not-base64!!", "type": "binary"}]
	}}]}}`)

	l := loader.New(nil)
	_, err := l.LoadJSON(doc)
	assert.Error(t, err)
}

func TestUseSandboxDoc_PathLoadsFileFromDisk(t *testing.T) {
	path := t.TempDir() + "/main.py"
	require.NoError(t, os.WriteFile(path, []byte("print(2)"), 0o644))

	doc := []byte(`{"pipeline": {"build": [{"use_sandbox": {
		"key": "built",
		"profile": {"image": "alpine:latest"},
		"files": [{"name": "main.py", "path": "` + path + `"}]
	}}]}}`)

	l := loader.New(nil)
	p, err := l.LoadJSON(doc)
	require.NoError(t, err)
	require.Len(t, p.Groups()[0].Stages, 1)
}

func TestUseSandboxDoc_MissingPathFileIsConfigError(t *testing.T) {
	doc := []byte(`{"pipeline": {"build": [{"use_sandbox": {
		"key": "built",
		"profile": {"image": "alpine:latest"},
		"files": [{"name": "main.py", "path": "/does/not/exist.py"}]
	}}]}}`)

	l := loader.New(nil)
	_, err := l.LoadJSON(doc)
	assert.Error(t, err)
}

func TestUseSandboxDoc_BothPathAndContentIsConfigError(t *testing.T) {
	doc := []byte(`{"pipeline": {"build": [{"use_sandbox": {
		"key": "built",
		"profile": {"image": "alpine:latest"},
		"files": [{"name": "main.py", "path": "/tmp/x.py", "content": "x"}]
	}}]}}`)

	l := loader.New(nil)
	_, err := l.LoadJSON(doc)
	assert.Error(t, err)
}

func TestUseSandboxDoc_NeitherPathNorContentIsConfigError(t *testing.T) {
	doc := []byte(`{"pipeline": {"build": [{"use_sandbox": {
		"key": "built",
		"profile": {"image": "alpine:latest"},
		"files": [{"name": "main.py"}]
	}}]}}`)

	l := loader.New(nil)
	_, err := l.LoadJSON(doc)
	assert.Error(t, err)
}
