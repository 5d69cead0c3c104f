package sandbox_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burenotti/runbox/internal/sandbox"
	"github.com/burenotti/runbox/pkg/models"
)

func TestBuilder_IsImmutable(t *testing.T) {
	base := sandbox.NewBuilder()
	withProfile := base.WithProfile(models.DockerProfile{Image: "alpine"})

	engine := newFakeEngine()
	_, err := base.Create(context.Background(), engine, 0)
	require.NoError(t, err)
	assert.Empty(t, engine.lastSpec.Image, "base builder must not have picked up the chained profile")

	_, err = withProfile.Create(context.Background(), engine, 0)
	require.NoError(t, err)
	assert.Equal(t, "alpine", engine.lastSpec.Image)
}

func TestBuilder_Create_ReturnsSandboxWithContainerID(t *testing.T) {
	engine := newFakeEngine()
	file, err := models.NewFile("main.py", []byte("print(1)"), models.FileKindText)
	require.NoError(t, err)

	b := sandbox.NewBuilder().
		WithProfile(models.DockerProfile{Image: "python:3", Workdir: "/sandbox", CmdTemplate: []models.CmdElement{models.Literal("python3"), models.Placeholder(0)}}).
		AddFiles(file)

	sb, err := b.Create(context.Background(), engine, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, sb.ContainerID())
}

func TestBuilder_WithNameFactory(t *testing.T) {
	called := false
	factory := func() string {
		called = true
		return "fixed-name"
	}
	b := sandbox.NewBuilder().WithNameFactory(factory)
	_, err := b.Create(context.Background(), newFakeEngine(), 0)
	require.NoError(t, err)
	assert.True(t, called)
}
