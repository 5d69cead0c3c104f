package sandbox_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burenotti/runbox/internal/sandbox"
	"github.com/burenotti/runbox/pkg/models"
)

func TestPackageCache_DisabledReturnsNoMounts(t *testing.T) {
	cache := sandbox.NewPackageCache(false, nil)
	assert.Nil(t, cache.MountsForLanguage("go"))
}

func TestPackageCache_GoLanguageMountsBuildAndModCaches(t *testing.T) {
	cache := sandbox.NewPackageCache(true, nil)
	mounts := cache.MountsForLanguage("go")
	assert.Len(t, mounts, 2)
	assert.Equal(t, "/cache/go-build", mounts[0].Bind)
	assert.Contains(t, mounts[0].Env[0], "GOCACHE=")
}

func TestPackageCache_UnknownLanguageReturnsNil(t *testing.T) {
	cache := sandbox.NewPackageCache(true, nil)
	assert.Nil(t, cache.MountsForLanguage("cobol"))
}

func TestPackageCache_Apply_MountsVolumesAndSetsEnv(t *testing.T) {
	cache := sandbox.NewPackageCache(true, func(language, cacheName string) models.VolumeRef {
		return models.VolumeRef{Name: "fixed-" + cacheName, Driver: "local"}
	})
	mounts := cache.MountsForLanguage("python")
	require.Len(t, mounts, 1)

	engine := newFakeEngine()
	b := cache.Apply(sandbox.NewBuilder().WithProfile(models.DockerProfile{Image: "python:3"}), mounts)
	_, err := b.Create(context.Background(), engine, 0)
	require.NoError(t, err)
	require.Len(t, engine.lastSpec.Mounts, 1)
	assert.Equal(t, "fixed-pip", engine.lastSpec.Mounts[0].SourceVolume)
	assert.Contains(t, engine.lastSpec.Env, "PIP_CACHE_DIR=/cache/pip")
}
