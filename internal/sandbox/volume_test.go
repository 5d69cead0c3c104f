package sandbox_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burenotti/runbox/internal/sandbox"
	"github.com/burenotti/runbox/pkg/models"
)

func TestOpenVolume_CreatesAndDeletesOnClose(t *testing.T) {
	engine := newFakeEngine()
	scope, err := sandbox.OpenVolume(context.Background(), engine, "", "", time.Second, func() string { return "vol-1" })
	require.NoError(t, err)
	assert.Equal(t, "vol-1", scope.Ref().Name)

	_, exists := engine.volumes["vol-1"]
	assert.True(t, exists)

	scope.Close(context.Background())
	_, exists = engine.volumes["vol-1"]
	assert.False(t, exists, "owned scope must delete its volume on Close")
}

func TestAttachVolume_DoesNotDeleteOnClose(t *testing.T) {
	engine := newFakeEngine()
	ref := models.VolumeRef{Name: "pre-seeded", Driver: "local"}
	engine.volumes["pre-seeded"] = ref

	scope := sandbox.AttachVolume(engine, ref)
	scope.Close(context.Background())

	_, exists := engine.volumes["pre-seeded"]
	assert.True(t, exists, "attached scope must not delete a volume it did not create")
}
