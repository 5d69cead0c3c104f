package sandbox

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/burenotti/runbox/internal/dockerengine"
	"github.com/burenotti/runbox/internal/logging"
	"github.com/burenotti/runbox/pkg/models"
)

const defaultVolumeTimeout = 5 * time.Second

// VolumeScope is a scoped acquisition of a named ephemeral volume with
// guaranteed release (§4.6). Errors on Close are swallowed — best-effort
// cleanup.
type VolumeScope struct {
	engine dockerengine.Engine
	ref    models.VolumeRef
	owned  bool
}

// OpenVolume creates a volume (auto-named if name is empty) and returns a
// scope owning it, which deletes the volume on Close. Attaching to an
// already-live volume without creating or deleting it is AttachVolume's
// job (the pre-seeded volume reuse in SPEC_FULL.md's SUPPLEMENTED
// FEATURES).
func OpenVolume(ctx context.Context, engine dockerengine.Engine, name, driver string, timeout time.Duration, nameFactory NameFactory) (*VolumeScope, error) {
	if name == "" {
		name = nameFactory()
	}
	if driver == "" {
		driver = "local"
	}
	if timeout <= 0 {
		timeout = defaultVolumeTimeout
	}

	createCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ref, err := engine.CreateVolume(createCtx, name, driver)
	if err != nil {
		return nil, err
	}
	return &VolumeScope{engine: engine, ref: ref, owned: true}, nil
}

// AttachVolume wraps an already-existing volume ref without creating or
// later deleting it.
func AttachVolume(engine dockerengine.Engine, ref models.VolumeRef) *VolumeScope {
	return &VolumeScope{engine: engine, ref: ref, owned: false}
}

// Ref returns the scope's volume reference.
func (v *VolumeScope) Ref() models.VolumeRef { return v.ref }

// Close releases the volume if this scope created it.
func (v *VolumeScope) Close(ctx context.Context) {
	if !v.owned {
		return
	}
	if err := v.engine.DeleteVolume(ctx, v.ref.Name); err != nil {
		logging.L().Debug("suppressed volume delete error", logging.Volume(v.ref.Name), zap.Error(err))
	}
}
