package pipeline

import "context"

// Stage is a two-phase resource that advances pipeline state (§3/§9):
// Setup acquires, Dispose releases. Setup runs at most once; Dispose runs
// at most once and only after Setup; Dispose is idempotent and must not
// error when Setup never ran.
type Stage interface {
	Key() string
	Params() any
	IsSetup() bool
	IsDisposed() bool
	Setup(ctx context.Context, state *BuildState) error
	Dispose(ctx context.Context) error
}
