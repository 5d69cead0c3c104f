package sandbox

import "github.com/google/uuid"

// NameFactory produces unique names for containers and volumes.
type NameFactory func() string

// RandomName returns a canonical dashed-hex 128-bit identifier, the
// builder's default name factory (§4.5/§4.6).
func RandomName() string { return uuid.New().String() }
