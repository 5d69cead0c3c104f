package models

// VolumeRef is an opaque reference to a named volume created through the
// Engine Client Adapter (§4.1/§4.6). Only the adapter knows engine-specific
// volume fields beyond name and driver.
type VolumeRef struct {
	Name   string
	Driver string
}

// Mount attaches a named volume into a sandbox's filesystem (§3).
type Mount struct {
	Volume   VolumeRef
	Bind     string
	ReadOnly bool
}
