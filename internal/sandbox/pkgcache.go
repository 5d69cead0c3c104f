package sandbox

import (
	"strings"

	"github.com/burenotti/runbox/pkg/models"
)

// CacheMount is one volume-backed package cache mount plus the environment
// variable(s) that point a toolchain at it, adapted from the teacher's
// internal/execution/pkg_cache.go host-bind design: SPEC_FULL.md's DOMAIN
// STACK routes it through the Volume Scope/Mount abstraction instead,
// since the engine adapter's mount contract (§4.1) only accepts volumes.
type CacheMount struct {
	Volume models.VolumeRef
	Bind   string
	Env    []string
}

// PackageCache maps a language name to the volume names and container
// paths its cache should use. Disabled by default; the API surface and
// cmd/runboxd only construct one when RUNBOX_PKG_CACHE_ENABLED is set.
type PackageCache struct {
	enabled  bool
	volume   func(language, cacheName string) models.VolumeRef
}

// NewPackageCache returns a PackageCache that resolves cache volumes via
// namer — typically a fixed "runbox-pkgcache-<language>-<cacheName>"
// naming scheme so repeated runs of the same language share a volume.
func NewPackageCache(enabled bool, namer func(language, cacheName string) models.VolumeRef) *PackageCache {
	if namer == nil {
		namer = defaultCacheVolumeName
	}
	return &PackageCache{enabled: enabled, volume: namer}
}

func defaultCacheVolumeName(language, cacheName string) models.VolumeRef {
	return models.VolumeRef{Name: "runbox-pkgcache-" + sanitizeCacheName(language) + "-" + sanitizeCacheName(cacheName), Driver: "local"}
}

func (p *PackageCache) Enabled() bool { return p != nil && p.enabled }

// MountsForLanguage returns the cache mounts for language, or nil when the
// cache is disabled or the language has no known cache layout.
func (p *PackageCache) MountsForLanguage(language string) []CacheMount {
	if !p.Enabled() {
		return nil
	}

	switch strings.ToLower(strings.TrimSpace(language)) {
	case "javascript", "typescript", "js", "ts":
		return []CacheMount{
			p.mount(language, "npm", "/cache/npm", "NPM_CONFIG_CACHE=/cache/npm"),
		}
	case "python", "py":
		return []CacheMount{
			p.mount(language, "pip", "/cache/pip", "PIP_CACHE_DIR=/cache/pip"),
		}
	case "go", "golang":
		return []CacheMount{
			p.mount(language, "go-build", "/cache/go-build", "GOCACHE=/cache/go-build"),
			p.mount(language, "go-mod", "/cache/go-mod", "GOMODCACHE=/cache/go-mod"),
		}
	case "rust", "rs":
		return []CacheMount{
			p.mount(language, "cargo-home", "/cache/cargo-home", "CARGO_HOME=/cache/cargo-home"),
			p.mount(language, "cargo-target", "/cache/cargo-target", "CARGO_TARGET_DIR=/cache/cargo-target"),
		}
	case "java":
		return []CacheMount{
			p.mount(language, "m2", "/cache/m2", "MAVEN_CONFIG=/cache/m2"),
		}
	default:
		return nil
	}
}

func (p *PackageCache) mount(language, cacheName, containerPath, env string) CacheMount {
	return CacheMount{
		Volume: p.volume(language, cacheName),
		Bind:   containerPath,
		Env:    []string{env},
	}
}

func sanitizeCacheName(in string) string {
	in = strings.ToLower(strings.TrimSpace(in))
	if in == "" {
		return "default"
	}
	var b strings.Builder
	for _, r := range in {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

// Apply attaches each of mounts' volumes to the builder (read-write, since
// caches must persist writes) and sets the matching environment variables.
func (p *PackageCache) Apply(b Builder, mounts []CacheMount) Builder {
	for _, m := range mounts {
		b = b.Mount(m.Volume, m.Bind, false).WithEnv(m.Env...)
	}
	return b
}
