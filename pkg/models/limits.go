package models

import (
	"encoding/json"
	"time"

	"gopkg.in/yaml.v3"
)

// Limits bounds a sandbox's resource usage (§3). Only Time and MemoryMB are
// enforced by the core; CPUCount and DiskSpaceMB are advisory metadata
// only and are not passed to the engine's container config.
type Limits struct {
	Time        time.Duration
	MemoryMB    int
	CPUCount    int
	DiskSpaceMB int
}

// DefaultLimits returns the spec's default resource limits (§3: time 1s,
// memory_mb 64).
func DefaultLimits() Limits {
	return Limits{Time: time.Second, MemoryMB: 64}
}

// MemoryBytes converts MemoryMB to bytes (§4.5: memory_mb × 2²⁰).
func (l Limits) MemoryBytes() int64 {
	return int64(l.MemoryMB) * 1024 * 1024
}

type limitsDoc struct {
	Time        string `json:"time,omitempty" yaml:"time,omitempty"`
	MemoryMB    int    `json:"memory_mb,omitempty" yaml:"memory_mb,omitempty"`
	CPUCount    int    `json:"cpu_count,omitempty" yaml:"cpu_count,omitempty"`
	DiskSpaceMB int    `json:"disk_space_mb,omitempty" yaml:"disk_space_mb,omitempty"`
}

func (l *Limits) fromDoc(doc limitsDoc) error {
	result := DefaultLimits()
	if doc.Time != "" {
		d, err := ParseDuration(doc.Time)
		if err != nil {
			return err
		}
		result.Time = d
	}
	if doc.MemoryMB != 0 {
		result.MemoryMB = doc.MemoryMB
	}
	result.CPUCount = doc.CPUCount
	result.DiskSpaceMB = doc.DiskSpaceMB
	*l = result
	return nil
}

func (l *Limits) UnmarshalJSON(data []byte) error {
	var doc limitsDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	return l.fromDoc(doc)
}

func (l Limits) MarshalJSON() ([]byte, error) {
	return json.Marshal(limitsDoc{
		Time:        FormatISO8601(l.Time),
		MemoryMB:    l.MemoryMB,
		CPUCount:    l.CPUCount,
		DiskSpaceMB: l.DiskSpaceMB,
	})
}

func (l *Limits) UnmarshalYAML(value *yaml.Node) error {
	var doc limitsDoc
	if err := value.Decode(&doc); err != nil {
		return err
	}
	return l.fromDoc(doc)
}
