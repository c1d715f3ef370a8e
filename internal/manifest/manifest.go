// Package manifest records what a run scheduled, for review or re-use.
package manifest

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/AnshulGupta2004/Video-Automation/internal/faults"
	"github.com/AnshulGupta2004/Video-Automation/internal/schedule"
	"github.com/AnshulGupta2004/Video-Automation/internal/script"
)

type Entry struct {
	Slot     int                `yaml:"slot"`
	Kind     schedule.SlotKind  `yaml:"kind"`
	Segment  int                `yaml:"segment"`
	Vehicle  string             `yaml:"vehicle,omitempty"`
	Frame    schedule.FrameKind `yaml:"frame,omitempty"`
	Source   string             `yaml:"source,omitempty"`
	Start    float64            `yaml:"start"`
	Duration float64            `yaml:"duration"`
	Gap      bool               `yaml:"gap,omitempty"`
}

type Manifest struct {
	Version  string                `yaml:"version"`
	RunID    string                `yaml:"run_id,omitempty"`
	Output   string                `yaml:"output,omitempty"`
	Duration float64               `yaml:"duration"`
	Segments []script.Segment      `yaml:"segments"`
	Vehicles []schedule.Allocation `yaml:"vehicles"`
	Slots    []Entry               `yaml:"slots"`
	Warnings []faults.Warning      `yaml:"warnings,omitempty"`
}

// Write writes a manifest to a YAML file
func Write(m *Manifest, path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Read reads a manifest from a YAML file
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}

	return &m, nil
}
