package manifest

import (
	"path/filepath"
	"testing"

	"github.com/AnshulGupta2004/Video-Automation/internal/faults"
	"github.com/AnshulGupta2004/Video-Automation/internal/schedule"
	"github.com/AnshulGupta2004/Video-Automation/internal/script"
)

func TestManifestWriteRead(t *testing.T) {
	m := &Manifest{
		Version:  "1",
		RunID:    "run-1",
		Duration: 12,
		Segments: []script.Segment{
			{Index: 0, Text: "Welcome", Role: script.RoleOpening, Vehicle: -1, Start: 0, End: 3},
		},
		Slots: []Entry{
			{Slot: 0, Kind: schedule.Opening, Segment: 0, Duration: 3},
			{Slot: 1, Kind: schedule.Static, Segment: 1, Vehicle: "KA01", Frame: schedule.Highlight, Start: 3, Duration: 1.5},
			{Slot: 4, Kind: schedule.Rotation, Segment: 1, Vehicle: "KA01", Start: 7.5, Duration: 1.5},
			{Slot: 2, Kind: schedule.Static, Segment: 1, Vehicle: "KA01", Frame: schedule.Details, Gap: true},
		},
		Warnings: []faults.Warning{faults.Missing("KA01", "/w/frames/frame_2.png")},
	}

	path := filepath.Join(t.TempDir(), "manifest.yaml")
	if err := Write(m, path); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(got.Slots) != 4 {
		t.Fatalf("Expected 4 slots, got %d", len(got.Slots))
	}
	if got.Slots[2].Kind != schedule.Rotation || got.Slots[1].Frame != schedule.Highlight {
		t.Errorf("Slot kinds not preserved: %+v", got.Slots)
	}
	if !got.Slots[3].Gap || got.Warnings[0].Kind != faults.MissingFrame {
		t.Error("Gap and warning not preserved")
	}
	if got.Segments[0].Role != script.RoleOpening {
		t.Errorf("Segment role lost: %+v", got.Segments[0])
	}
}
