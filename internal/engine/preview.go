package engine

import (
	"context"

	"github.com/AnshulGupta2004/Video-Automation/internal/faults"
	"github.com/AnshulGupta2004/Video-Automation/internal/manifest"
	"github.com/AnshulGupta2004/Video-Automation/internal/schedule"
)

// Preview segments and schedules a request without calling any collaborator.
// Slot timing is left at zero since it depends on the synthesized narration.
func (c *Compositor) Preview(req Request) (*manifest.Manifest, error) {
	r := &run{
		c:         &Compositor{Config: c.Config, Scheduler: c.Scheduler, Logger: c.Logger},
		req:       req,
		logger:    c.Logger,
		framePath: make(map[int]string),
	}
	ctx := context.Background()
	if err := r.segment(ctx); err != nil {
		return nil, &faults.PhaseError{Phase: string(Segmenting), Err: err}
	}
	if err := r.schedule(ctx); err != nil {
		return nil, &faults.PhaseError{Phase: string(Scheduling), Err: err}
	}

	m := &manifest.Manifest{
		Version:  "1",
		Output:   req.OutputPath,
		Segments: r.segments,
		Vehicles: r.plan.Vehicles,
		Warnings: r.warnings,
	}
	for i, s := range r.slots {
		e := manifest.Entry{Slot: i, Kind: s.Kind, Segment: s.Segment, Frame: s.Frame()}
		switch s.Kind {
		case schedule.Static:
			a := r.plan.Vehicles[s.Vehicle]
			e.Vehicle, e.Source = a.Vehicle, a.Photo(s.Frame())
		case schedule.Rotation:
			a := r.plan.Vehicles[s.Vehicle]
			e.Vehicle, e.Source = a.Vehicle, a.SeedPhoto
		case schedule.Opening:
			e.Source = req.OpeningFrame
		case schedule.Closing:
			e.Source = req.ClosingFrame
		}
		m.Slots = append(m.Slots, e)
	}
	return m, nil
}
