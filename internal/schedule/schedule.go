// Package schedule decides which vehicles make it into the video and lays
// out the slot skeleton of the timeline.
package schedule

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/AnshulGupta2004/Video-Automation/internal/config"
	"github.com/AnshulGupta2004/Video-Automation/internal/faults"
	"github.com/AnshulGupta2004/Video-Automation/internal/source"
)

type SlotKind int

const (
	Opening SlotKind = iota
	Static
	Rotation
	Closing
)

func (k SlotKind) String() string {
	switch k {
	case Opening:
		return "opening"
	case Static:
		return "static"
	case Rotation:
		return "rotation"
	case Closing:
		return "closing"
	}
	return fmt.Sprintf("SlotKind(%d)", int(k))
}

func (k SlotKind) MarshalYAML() (interface{}, error) {
	return k.String(), nil
}

func (k *SlotKind) UnmarshalYAML(value *yaml.Node) error {
	for _, c := range []SlotKind{Opening, Static, Rotation, Closing} {
		if c.String() == value.Value {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown slot kind %q", value.Value)
}

// BlockSize is the number of slots per vehicle.
const BlockSize = 4

// FrameKind names a derived still shown in one of the three static slots.
type FrameKind string

const (
	Highlight FrameKind = "highlight"
	Details   FrameKind = "details"
	Offer     FrameKind = "offer"
)

// StaticFrames lists the derived frames of a vehicle block in slot order.
var StaticFrames = [3]FrameKind{Highlight, Details, Offer}

type position struct {
	kind SlotKind
	part int
}

type guard int

const (
	always guard = iota
	moreVehicles
	noVehicles
)

var (
	start = position{Opening, 0}
	final = position{Closing, 0}
)

// transitions is the grammar of a timeline:
// Opening, then Static x3 + Rotation per vehicle, then Closing.
var transitions = []struct {
	from position
	when guard
	to   position
}{
	{position{Opening, 0}, moreVehicles, position{Static, 0}},
	{position{Opening, 0}, noVehicles, final},
	{position{Static, 0}, always, position{Static, 1}},
	{position{Static, 1}, always, position{Static, 2}},
	{position{Static, 2}, always, position{Rotation, 3}},
	{position{Rotation, 3}, moreVehicles, position{Static, 0}},
	{position{Rotation, 3}, noVehicles, final},
}

func step(from position, remaining int) (position, error) {
	for _, t := range transitions {
		if t.from != from {
			continue
		}
		switch t.when {
		case always:
			return t.to, nil
		case moreVehicles:
			if remaining > 0 {
				return t.to, nil
			}
		case noVehicles:
			if remaining == 0 {
				return t.to, nil
			}
		}
	}
	return position{}, fmt.Errorf("no transition from %s part %d", from.kind, from.part)
}

// Slot is one entry of the timeline skeleton.
type Slot struct {
	Kind    SlotKind `yaml:"kind"`
	Segment int      `yaml:"segment"` // narrated segment index
	Vehicle int      `yaml:"vehicle"` // index into Plan.Vehicles, -1 for opening/closing
	Part    int      `yaml:"part"`    // 0..3 within a vehicle block
}

// Frame is the derived still a static slot shows.
func (s Slot) Frame() FrameKind {
	if s.Kind != Static || s.Part < 0 || s.Part >= len(StaticFrames) {
		return ""
	}
	return StaticFrames[s.Part]
}

func walk(k int, visit func(p position, vehicle int)) error {
	cur := start
	vehicle := -1
	remaining := k
	for {
		if cur.kind == Static && cur.part == 0 {
			vehicle++
			remaining--
		}
		v := vehicle
		if cur.kind == Opening || cur.kind == Closing {
			v = -1
		}
		visit(cur, v)
		if cur == final {
			return nil
		}
		next, err := step(cur, remaining)
		if err != nil {
			return err
		}
		cur = next
	}
}

// Kinds returns the slot kinds of a timeline with k vehicles.
func Kinds(k int) []SlotKind {
	if k < 0 {
		k = 0
	}
	out := make([]SlotKind, 0, 2+BlockSize*k)
	walk(k, func(p position, _ int) { out = append(out, p.kind) })
	return out
}

// Allocation records which photos a vehicle contributes to its block.
type Allocation struct {
	Index       int             `yaml:"index"` // position in the caller's vehicle list
	Set         source.AssetSet `yaml:"-"`
	Vehicle     string          `yaml:"vehicle"`
	HeroPhoto   string          `yaml:"hero_photo"`
	DetailPhoto string          `yaml:"detail_photo"`
	SeedPhoto   string          `yaml:"seed_photo"`
	Turntable   []string        `yaml:"turntable"`
}

// Photo returns the source photo behind a derived frame.
func (a Allocation) Photo(f FrameKind) string {
	if f == Details {
		return a.DetailPhoto
	}
	return a.HeroPhoto
}

type Plan struct {
	Vehicles []Allocation
}

// Eligible is the number of vehicles that made it into the schedule.
func (p *Plan) Eligible() int {
	return len(p.Vehicles)
}

// Slots returns the timeline skeleton. Segment 0 is the opening, segment
// j+1 belongs to Vehicles[j] and the last one is the closing.
func (p *Plan) Slots() []Slot {
	k := len(p.Vehicles)
	slots := make([]Slot, 0, 2+BlockSize*k)
	walk(k, func(pos position, vehicle int) {
		s := Slot{Kind: pos.kind, Part: pos.part, Vehicle: vehicle}
		switch pos.kind {
		case Opening:
			s.Segment = 0
		case Closing:
			s.Segment = k + 1
		default:
			s.Segment = vehicle + 1
		}
		slots = append(slots, s)
	})
	return slots
}

type Scheduler struct {
	MinPhotos    int
	HeroPhoto    int
	DetailPhoto  int
	RotationSeed int
	Logger       *zap.Logger
}

func New(cfg *config.Config, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		MinPhotos:    cfg.MinPhotos,
		HeroPhoto:    cfg.HeroPhoto,
		DetailPhoto:  cfg.DetailPhoto,
		RotationSeed: cfg.RotationSeed,
		Logger:       logger,
	}
}

// required is the photo count a set needs so every allocated position exists.
func (s *Scheduler) required() int {
	return max(1, s.MinPhotos, s.HeroPhoto, s.DetailPhoto, s.RotationSeed)
}

// position turns a 1-based photo position into an index, treating unset
// positions as the first photo.
func position(pos int) int {
	return max(pos, 1) - 1
}

// Plan keeps the vehicles with at least MinPhotos photos, in input order,
// and allocates their photos. The others are reported as warnings.
func (s *Scheduler) Plan(sets []source.AssetSet) (*Plan, []faults.Warning) {
	plan := &Plan{}
	var warnings []faults.Warning

	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	need := s.required()
	for i, set := range sets {
		if set.Len() < need {
			w := faults.Insufficient(set.Vehicle, set.Len(), need)
			logger.Warn("vehicle skipped", zap.String("vehicle", set.Vehicle), zap.Int("photos", set.Len()), zap.Int("need", need))
			warnings = append(warnings, w)
			continue
		}

		// the turntable plays the whole set in natural order
		turntable := append([]string(nil), set.Photos...)

		plan.Vehicles = append(plan.Vehicles, Allocation{
			Index:       i,
			Set:         set,
			Vehicle:     set.Vehicle,
			HeroPhoto:   set.Photos[position(s.HeroPhoto)],
			DetailPhoto: set.Photos[position(s.DetailPhoto)],
			SeedPhoto:   set.Photos[position(s.RotationSeed)],
			Turntable:   turntable,
		})
	}

	logger.Info("vehicles scheduled", zap.Int("eligible", len(plan.Vehicles)), zap.Int("skipped", len(warnings)))
	return plan, warnings
}
