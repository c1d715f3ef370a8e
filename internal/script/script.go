package script

import (
	"strings"

	"github.com/AnshulGupta2004/Video-Automation/internal/faults"
)

// DefaultDelimiter separates narration segments in a script.
const DefaultDelimiter = ';'

// Role tells which part of the video a segment narrates.
type Role string

const (
	RoleOpening Role = "opening"
	RoleVehicle Role = "vehicle"
	RoleClosing Role = "closing"
)

// Segment is one narration unit. Start and End are filled in by the
// compositor once the segment's audio duration is known.
type Segment struct {
	Index   int     `yaml:"index"`
	Text    string  `yaml:"text"`
	Role    Role    `yaml:"role"`
	Vehicle int     `yaml:"vehicle"` // 0-based vehicle index for RoleVehicle, -1 otherwise
	Start   float64 `yaml:"start"`
	End     float64 `yaml:"end"`
}

// Duration is End - Start.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Split cuts raw on delim, trims every piece and drops the empty ones.
func Split(raw string, delim rune) []string {
	if delim == 0 {
		delim = DefaultDelimiter
	}
	var out []string
	for _, part := range strings.Split(raw, string(delim)) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ExpectedCount is the number of segments a script for the given vehicle
// count must have: one opening, one per vehicle, one closing.
func ExpectedCount(vehicles int) int {
	return vehicles + 2
}

// Segments splits raw and checks the count against the vehicle count.
func Segments(raw string, vehicles int, delim rune) ([]Segment, error) {
	parts := Split(raw, delim)
	if want := ExpectedCount(vehicles); len(parts) != want {
		return nil, &faults.MalformedScriptError{Got: len(parts), Want: want}
	}

	segs := make([]Segment, len(parts))
	for i, text := range parts {
		seg := Segment{Index: i, Text: text, Vehicle: -1}
		switch {
		case i == 0:
			seg.Role = RoleOpening
		case i == len(parts)-1:
			seg.Role = RoleClosing
		default:
			seg.Role = RoleVehicle
			seg.Vehicle = i - 1
		}
		segs[i] = seg
	}
	return segs, nil
}
