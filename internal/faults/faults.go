// Package faults holds the error and warning kinds a composition run can
// report. Fatal conditions are errors; skip-and-continue conditions are
// Warnings collected alongside a successful result.
package faults

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoEligibleVehicles is returned when every vehicle was dropped during scheduling.
var ErrNoEligibleVehicles = errors.New("no eligible vehicles")

// MalformedScriptError reports a segment count that does not match the vehicle count.
type MalformedScriptError struct {
	Got  int
	Want int
}

func (e *MalformedScriptError) Error() string {
	return fmt.Sprintf("malformed script: got %d segments, want %d (one opening, one per vehicle, one closing)", e.Got, e.Want)
}

// EmptyAssetSetError reports a vehicle with no usable photos for its rotation loop.
type EmptyAssetSetError struct {
	Vehicle string
}

func (e *EmptyAssetSetError) Error() string {
	if e.Vehicle == "" {
		return "empty asset set: no photos for rotation loop"
	}
	return fmt.Sprintf("empty asset set: vehicle %s has no photos for rotation loop", e.Vehicle)
}

// SynthesisFailure wraps a failed call to an external generator (speech or rasterizer).
type SynthesisFailure struct {
	Service string
	Segment int
	Err     error
}

func (e *SynthesisFailure) Error() string {
	if e.Segment >= 0 {
		return fmt.Sprintf("%s failed for segment %d: %v", e.Service, e.Segment, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Service, e.Err)
}

func (e *SynthesisFailure) Unwrap() error { return e.Err }

// EncodeFailure wraps the last error of the final encode after all attempts.
type EncodeFailure struct {
	Attempts int
	Err      error
}

func (e *EncodeFailure) Error() string {
	return fmt.Sprintf("encode failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *EncodeFailure) Unwrap() error { return e.Err }

// PhaseError is the single terminal failure of a run, naming the phase it happened in.
type PhaseError struct {
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s: %v", strings.ToLower(e.Phase), e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

// WarningKind classifies a non-fatal condition.
type WarningKind string

const (
	InsufficientAssets WarningKind = "insufficient_assets"
	MissingFrame       WarningKind = "missing_frame"
	UnreadablePhoto    WarningKind = "unreadable_photo"
	UnknownLabel       WarningKind = "unknown_label"
	VehicleDropped     WarningKind = "vehicle_dropped"
)

// Warning is a non-fatal condition recorded during a run.
type Warning struct {
	Kind    WarningKind `yaml:"kind"`
	Vehicle string      `yaml:"vehicle,omitempty"`
	Path    string      `yaml:"path,omitempty"`
	Message string      `yaml:"message"`
}

func (w Warning) String() string {
	var b strings.Builder
	b.WriteString(string(w.Kind))
	if w.Vehicle != "" {
		b.WriteString(" [" + w.Vehicle + "]")
	}
	b.WriteString(": " + w.Message)
	if w.Path != "" {
		b.WriteString(" (" + w.Path + ")")
	}
	return b.String()
}

// Insufficient builds the warning for a vehicle dropped for having too few photos.
func Insufficient(vehicle string, have, need int) Warning {
	return Warning{
		Kind:    InsufficientAssets,
		Vehicle: vehicle,
		Message: fmt.Sprintf("vehicle skipped: %d photos, need at least %d", have, need),
	}
}

// Missing builds the warning for a scheduled frame file that is absent.
func Missing(vehicle, path string) Warning {
	return Warning{
		Kind:    MissingFrame,
		Vehicle: vehicle,
		Path:    path,
		Message: "derived frame missing, slot left as a gap",
	}
}

// Unreadable builds the warning for a photo that could not be decoded.
func Unreadable(vehicle, path string, err error) Warning {
	return Warning{
		Kind:    UnreadablePhoto,
		Vehicle: vehicle,
		Path:    path,
		Message: fmt.Sprintf("photo skipped: %v", err),
	}
}

// Dropped builds the warning for a vehicle whose block was removed after
// scheduling, e.g. for an *EmptyAssetSetError.
func Dropped(vehicle string, err error) Warning {
	return Warning{
		Kind:    VehicleDropped,
		Vehicle: vehicle,
		Message: fmt.Sprintf("vehicle block left as gaps: %v", err),
	}
}
