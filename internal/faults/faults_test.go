package faults

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestPhaseErrorUnwrap(t *testing.T) {
	cause := &MalformedScriptError{Got: 2, Want: 3}
	err := fmt.Errorf("run: %w", &PhaseError{Phase: "SEGMENTING", Err: cause})

	var pe *PhaseError
	if !errors.As(err, &pe) {
		t.Fatal("Expected PhaseError in chain")
	}
	if pe.Phase != "SEGMENTING" {
		t.Errorf("Expected phase SEGMENTING, got %s", pe.Phase)
	}

	var me *MalformedScriptError
	if !errors.As(err, &me) {
		t.Fatal("Expected MalformedScriptError in chain")
	}
	if me.Got != 2 || me.Want != 3 {
		t.Errorf("Unexpected counts: %+v", me)
	}
}

func TestNoEligibleVehiclesIs(t *testing.T) {
	err := &PhaseError{Phase: "SCHEDULING", Err: ErrNoEligibleVehicles}
	if !errors.Is(err, ErrNoEligibleVehicles) {
		t.Error("Expected errors.Is to find ErrNoEligibleVehicles")
	}
	if !strings.Contains(err.Error(), "no eligible vehicles") {
		t.Errorf("Unexpected message: %s", err)
	}
}

func TestSynthesisFailureMessage(t *testing.T) {
	cause := errors.New("quota exceeded")
	err := &SynthesisFailure{Service: "speech", Segment: 2, Err: cause}

	if !errors.Is(err, cause) {
		t.Error("Expected cause to be reachable")
	}
	if !strings.Contains(err.Error(), "segment 2") {
		t.Errorf("Expected segment index in message, got %s", err)
	}

	noSeg := &SynthesisFailure{Service: "rasterizer", Segment: -1, Err: cause}
	if strings.Contains(noSeg.Error(), "segment") {
		t.Errorf("Did not expect segment in message, got %s", noSeg)
	}
}

func TestWarningString(t *testing.T) {
	w := Missing("DL01AB1234", "/tmp/frames/3.png")
	s := w.String()
	for _, part := range []string{"missing_frame", "DL01AB1234", "/tmp/frames/3.png"} {
		if !strings.Contains(s, part) {
			t.Errorf("Expected %q in %q", part, s)
		}
	}
}

func TestDroppedWarning(t *testing.T) {
	w := Dropped("KA01AB1234", &EmptyAssetSetError{Vehicle: "KA01AB1234"})
	if w.Kind != VehicleDropped || w.Vehicle != "KA01AB1234" {
		t.Errorf("Unexpected warning %+v", w)
	}
	if !strings.Contains(w.String(), "no photos for rotation loop") {
		t.Errorf("Cause missing from %s", w)
	}
}
