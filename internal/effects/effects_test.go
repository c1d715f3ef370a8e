package effects

import (
	"strings"
	"testing"

	"github.com/AnshulGupta2004/Video-Automation/internal/config"
)

func TestFrameCount(t *testing.T) {
	tests := []struct {
		dur  float64
		fps  int
		want int
	}{
		{2.0, 30, 60},
		{0.51, 30, 15},
		{0.001, 30, 1},
		{0, 30, 1},
	}
	for _, tt := range tests {
		if got := FrameCount(config.SlotParams{Duration: tt.dur, FPS: tt.fps}); got != tt.want {
			t.Errorf("FrameCount(%f@%d) = %d, want %d", tt.dur, tt.fps, got, tt.want)
		}
	}
}

func TestHoldEffect(t *testing.T) {
	f := HoldEffect{}.GenerateFilter(config.SlotParams{Width: 1920, Height: 1080, FPS: 30, Duration: 2})
	if !strings.HasPrefix(f, "loop=loop=59:size=1:start=0,") {
		t.Errorf("Unexpected hold filter %s", f)
	}
}

func TestForMode(t *testing.T) {
	if _, ok := ForMode("none", 0).(HoldEffect); !ok {
		t.Error("none should hold")
	}
	if _, ok := ForMode("center", 0.001).(ZoomEffect); !ok {
		t.Error("center should zoom")
	}
}

func TestZoomEffectDeterministic(t *testing.T) {
	p := config.SlotParams{Width: 1280, Height: 720, FPS: 25, Duration: 3, ZoomMode: "random", ZoomSpeed: 0.001, SlotIndex: 4}
	a := ZoomEffect{}.GenerateFilter(p)
	b := ZoomEffect{}.GenerateFilter(p)
	if a != b {
		t.Error("Random mode should be stable for a slot")
	}
	if !strings.Contains(a, "zoompan=") || !strings.Contains(a, ":d=75:s=1280x720:") {
		t.Errorf("Unexpected zoom filter %s", a)
	}
	t.Logf("Filter: %s", a)
}

func TestZoomEffectFocus(t *testing.T) {
	p := config.SlotParams{Width: 1280, Height: 720, FPS: 25, Duration: 2}
	f := ZoomEffect{Mode: "focus", Speed: 0.002, FocusX: 0.75, FocusY: 0.25}.GenerateFilter(p)
	if !strings.Contains(f, "x='max(0,min(iw-iw/zoom,0.7500*iw-iw/zoom/2))'") {
		t.Errorf("Focus x missing from %s", f)
	}
	if !strings.Contains(f, "y='max(0,min(ih-ih/zoom,0.2500*ih-ih/zoom/2))'") {
		t.Errorf("Focus y missing from %s", f)
	}
	if !strings.Contains(f, "1.0+(0.002000*on)") {
		t.Errorf("Effect speed should win over params: %s", f)
	}
}

func TestZoomEffectFallsBackToParams(t *testing.T) {
	p := config.SlotParams{Width: 640, Height: 360, FPS: 25, Duration: 2, ZoomMode: "top-left", ZoomSpeed: 0.003}
	f := ZoomEffect{}.GenerateFilter(p)
	if !strings.Contains(f, ":x='0':y='0':") || !strings.Contains(f, "1.0+(0.003000*on)") {
		t.Errorf("Expected params mode and speed, got %s", f)
	}
}
