package effects

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/AnshulGupta2004/Video-Automation/internal/config"
)

// Effect builds the -vf chain that turns a slot's input frames into
// Duration seconds of Width x Height video at FPS.
type Effect interface {
	GenerateFilter(p config.SlotParams) string
}

// ForMode picks the motion applied to single-frame slots.
func ForMode(mode string, speed float64) Effect {
	switch strings.ToLower(mode) {
	case "", "none", "off":
		return HoldEffect{}
	default:
		return ZoomEffect{Mode: mode, Speed: speed, FocusX: 0.5, FocusY: 0.5}
	}
}

// FrameCount is the number of output frames of a slot, at least one.
func FrameCount(p config.SlotParams) int {
	n := int(math.Round(p.Duration * float64(p.FPS)))
	if n < 1 {
		n = 1
	}
	return n
}

// HoldEffect repeats a single frame for the whole slot.
type HoldEffect struct{}

func (HoldEffect) GenerateFilter(p config.SlotParams) string {
	n := FrameCount(p)
	return fmt.Sprintf("loop=loop=%d:size=1:start=0,setpts=N/%d/TB,format=yuv420p", n-1, p.FPS)
}

// SequenceEffect resamples a frame sequence whose input rate already encodes
// the hold time of each frame.
type SequenceEffect struct{}

func (SequenceEffect) GenerateFilter(p config.SlotParams) string {
	return fmt.Sprintf("fps=%d,format=yuv420p", p.FPS)
}

// ZoomEffect slowly pushes into the frame and eases back to 1:1 before the
// slot ends. Unset fields fall back to the slot params.
type ZoomEffect struct {
	Mode  string
	Speed float64
	// FocusX and FocusY are the point the "focus" mode pushes toward, as
	// fractions of the frame.
	FocusX, FocusY float64
}

func (e ZoomEffect) GenerateFilter(p config.SlotParams) string {
	mode := e.Mode
	if mode == "" {
		mode = p.ZoomMode
	}
	mode = strings.ToLower(mode)
	if mode == "random" {
		modes := []string{"center", "top-left", "top-right", "bottom-left", "bottom-right"}
		// seeded by slot so the same schedule renders the same motion
		r := rand.New(rand.NewSource(int64(p.SlotIndex*99 + 1)))
		mode = modes[r.Intn(len(modes))]
	}

	var zoomX, zoomY string
	switch mode {
	case "top-left":
		zoomX, zoomY = "0", "0"
	case "top-right":
		zoomX, zoomY = "iw-(iw/zoom)", "0"
	case "bottom-left":
		zoomX, zoomY = "0", "ih-(ih/zoom)"
	case "bottom-right":
		zoomX, zoomY = "iw-(iw/zoom)", "ih-(ih/zoom)"
	case "focus":
		zoomX = fmt.Sprintf("max(0,min(iw-iw/zoom,%.4f*iw-iw/zoom/2))", e.FocusX)
		zoomY = fmt.Sprintf("max(0,min(ih-ih/zoom,%.4f*ih-ih/zoom/2))", e.FocusY)
	default: // center
		zoomX, zoomY = "iw/2-(iw/zoom/2)", "ih/2-(ih/zoom/2)"
	}

	fTotal := float64(FrameCount(p))

	zSpeed := e.Speed
	if zSpeed <= 0 {
		zSpeed = p.ZoomSpeed
	}
	if zSpeed <= 0 {
		zSpeed = 0.0005
	}

	// push in for the first half at most, hold, then return during the last fifth
	onPeak := 0.5 / zSpeed
	if onPeak > fTotal/2 {
		onPeak = fTotal / 2
	}
	peak := 1.0 + zSpeed*onPeak
	if peak > 1.5 {
		peak = 1.5
	}
	outroStart := fTotal * 0.8
	if outroStart < onPeak {
		outroStart = onPeak
	}

	zFormula := fmt.Sprintf("if(lte(on,%f), 1.0+(%f*on), if(lte(on,%f), %f, if(lte(on,%f), %f-(%f-1.0)*(on-%f)/(%f-%f), 1.0)))",
		onPeak, zSpeed, outroStart, peak, fTotal, peak, peak, outroStart, fTotal, outroStart+1e-6)

	// upscale first so the zoom does not expose pixel stepping
	aspectFilter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
		p.Width*2, p.Height*2, p.Width*2, p.Height*2,
	)

	zoomFilter := fmt.Sprintf(
		"zoompan=z='%s':d=%d:s=%dx%d:x='%s':y='%s':fps=%d",
		zFormula, int(fTotal), p.Width, p.Height, zoomX, zoomY, p.FPS,
	)

	return fmt.Sprintf("%s,%s,format=yuv420p", aspectFilter, zoomFilter)
}
