// Package caption draws the narration text of a segment as a bottom plate.
package caption

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	// BottomMargin is the gap between the plate and the bottom frame edge.
	BottomMargin = 10
	// PlateScale is plate height over text block height.
	PlateScale = 1.5
	// avgCharWidth estimates one glyph's advance relative to the font size.
	avgCharWidth = 0.6
)

// ErrTooNarrow is returned when a single glyph is wider than the caption width.
var ErrTooNarrow = errors.New("caption width narrower than one glyph")

// Interval is a [Start, End) range in seconds on the output timeline.
type Interval struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
}

func (iv Interval) Duration() float64 { return iv.End - iv.Start }

// Overlay is a caption ready to composite. Image covers only the plate and
// goes at Position in frame coordinates.
type Overlay struct {
	Lines    []string
	Interval Interval
	Image    *image.RGBA
	Position image.Point
	Plate    image.Rectangle
}

type Renderer struct {
	Face     font.Face
	FontSize int
	Margin   int // horizontal margin inside the frame
	Text     color.Color
	Fill     color.Color
}

// NewRenderer loads Go Regular at the given size.
func NewRenderer(fontSize, margin int) (*Renderer, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(fontSize),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("font face: %w", err)
	}
	return &Renderer{
		Face:     face,
		FontSize: fontSize,
		Margin:   margin,
		Text:     color.White,
		Fill:     color.Black,
	}, nil
}

// WrapChars greedily packs words into lines of at most n runes. Words longer
// than n are split.
func WrapChars(text string, n int) []string {
	if n < 1 {
		n = 1
	}
	var lines []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			lines = append(lines, string(cur))
			cur = cur[:0]
		}
	}
	for _, word := range strings.Fields(text) {
		w := []rune(word)
		for len(w) > n {
			flush()
			lines = append(lines, string(w[:n]))
			w = w[n:]
		}
		switch {
		case len(cur) == 0:
			cur = append(cur, w...)
		case len(cur)+1+len(w) <= n:
			cur = append(cur, ' ')
			cur = append(cur, w...)
		default:
			flush()
			cur = append(cur, w...)
		}
	}
	flush()
	return lines
}

func (r *Renderer) measure(s string) int {
	return font.MeasureString(r.Face, s).Ceil()
}

// Wrap starts from the average glyph width estimate and narrows the line
// length until every line measures within maxWidth pixels. It fails with
// ErrTooNarrow when even one glyph per line does not fit.
func (r *Renderer) Wrap(text string, maxWidth int) ([]string, error) {
	n := int(float64(maxWidth) / (float64(r.FontSize) * avgCharWidth))
	if n < 1 {
		n = 1
	}
	for {
		lines := WrapChars(text, n)
		if r.fits(lines, maxWidth) {
			return lines, nil
		}
		if n == 1 {
			return nil, fmt.Errorf("%w: %dpx", ErrTooNarrow, maxWidth)
		}
		n--
	}
}

func (r *Renderer) fits(lines []string, maxWidth int) bool {
	for _, l := range lines {
		if r.measure(l) > maxWidth {
			return false
		}
	}
	return true
}

// LineHeight is the distance between baselines.
func (r *Renderer) LineHeight() int {
	m := r.Face.Metrics()
	return (m.Ascent + m.Descent).Ceil()
}

// Layout returns the plate rectangle for a block of n lines on a frameW x
// frameH canvas: full width, 1.5x text height, BottomMargin above the bottom edge.
func (r *Renderer) Layout(n, frameW, frameH int) image.Rectangle {
	textH := n * r.LineHeight()
	plateH := int(float64(textH) * PlateScale)
	bottom := frameH - BottomMargin
	return image.Rect(0, bottom-plateH, frameW, bottom)
}

// Render wraps text and draws it onto its plate. Empty text yields nil.
func (r *Renderer) Render(text string, iv Interval, frameW, frameH int) (*Overlay, error) {
	lines, err := r.Wrap(text, frameW-2*r.Margin)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, nil
	}

	plate := r.Layout(len(lines), frameW, frameH)
	img := image.NewRGBA(image.Rect(0, 0, plate.Dx(), plate.Dy()))
	draw.Draw(img, img.Bounds(), image.NewUniform(r.Fill), image.Point{}, draw.Src)

	lh := r.LineHeight()
	top := (plate.Dy() - lh*len(lines)) / 2
	ascent := r.Face.Metrics().Ascent.Ceil()
	d := &font.Drawer{Dst: img, Src: image.NewUniform(r.Text), Face: r.Face}
	for i, line := range lines {
		x := (plate.Dx() - r.measure(line)) / 2
		d.Dot = fixed.P(x, top+i*lh+ascent)
		d.DrawString(line)
	}

	return &Overlay{
		Lines:    lines,
		Interval: iv,
		Image:    img,
		Position: plate.Min,
		Plate:    plate,
	}, nil
}
