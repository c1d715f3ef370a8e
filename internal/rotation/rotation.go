// Package rotation turns a vehicle's photos into a looping turntable clip.
package rotation

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/AnshulGupta2004/Video-Automation/internal/faults"
	"github.com/AnshulGupta2004/Video-Automation/internal/imaging"
	"github.com/AnshulGupta2004/Video-Automation/internal/system"
)

// Clip is a sequence of equal-length holds. The last frame repeats the
// first so the loop closes where it started.
type Clip struct {
	Frames        []*image.RGBA
	FrameDuration float64
	Duration      float64
}

// FrameRate is the input rate that plays every frame for FrameDuration.
func (c *Clip) FrameRate() float64 {
	if c.FrameDuration <= 0 {
		return 0
	}
	return 1 / c.FrameDuration
}

// Release hands the canvases back to the image pool. The clip is unusable afterwards.
func (c *Clip) Release() {
	seen := make(map[*image.RGBA]bool, len(c.Frames))
	for _, f := range c.Frames {
		if f != nil && !seen[f] {
			seen[f] = true
			system.PutImage(f)
		}
	}
	c.Frames = nil
}

type Builder struct {
	Width, Height int
	Background    color.Color
}

func NewBuilder(w, h int) *Builder {
	return &Builder{Width: w, Height: h, Background: color.Black}
}

// Build canonicalises photos to Width x Height and holds each one for
// total/(len(photos)+1) seconds, the first photo appearing again at the end.
func (b *Builder) Build(photos []image.Image, total float64) (*Clip, error) {
	if len(photos) == 0 {
		return nil, &faults.EmptyAssetSetError{}
	}
	if total <= 0 {
		return nil, fmt.Errorf("rotation duration must be positive, got %f", total)
	}

	bg := b.Background
	if bg == nil {
		bg = color.Black
	}

	frames := make([]*image.RGBA, 0, len(photos)+1)
	for _, p := range photos {
		frames = append(frames, imaging.Fit(p, b.Width, b.Height, bg))
	}
	// the closing frame shares the first canvas
	frames = append(frames, frames[0])

	return &Clip{
		Frames:        frames,
		FrameDuration: total / float64(len(frames)),
		Duration:      total,
	}, nil
}

// Cutter removes a photo's background and returns the cutout with alpha.
type Cutter interface {
	Remove(ctx context.Context, photo []byte) (image.Image, error)
}

// LoadPhotos decodes paths in order. With a non-nil cut every photo is
// replaced by its cutout trimmed to content. Files that fail to decode or cut
// are left out and reported as warnings.
func LoadPhotos(ctx context.Context, vehicle string, paths []string, cut Cutter) ([]image.Image, []faults.Warning, error) {
	var (
		images   []image.Image
		warnings []faults.Warning
	)
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, warnings, err
		}
		img, err := load(ctx, p, cut)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, warnings, ctxErr
			}
			warnings = append(warnings, faults.Unreadable(vehicle, p, err))
			continue
		}
		images = append(images, img)
	}
	return images, warnings, nil
}

func load(ctx context.Context, path string, cut Cutter) (image.Image, error) {
	if cut == nil {
		return imaging.Decode(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := cut.Remove(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("background removal: %w", err)
	}
	return imaging.TrimTransparent(img), nil
}
