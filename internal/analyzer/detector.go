// Package analyzer finds where the subject of a still sits, so camera motion
// can push toward it instead of a fixed corner.
package analyzer

import (
	"fmt"
	"image"
)

// Block is a connected region of strong edges.
type Block struct {
	Rect   image.Rectangle
	Center image.Point // edge-weighted centroid
	Weight int         // edge pixels in the region, at analysis resolution
}

// Detector is the interface for image analysis strategies.
// Blocks come back strongest first.
type Detector interface {
	Detect(img image.Image) ([]Block, error)
}

// NewDetector creates a detector based on the specified variant
func NewDetector(variant string) (Detector, error) {
	switch variant {
	case "contrast", "":
		return NewContrastDetector(), nil
	default:
		return nil, fmt.Errorf("unknown detector variant: %s", variant)
	}
}

// Focus returns the center of the strongest block as fractions of the image
// size. Images without a usable block focus on the middle.
func Focus(d Detector, img image.Image) (fx, fy float64) {
	b := img.Bounds()
	if b.Empty() {
		return 0.5, 0.5
	}
	blocks, err := d.Detect(img)
	if err != nil || len(blocks) == 0 {
		return 0.5, 0.5
	}
	c := blocks[0].Center
	return float64(c.X-b.Min.X) / float64(b.Dx()), float64(c.Y-b.Min.Y) / float64(b.Dy())
}
