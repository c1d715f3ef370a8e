package analyzer

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"testing"
)

func square(w, h int, r image.Rectangle) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.Draw(img, r, image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

func TestContrastDetector(t *testing.T) {
	img := square(200, 200, image.Rect(50, 50, 150, 150))

	blocks, err := NewContrastDetector().Detect(img)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(blocks) == 0 {
		t.Fatal("Expected at least one block, got none")
	}

	block := blocks[0]
	if block.Rect.Dx() < 80 || block.Rect.Dy() < 80 {
		t.Errorf("Block too small: %v", block.Rect)
	}
	if math.Abs(float64(block.Center.X-100)) > 3 || math.Abs(float64(block.Center.Y-100)) > 3 {
		t.Errorf("Expected center near (100,100), got %v", block.Center)
	}
	t.Logf("Detected %d blocks, strongest %v weight %d", len(blocks), block.Rect, block.Weight)
}

func TestContrastDetectorDownscales(t *testing.T) {
	// 1280x720 is analysed at 320x180; coordinates come back in source pixels
	img := square(1280, 720, image.Rect(900, 400, 1200, 650))

	blocks, err := NewContrastDetector().Detect(img)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(blocks) == 0 {
		t.Fatal("Expected a block")
	}
	c := blocks[0].Center
	if c.X < 1000 || c.X > 1100 || c.Y < 470 || c.Y > 580 {
		t.Errorf("Center %v not inside the bright region", c)
	}
}

func TestFocus(t *testing.T) {
	d := NewContrastDetector()

	fx, fy := Focus(d, square(200, 200, image.Rect(20, 20, 80, 80)))
	if fx > 0.4 || fy > 0.4 {
		t.Errorf("Expected top-left focus, got (%.2f, %.2f)", fx, fy)
	}

	fx, fy = Focus(d, image.NewRGBA(image.Rect(0, 0, 100, 100)))
	if fx != 0.5 || fy != 0.5 {
		t.Errorf("Flat image should focus on the middle, got (%.2f, %.2f)", fx, fy)
	}
}

func TestDetectorRegistry(t *testing.T) {
	tests := []struct {
		variant string
		wantErr bool
	}{
		{"contrast", false},
		{"", false}, // default
		{"ocr", true},
		{"invalid", true},
	}

	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			detector, err := NewDetector(tt.variant)

			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				if detector == nil {
					t.Error("Expected detector, got nil")
				}
			}
		})
	}
}
