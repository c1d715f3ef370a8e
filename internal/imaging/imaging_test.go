package imaging

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"
)

func TestFitRect(t *testing.T) {
	tests := []struct {
		name       string
		srcW, srcH int
		want       image.Rectangle
	}{
		{"same aspect", 3840, 2160, image.Rect(0, 0, 1920, 1080)},
		{"portrait pillarboxed", 1000, 2000, image.Rect(690, 0, 1230, 1080)},
		{"wide letterboxed", 4000, 1000, image.Rect(0, 300, 1920, 780)},
		{"small upscaled", 192, 108, image.Rect(0, 0, 1920, 1080)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FitRect(tt.srcW, tt.srcH, 1920, 1080)
			if got != tt.want {
				t.Errorf("FitRect(%d, %d) = %v, want %v", tt.srcW, tt.srcH, got, tt.want)
			}
		})
	}
}

func TestFitPadsWithBackground(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 100; x++ {
			src.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}

	out := Fit(src, 400, 200, color.Black)
	if out.Bounds() != image.Rect(0, 0, 400, 200) {
		t.Fatalf("Unexpected bounds %v", out.Bounds())
	}

	// padding on the left, content in the middle
	if c := out.RGBAAt(10, 100); c.R != 0 || c.A != 255 {
		t.Errorf("Expected black padding, got %v", c)
	}
	if c := out.RGBAAt(200, 100); c.R < 250 {
		t.Errorf("Expected red content at center, got %v", c)
	}
}

func TestTrimTransparent(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 50, 40))
	for y := 10; y < 20; y++ {
		for x := 5; x < 30; x++ {
			img.Set(x, y, color.RGBA{G: 200, A: 255})
		}
	}

	trimmed := TrimTransparent(img)
	if got := trimmed.Bounds(); got.Dx() != 25 || got.Dy() != 10 {
		t.Errorf("Expected 25x10 after trim, got %v", got)
	}

	empty := image.NewRGBA(image.Rect(0, 0, 8, 8))
	if got := TrimTransparent(empty); got.Bounds() != empty.Bounds() {
		t.Errorf("Fully transparent image should be unchanged, got %v", got.Bounds())
	}
}

func TestSaveDecodeRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	img := image.NewRGBA(image.Rect(0, 0, 16, 9))
	if err := SavePNG(path, img); err != nil {
		t.Fatalf("SavePNG failed: %v", err)
	}

	w, h, err := Dimensions(path)
	if err != nil {
		t.Fatalf("Dimensions failed: %v", err)
	}
	if w != 16 || h != 9 {
		t.Errorf("Expected 16x9, got %dx%d", w, h)
	}

	if _, err := Decode(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("Expected error for missing file")
	}
}
