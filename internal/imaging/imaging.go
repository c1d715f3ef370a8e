// Package imaging canonicalises photos and frames to the output resolution.
package imaging

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"os"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/AnshulGupta2004/Video-Automation/internal/system"
)

// FitRect returns where a srcW x srcH image lands inside a w x h canvas when
// scaled to fit without cropping, centered.
func FitRect(srcW, srcH, w, h int) image.Rectangle {
	if srcW <= 0 || srcH <= 0 {
		return image.Rectangle{}
	}
	// cross-multiplied so equal aspect ratios never lose a pixel to rounding
	var nw, nh int
	if srcW*h > w*srcH {
		nw = w
		nh = srcH * w / srcW
	} else {
		nh = h
		nw = srcW * h / srcH
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	x := (w - nw) / 2
	y := (h - nh) / 2
	return image.Rect(x, y, x+nw, y+nh)
}

// Fit scales src into a w x h canvas preserving aspect ratio, centered and
// padded with bg. The canvas comes from the shared pool; hand it back with
// system.PutImage once encoded.
func Fit(src image.Image, w, h int, bg color.Color) *image.RGBA {
	canvas := system.GetImage(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	sb := src.Bounds()
	dr := FitRect(sb.Dx(), sb.Dy(), w, h)
	if dr.Empty() {
		return canvas
	}
	draw.CatmullRom.Scale(canvas, dr, src, sb, draw.Over, nil)
	return canvas
}

// TrimTransparent crops img to the bounding box of its non-transparent
// pixels. A fully transparent image is returned unchanged.
func TrimTransparent(img image.Image) image.Image {
	b := img.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a == 0 {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if maxX < minX {
		return img
	}
	crop := image.Rect(minX, minY, maxX+1, maxY+1)
	out := image.NewRGBA(image.Rect(0, 0, crop.Dx(), crop.Dy()))
	draw.Draw(out, out.Bounds(), img, crop.Min, draw.Src)
	return out
}

// Decode opens and decodes a PNG, JPEG or WebP file.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// Dimensions reads only the header of an image file.
func Dimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// SavePNG writes img to path.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
