package analyzer

import (
	"errors"
	"image"
	"math"
	"sort"

	"golang.org/x/image/draw"
)

// ContrastDetector groups Sobel edges of a downscaled grayscale copy into
// connected blocks.
type ContrastDetector struct {
	MaxSide       int     // longest side of the analysis copy
	EdgeThreshold float64 // gradient magnitude threshold
	Radius        int     // dilation radius joining nearby edges
	MinWeight     int     // edge pixels a block needs to count
}

func NewContrastDetector() *ContrastDetector {
	return &ContrastDetector{
		MaxSide:       320,
		EdgeThreshold: 60,
		Radius:        2,
		MinWeight:     40,
	}
}

func (d *ContrastDetector) Detect(img image.Image) ([]Block, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, errors.New("empty image")
	}
	gray := downscale(img, d.MaxSide)
	w, h := gray.Rect.Dx(), gray.Rect.Dy()

	edges := sobel(gray, d.EdgeThreshold)
	blocks := components(dilate(edges, w, h, d.Radius), edges, w, h, d.MinWeight)

	sx := float64(b.Dx()) / float64(w)
	sy := float64(b.Dy()) / float64(h)
	for i := range blocks {
		r, c := blocks[i].Rect, blocks[i].Center
		blocks[i].Rect = image.Rect(
			b.Min.X+int(float64(r.Min.X)*sx), b.Min.Y+int(float64(r.Min.Y)*sy),
			b.Min.X+int(math.Ceil(float64(r.Max.X)*sx)), b.Min.Y+int(math.Ceil(float64(r.Max.Y)*sy)),
		)
		blocks[i].Center = image.Pt(b.Min.X+int((float64(c.X)+0.5)*sx), b.Min.Y+int((float64(c.Y)+0.5)*sy))
	}
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Weight > blocks[j].Weight })
	return blocks, nil
}

func downscale(img image.Image, maxSide int) *image.Gray {
	b := img.Bounds()
	scale := 1.0
	if side := max(b.Dx(), b.Dy()); maxSide > 0 && side > maxSide {
		scale = float64(maxSide) / float64(side)
	}
	w := max(1, int(float64(b.Dx())*scale))
	h := max(1, int(float64(b.Dy())*scale))
	gray := image.NewGray(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(gray, gray.Rect, img, b, draw.Src, nil)
	return gray
}

func sobel(g *image.Gray, threshold float64) []bool {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	out := make([]bool, w*h)
	px := func(x, y int) float64 { return float64(g.Pix[y*g.Stride+x]) }
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := px(x+1, y-1) + 2*px(x+1, y) + px(x+1, y+1) - px(x-1, y-1) - 2*px(x-1, y) - px(x-1, y+1)
			gy := px(x-1, y+1) + 2*px(x, y+1) + px(x+1, y+1) - px(x-1, y-1) - 2*px(x, y-1) - px(x+1, y-1)
			out[y*w+x] = math.Hypot(gx, gy) > threshold
		}
	}
	return out
}

// dilate grows the mask by a square of radius r, one axis at a time.
func dilate(m []bool, w, h, r int) []bool {
	if r <= 0 {
		return m
	}
	tmp := make([]bool, len(m))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !m[y*w+x] {
				continue
			}
			for nx := max(0, x-r); nx <= min(w-1, x+r); nx++ {
				tmp[y*w+nx] = true
			}
		}
	}
	out := make([]bool, len(m))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !tmp[y*w+x] {
				continue
			}
			for ny := max(0, y-r); ny <= min(h-1, y+r); ny++ {
				out[ny*w+x] = true
			}
		}
	}
	return out
}

func components(mask, edges []bool, w, h, minWeight int) []Block {
	seen := make([]bool, len(mask))
	var blocks []Block
	var stack []int
	for start := range mask {
		if !mask[start] || seen[start] {
			continue
		}
		seen[start] = true
		stack = append(stack[:0], start)

		minX, minY, maxX, maxY := w, h, -1, -1
		var weight, sumX, sumY int
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%w, i/w
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
			if edges[i] {
				weight++
				sumX += x
				sumY += y
			}
			push := func(n int) {
				if mask[n] && !seen[n] {
					seen[n] = true
					stack = append(stack, n)
				}
			}
			if x > 0 {
				push(i - 1)
			}
			if x < w-1 {
				push(i + 1)
			}
			if y > 0 {
				push(i - w)
			}
			if y < h-1 {
				push(i + w)
			}
		}
		if weight < minWeight {
			continue
		}
		blocks = append(blocks, Block{
			Rect:   image.Rect(minX, minY, maxX+1, maxY+1),
			Center: image.Pt(sumX/weight, sumY/weight),
			Weight: weight,
		})
	}
	return blocks
}
