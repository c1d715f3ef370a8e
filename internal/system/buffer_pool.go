package system

import (
	"image"
	"sync"
	"sync/atomic"
)

// CanvasPool recycles RGBA canvases by pixel dimensions, so a 1280x720
// canvas drawn at any origin can serve the next request of that size.
type CanvasPool struct {
	bySize sync.Map // image.Point -> *sync.Pool

	reused atomic.Int64
	fresh  atomic.Int64
}

var canvases CanvasPool

// GetImage returns a canvas with the given bounds. Pixels are left as the
// previous user drew them.
func GetImage(rect image.Rectangle) *image.RGBA {
	return canvases.Get(rect)
}

// PutImage hands a canvas back for reuse.
func PutImage(img *image.RGBA) {
	canvases.Put(img)
}

// PoolStats reports how many canvas requests were served from the pool
// and how many had to allocate.
func PoolStats() (reused, fresh int64) {
	return canvases.Stats()
}

func (p *CanvasPool) Get(rect image.Rectangle) *image.RGBA {
	if rect.Empty() {
		return image.NewRGBA(rect)
	}
	if v := p.sizePool(rect.Size()).Get(); v != nil {
		p.reused.Add(1)
		img := v.(*image.RGBA)
		img.Rect = rect
		return img
	}
	p.fresh.Add(1)
	return image.NewRGBA(rect)
}

// Put ignores sub-images and anything whose backing store does not match its
// bounds, since a later Get would hand out a canvas sharing pixels.
func (p *CanvasPool) Put(img *image.RGBA) {
	if img == nil || img.Rect.Empty() {
		return
	}
	size := img.Rect.Size()
	if img.Stride != 4*size.X || len(img.Pix) != 4*size.X*size.Y {
		return
	}
	p.sizePool(size).Put(img)
}

func (p *CanvasPool) Stats() (reused, fresh int64) {
	return p.reused.Load(), p.fresh.Load()
}

func (p *CanvasPool) sizePool(size image.Point) *sync.Pool {
	if v, ok := p.bySize.Load(size); ok {
		return v.(*sync.Pool)
	}
	v, _ := p.bySize.LoadOrStore(size, new(sync.Pool))
	return v.(*sync.Pool)
}
