package frames

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gen2brain/go-fitz"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"golang.org/x/sync/semaphore"
)

// Rasterizer turns an HTML document into pixels at roughly w x h.
type Rasterizer interface {
	Rasterize(ctx context.Context, html string, w, h int) (image.Image, error)
	Close() error
}

// NewRasterizer creates a rasterizer based on the specified variant
func NewRasterizer(variant string) (Rasterizer, error) {
	switch variant {
	case "rod", "":
		return NewRodRasterizer(2), nil
	case "fitz":
		return &FitzRasterizer{}, nil
	default:
		return nil, fmt.Errorf("unknown rasterizer variant: %s", variant)
	}
}

// RodRasterizer screenshots the document in headless Chromium. The browser
// starts on first use and is shared by all pages.
type RodRasterizer struct {
	Timeout time.Duration

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	pages    *semaphore.Weighted
}

func NewRodRasterizer(maxPages int64) *RodRasterizer {
	if maxPages < 1 {
		maxPages = 1
	}
	return &RodRasterizer{
		Timeout: 30 * time.Second,
		pages:   semaphore.NewWeighted(maxPages),
	}
}

func (r *RodRasterizer) connect() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser != nil {
		return r.browser, nil
	}

	l := launcher.New().Headless(true)
	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("error launching browser: %w", err)
	}
	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("error connecting to browser: %w", err)
	}
	r.launcher, r.browser = l, browser
	return browser, nil
}

func (r *RodRasterizer) Rasterize(ctx context.Context, html string, w, h int) (image.Image, error) {
	if err := r.pages.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer r.pages.Release(1)

	browser, err := r.connect()
	if err != nil {
		return nil, err
	}

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	defer page.Close()
	page = page.Timeout(r.Timeout)

	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             w,
		Height:            h,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}
	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("set content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}

	shot, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return png.Decode(bytes.NewReader(shot))
}

func (r *RodRasterizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.launcher != nil {
		r.launcher.Cleanup()
		r.launcher = nil
	}
	return err
}

// FitzRasterizer lays the document out with MuPDF. It needs no browser but
// only understands XHTML and a CSS subset.
type FitzRasterizer struct{}

func (FitzRasterizer) Rasterize(ctx context.Context, html string, w, h int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "carreel-fitz-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "frame.xhtml")
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		return nil, err
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer doc.Close()

	bound, err := doc.Bound(0)
	if err != nil {
		return nil, err
	}
	// page bounds are in points; pick the DPI that makes the page w pixels wide
	dpi := 72.0
	if bound.Dx() > 0 {
		dpi = 72.0 * float64(w) / float64(bound.Dx())
	}
	return doc.ImageDPI(0, dpi)
}

func (FitzRasterizer) Close() error { return nil }
