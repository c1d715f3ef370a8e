// Package frames produces the derived stills of a vehicle block: an HTML
// template is filled with the vehicle's photo and metadata, rasterised and
// fitted to the output resolution.
package frames

import (
	"bytes"
	"context"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"image"
	"image/color"
	"image/png"
	"mime"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/AnshulGupta2004/Video-Automation/internal/imaging"
	"github.com/AnshulGupta2004/Video-Automation/internal/schedule"
	"github.com/AnshulGupta2004/Video-Automation/internal/source"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Renderer writes one derived frame of a vehicle to dst as PNG.
type Renderer interface {
	Render(ctx context.Context, kind schedule.FrameKind, alloc schedule.Allocation, dst string) error
}

type Fact struct {
	Label string
	Value string
}

// Card is the data every template receives.
type Card struct {
	Width, Height int
	TitleSize     int
	TextSize      int
	PriceSize     int
	Photo         template.URL
	Title         string
	Number        string
	Price         string
	Dealer        string
	Facts         []Fact
}

// NewCard sizes the typography from the frame height.
func NewCard(v source.Vehicle, dealer string, w, h int) Card {
	if v.Dealer != "" {
		dealer = v.Dealer
	}
	c := Card{
		Width:     w,
		Height:    h,
		TitleSize: h / 14,
		TextSize:  h / 30,
		PriceSize: h / 9,
		Title:     v.Title(),
		Number:    v.Number,
		Price:     v.Price(),
		Dealer:    dealer,
	}
	for _, f := range []Fact{
		{"Registration", v.Number},
		{"Year", v.Year},
		{"Kilometers", v.Kilometers},
		{"Fuel", v.Fuel},
		{"Owner", v.Owner},
		{"Colour", v.Colour},
		{"Registered", v.RegDate},
	} {
		if f.Value != "" {
			c.Facts = append(c.Facts, f)
		}
	}
	return c
}

// Execute fills the named template.
func Execute(kind schedule.FrameKind, card Card) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, string(kind)+".html", card); err != nil {
		return "", fmt.Errorf("template %s: %w", kind, err)
	}
	return buf.String(), nil
}

// DataURI inlines an image so templates never depend on file paths.
func DataURI(mimeType string, data []byte) template.URL {
	return template.URL("data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data))
}

type TemplateRenderer struct {
	Rasterizer Rasterizer
	Remover    Remover
	Width      int
	Height     int
	Dealer     string
	Background color.Color
	Logger     *zap.Logger
}

func (r *TemplateRenderer) photoURI(ctx context.Context, path string) (template.URL, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if r.Remover == nil {
		mt := mime.TypeByExtension(filepath.Ext(path))
		if mt == "" {
			mt = "image/jpeg"
		}
		return DataURI(mt, data), nil
	}

	cut, err := r.Remover.Remove(ctx, data)
	if err != nil {
		return "", fmt.Errorf("background removal %s: %w", path, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, imaging.TrimTransparent(cut)); err != nil {
		return "", err
	}
	return DataURI("image/png", buf.Bytes()), nil
}

func (r *TemplateRenderer) Render(ctx context.Context, kind schedule.FrameKind, alloc schedule.Allocation, dst string) error {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	card := NewCard(alloc.Set.Info, r.Dealer, r.Width, r.Height)
	if card.Number == "" {
		card.Number = alloc.Vehicle
	}
	uri, err := r.photoURI(ctx, alloc.Photo(kind))
	if err != nil {
		return err
	}
	card.Photo = uri

	doc, err := Execute(kind, card)
	if err != nil {
		return err
	}

	img, err := r.Rasterizer.Rasterize(ctx, doc, r.Width, r.Height)
	if err != nil {
		return fmt.Errorf("rasterize %s: %w", kind, err)
	}

	bg := r.Background
	if bg == nil {
		bg = color.Black
	}
	var out image.Image = img
	if b := img.Bounds(); b.Dx() != r.Width || b.Dy() != r.Height {
		out = imaging.Fit(img, r.Width, r.Height, bg)
	}
	if err := imaging.SavePNG(dst, out); err != nil {
		return err
	}
	logger.Debug("frame rendered", zap.String("vehicle", alloc.Vehicle), zap.String("frame", string(kind)), zap.String("path", dst))
	return nil
}
