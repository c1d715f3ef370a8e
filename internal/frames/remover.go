package frames

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/skip2/go-qrcode"
)

// Remover cuts the vehicle out of its background.
type Remover interface {
	Remove(ctx context.Context, photo []byte) (image.Image, error)
}

// NewRemover returns an HTTP remover for url, or nil when url is empty.
func NewRemover(url string) Remover {
	if url == "" {
		return nil
	}
	return &HTTPRemover{URL: url, Client: &http.Client{Timeout: 2 * time.Minute}}
}

// HTTPRemover posts the photo to a rembg-compatible server and expects a
// transparent PNG back.
type HTTPRemover struct {
	URL    string
	Client *http.Client
}

func (r *HTTPRemover) Remove(ctx context.Context, photo []byte) (image.Image, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "photo")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(photo); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("remover: %s - %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("remover response: %w", err)
	}
	return img, nil
}

// StampQR draws a QR code for url into the bottom-right corner of dst.
func StampQR(dst draw.Image, url string, size, margin int) error {
	q, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("qr code: %w", err)
	}
	code := q.Image(size)
	b := dst.Bounds()
	at := image.Pt(b.Max.X-margin-code.Bounds().Dx(), b.Max.Y-margin-code.Bounds().Dy())
	r := image.Rectangle{Min: at, Max: at.Add(code.Bounds().Size())}
	draw.Draw(dst, r, code, code.Bounds().Min, draw.Src)
	return nil
}
