package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/AnshulGupta2004/Video-Automation/internal/faults"
)

// Vehicle is the metadata shown on derived frames.
type Vehicle struct {
	Number     string `yaml:"number" json:"vehiclenumber"`
	Dealer     string `yaml:"dealer" json:"dealer"`
	Make       string `yaml:"make" json:"make"`
	Model      string `yaml:"model" json:"model"`
	Year       string `yaml:"year" json:"makeYear"`
	Kilometers string `yaml:"kilometers" json:"kilometers"`
	RegDate    string `yaml:"reg_date" json:"regDate"`
	ListPrice  string `yaml:"list_price" json:"listPrice"`
	OfferPrice string `yaml:"offer_price" json:"offerPrice"`
	Owner      string `yaml:"owner" json:"ownership"`
	Colour     string `yaml:"colour" json:"vehicleColour"`
	Fuel       string `yaml:"fuel" json:"fuelType"`
}

// Price is the offer price when one is set, the list price otherwise.
func (v Vehicle) Price() string {
	if strings.TrimSpace(v.OfferPrice) != "" {
		return v.OfferPrice
	}
	return v.ListPrice
}

// Title is "<year> <make> <model>" with blanks dropped.
func (v Vehicle) Title() string {
	var parts []string
	for _, p := range []string{v.Year, v.Make, v.Model} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// ReadVehicle loads a vehicle.yaml file.
func ReadVehicle(p string) (*Vehicle, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	var v Vehicle
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse %s: %w", p, err)
	}
	return &v, nil
}

// WriteVehicle stores v as vehicle.yaml inside dir.
func WriteVehicle(dir string, v *Vehicle) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, MetadataFile), data, 0644)
}

// sideOrdinals is the fixed side-label vocabulary of the listing service.
var sideOrdinals = map[string]int{
	"Front":       1,
	"Front Left":  2,
	"Left Side":   3,
	"Back Left":   4,
	"Back":        5,
	"Back Right":  6,
	"Right Side":  7,
	"Front right": 8,
}

// Ordinal maps a side label to its 1-based photo position.
func Ordinal(label string) (int, bool) {
	n, ok := sideOrdinals[label]
	return n, ok
}

// LabelFromURL extracts the side label from a listing URL whose file name
// looks like "<Label>_<anything>".
func LabelFromURL(raw string) string {
	u, err := url.Parse(raw)
	name := raw
	if err == nil {
		name = u.Path
	}
	name = path.Base(name)
	if dec, err := url.PathUnescape(name); err == nil {
		name = dec
	}
	label, _, _ := strings.Cut(name, "_")
	return label
}

// Catalog is the vehicle data and image listing service.
type Catalog interface {
	Vehicle(ctx context.Context, number string) (*Vehicle, error)
	ImageLinks(ctx context.Context, number string) ([]string, error)
}

// HTTPCatalog talks to a listing backend that takes {"vehiclenumber": ...} POSTs.
type HTTPCatalog struct {
	BaseURL    string
	DetailPath string
	ImagesPath string
	Client     *http.Client
}

func NewHTTPCatalog(baseURL string) *HTTPCatalog {
	return &HTTPCatalog{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		DetailPath: "/api/driveaway_data",
		ImagesPath: "/api/fetchCarVideoImages",
		Client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPCatalog) post(ctx context.Context, p, number string, out any) error {
	body, _ := json.Marshal(map[string]string{"vehiclenumber": number})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+p, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: %s - %s", p, resp.Status, strings.TrimSpace(string(msg)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *HTTPCatalog) Vehicle(ctx context.Context, number string) (*Vehicle, error) {
	var raw struct {
		Vehicle
		Ownership json.Number `json:"ownership"`
		RC        struct {
			Make    string `json:"vehicleManufacturerName"`
			Model   string `json:"model"`
			RegDate string `json:"regDate"`
			Colour  string `json:"vehicleColour"`
		} `json:"rc_report_generate"`
	}
	if err := c.post(ctx, c.DetailPath, number, &raw); err != nil {
		return nil, fmt.Errorf("vehicle %s: %w", number, err)
	}
	v := raw.Vehicle
	v.Number = number
	v.Make, v.Model, v.RegDate, v.Colour = raw.RC.Make, raw.RC.Model, raw.RC.RegDate, raw.RC.Colour
	if raw.Ownership != "" {
		v.Owner = raw.Ownership.String()
	}
	// makeYear comes as "MM/YYYY"
	if i := strings.LastIndex(v.Year, "/"); i >= 0 {
		v.Year = v.Year[i+1:]
	}
	return &v, nil
}

func (c *HTTPCatalog) ImageLinks(ctx context.Context, number string) ([]string, error) {
	var raw struct {
		DownloadLinks []string `json:"downloadLinks"`
	}
	if err := c.post(ctx, c.ImagesPath, number, &raw); err != nil {
		return nil, fmt.Errorf("images %s: %w", number, err)
	}
	return raw.DownloadLinks, nil
}

// Fetcher stores a vehicle's labeled photos as numbered files in its own folder.
type Fetcher struct {
	Catalog Catalog
	Root    string
	Client  *http.Client
	Logger  *zap.Logger
}

// Fetch downloads every recognised side photo of the vehicle into
// Root/<number>/<ordinal>.jpg and writes vehicle.yaml. Unknown labels are
// skipped with a warning.
func (f *Fetcher) Fetch(ctx context.Context, number string) (string, []faults.Warning, error) {
	logger := f.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	dir := filepath.Join(f.Root, number)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", nil, err
	}

	info, err := f.Catalog.Vehicle(ctx, number)
	if err != nil {
		return "", nil, err
	}
	if err := WriteVehicle(dir, info); err != nil {
		return "", nil, err
	}

	links, err := f.Catalog.ImageLinks(ctx, number)
	if err != nil {
		return "", nil, err
	}

	var warnings []faults.Warning
	for _, link := range links {
		label := LabelFromURL(link)
		n, ok := Ordinal(label)
		if !ok {
			warnings = append(warnings, faults.Warning{
				Kind:    faults.UnknownLabel,
				Vehicle: number,
				Path:    link,
				Message: fmt.Sprintf("unrecognised side label %q", label),
			})
			continue
		}
		dst := filepath.Join(dir, strconv.Itoa(n)+".jpg")
		if err := download(ctx, client, link, dst); err != nil {
			return "", warnings, fmt.Errorf("download %s: %w", label, err)
		}
		logger.Info("photo saved", zap.String("vehicle", number), zap.String("side", label), zap.String("path", dst))
	}
	return dir, warnings, nil
}

func download(ctx context.Context, client *http.Client, link, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %s", resp.Status)
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
