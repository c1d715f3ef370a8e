package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/AnshulGupta2004/Video-Automation/internal/faults"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestNewAssetSetNaturalOrder(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "10.jpg", "2.jpg", "1.jpg", "notes.txt", "3.PNG")

	set, err := NewAssetSet(dir)
	if err != nil {
		t.Fatalf("NewAssetSet failed: %v", err)
	}

	want := []string{"1.jpg", "2.jpg", "3.PNG", "10.jpg"}
	if set.Len() != len(want) {
		t.Fatalf("Expected %d photos, got %d", len(want), set.Len())
	}
	for i, w := range want {
		if filepath.Base(set.Photos[i]) != w {
			t.Errorf("Photo %d: expected %s, got %s", i, w, filepath.Base(set.Photos[i]))
		}
	}
	if set.Vehicle != filepath.Base(dir) {
		t.Errorf("Expected vehicle name from folder, got %s", set.Vehicle)
	}

	p, err := set.Photo(4)
	if err != nil || filepath.Base(p) != "10.jpg" {
		t.Errorf("Photo(4) = %s, %v", p, err)
	}
	if _, err := set.Photo(5); err == nil {
		t.Error("Expected out of range error")
	}
}

func TestNewAssetSetReadsMetadata(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "1.jpg")
	if err := WriteVehicle(dir, &Vehicle{Number: "KA01AB1234", Make: "Maruti", Model: "Swift", Year: "2019", ListPrice: "5,00,000", OfferPrice: "4,75,000"}); err != nil {
		t.Fatal(err)
	}

	set, err := NewAssetSet(dir)
	if err != nil {
		t.Fatalf("NewAssetSet failed: %v", err)
	}
	if set.Vehicle != "KA01AB1234" {
		t.Errorf("Expected vehicle number from metadata, got %s", set.Vehicle)
	}
	if set.Info.Price() != "4,75,000" {
		t.Errorf("Offer price should win, got %s", set.Info.Price())
	}
	if set.Info.Title() != "2019 Maruti Swift" {
		t.Errorf("Unexpected title %q", set.Info.Title())
	}
}

func TestPriceFallsBackToList(t *testing.T) {
	v := Vehicle{ListPrice: "6,00,000", OfferPrice: "  "}
	if v.Price() != "6,00,000" {
		t.Errorf("Expected list price, got %s", v.Price())
	}
}

func TestLoadAssetSetsMissingDir(t *testing.T) {
	if _, err := LoadAssetSets([]string{filepath.Join(t.TempDir(), "nope")}); err == nil {
		t.Error("Expected error for missing folder")
	}
}

func TestLabelFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
		ord  int
	}{
		{"https://cdn.example.com/cars/Front_123.jpg", "Front", 1},
		{"https://cdn.example.com/cars/Front%20Left_9.jpg?sig=abc", "Front Left", 2},
		{"https://cdn.example.com/x/Back Right_1.png", "Back Right", 6},
		{"https://cdn.example.com/x/Front%20right_1.png", "Front right", 8},
		{"https://cdn.example.com/x/Interior_1.png", "Interior", 0},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := LabelFromURL(tt.url)
			if got != tt.want {
				t.Fatalf("Expected %q, got %q", tt.want, got)
			}
			n, ok := Ordinal(got)
			if tt.ord == 0 {
				if ok {
					t.Errorf("Expected unknown label, got ordinal %d", n)
				}
				return
			}
			if n != tt.ord {
				t.Errorf("Expected ordinal %d, got %d", tt.ord, n)
			}
		})
	}
}

func TestFetcher(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/driveaway_data":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["vehiclenumber"] != "MH12XY0001" {
				http.Error(w, "unknown vehicle", http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"makeYear":   "03/2020",
				"kilometers": "42000",
				"listPrice":  "7,10,000",
				"ownership":  1,
				"rc_report_generate": map[string]string{
					"vehicleManufacturerName": "Hyundai",
					"model":                   "i20",
				},
			})
		case "/api/fetchCarVideoImages":
			json.NewEncoder(w).Encode(map[string][]string{
				"downloadLinks": {
					srv.URL + "/img/Front_a.jpg",
					srv.URL + "/img/Back%20Left_b.jpg",
					srv.URL + "/img/Dashboard_c.jpg",
				},
			})
		default:
			w.Write([]byte("jpegbytes"))
		}
	}))
	defer srv.Close()

	root := t.TempDir()
	f := &Fetcher{Catalog: NewHTTPCatalog(srv.URL), Root: root, Client: srv.Client()}

	dir, warnings, err := f.Fetch(context.Background(), "MH12XY0001")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(warnings) != 1 || warnings[0].Kind != faults.UnknownLabel {
		t.Errorf("Expected one unknown label warning, got %v", warnings)
	}
	for _, name := range []string{"1.jpg", "4.jpg", MetadataFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Expected %s: %v", name, err)
		}
	}

	info, err := ReadVehicle(filepath.Join(dir, MetadataFile))
	if err != nil {
		t.Fatal(err)
	}
	if info.Year != "2020" || info.Make != "Hyundai" || info.Owner != "1" {
		t.Errorf("Unexpected metadata %+v", info)
	}
}

func TestFetcherCatalogError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := &Fetcher{Catalog: NewHTTPCatalog(srv.URL), Root: t.TempDir()}
	if _, _, err := f.Fetch(context.Background(), "X"); err == nil {
		t.Error("Expected catalog error")
	}
}
