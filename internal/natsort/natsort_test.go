package natsort

import (
	"reflect"
	"testing"
)

func TestSortFilenames(t *testing.T) {
	got := []string{"10.png", "2.png", "1.png"}
	Sort(got)

	want := []string{"1.png", "2.png", "10.png"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"2", "10", -1},
		{"10", "2", 1},
		{"img2.jpg", "img10.jpg", -1},
		{"img10.jpg", "img10.jpg", 0},
		{"a", "b", -1},
		{"frame_9_b", "frame_9_a", 1},
		{"007", "7", 1},
		{"7", "007", -1},
		{"99999999999999999999999", "100000000000000000000000", -1},
		{"1", "a", -1},
		{"", "1", -1},
		{"x1", "x1y", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			if got := Compare(tt.a, tt.b); got != tt.want {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSortFunc(t *testing.T) {
	type photo struct{ name string }
	photos := []photo{{"8.jpg"}, {"11.jpg"}, {"1.jpg"}, {"3.jpg"}}

	SortFunc(photos, func(p photo) string { return p.name })

	var names []string
	for _, p := range photos {
		names = append(names, p.name)
	}
	want := []string{"1.jpg", "3.jpg", "8.jpg", "11.jpg"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("Expected %v, got %v", want, names)
	}
}
