package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AnshulGupta2004/Video-Automation/internal/natsort"
)

// MetadataFile is the optional per-folder vehicle description.
const MetadataFile = "vehicle.yaml"

// AssetSet is the ordered photo collection of one vehicle.
type AssetSet struct {
	Vehicle string   // registration number or folder name
	Dir     string
	Photos  []string // natural order of file names
	Info    Vehicle
}

// Len returns the number of photos.
func (s AssetSet) Len() int {
	return len(s.Photos)
}

// Photo returns the photo at a 1-based position.
func (s AssetSet) Photo(pos int) (string, error) {
	if pos < 1 || pos > len(s.Photos) {
		return "", fmt.Errorf("vehicle %s: photo %d out of range 1..%d", s.Vehicle, pos, len(s.Photos))
	}
	return s.Photos[pos-1], nil
}

func isImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".webp":
		return true
	}
	return false
}

// NewAssetSet lists the image files of dir in natural order and reads the
// optional vehicle.yaml next to them.
func NewAssetSet(dir string) (AssetSet, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return AssetSet{}, err
	}
	if !fi.IsDir() {
		return AssetSet{}, fmt.Errorf("%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return AssetSet{}, err
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && isImage(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	natsort.Sort(names)

	set := AssetSet{
		Vehicle: filepath.Base(dir),
		Dir:     dir,
		Photos:  make([]string, len(names)),
	}
	for i, n := range names {
		set.Photos[i] = filepath.Join(dir, n)
	}

	info, err := ReadVehicle(filepath.Join(dir, MetadataFile))
	switch {
	case err == nil:
		set.Info = *info
		if info.Number != "" {
			set.Vehicle = info.Number
		}
	case !os.IsNotExist(err):
		return AssetSet{}, err
	}
	if set.Info.Number == "" {
		set.Info.Number = set.Vehicle
	}
	return set, nil
}

// LoadAssetSets loads each folder in the given order.
func LoadAssetSets(dirs []string) ([]AssetSet, error) {
	sets := make([]AssetSet, 0, len(dirs))
	for _, d := range dirs {
		s, err := NewAssetSet(d)
		if err != nil {
			return nil, fmt.Errorf("load assets %s: %w", d, err)
		}
		sets = append(sets, s)
	}
	return sets, nil
}
