package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Workspace is the scratch directory of one run. Everything inside is
// removed by Release.
type Workspace struct {
	ID  string
	Dir string

	once sync.Once
	err  error
}

// NewWorkspace creates <root>/carreel_<uuid> with audio, frames and captions
// subdirectories. An empty root means the OS temp dir.
func NewWorkspace(root string) (*Workspace, error) {
	if root == "" {
		root = os.TempDir()
	}
	id := uuid.New().String()
	dir := filepath.Join(root, "carreel_"+id)
	for _, sub := range []string{"audio", "frames", "captions"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			os.RemoveAll(dir)
			return nil, fmt.Errorf("create workspace: %w", err)
		}
	}
	return &Workspace{ID: id, Dir: dir}, nil
}

func (w *Workspace) Path(elem ...string) string {
	return filepath.Join(append([]string{w.Dir}, elem...)...)
}

// Release removes the workspace. Safe to call more than once.
func (w *Workspace) Release() error {
	w.once.Do(func() {
		w.err = os.RemoveAll(w.Dir)
	})
	return w.err
}
