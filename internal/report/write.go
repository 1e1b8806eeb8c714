package report

import (
	"fmt"
	"io"

	"github.com/banshee-data/routecast/internal/fsutil"
	"github.com/banshee-data/routecast/internal/security"
)

// writeFile creates dir/name on fsys and fills it with render.
func writeFile(fsys fsutil.FileSystem, dir, name string, render func(io.Writer) error) (string, error) {
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create plot dir: %w", err)
	}
	path, err := security.JoinWithin(dir, name)
	if err != nil {
		return "", err
	}
	f, err := fsys.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", name, err)
	}
	if err := render(f); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", name, err)
	}
	return path, nil
}
