package features

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/banshee-data/routecast/internal/fsutil"
	"github.com/banshee-data/routecast/internal/security"
	"github.com/banshee-data/routecast/internal/stats"
	"github.com/banshee-data/routecast/internal/timeutil"
)

// DiagnosticWriter writes the per-path feature log: one line per valid
// training row, the three groups rendered and joined by tabs.
type DiagnosticWriter struct {
	FS    fsutil.FileSystem
	Clock timeutil.Clock
	Dir   string
}

// NewDiagnosticWriter creates a writer for dir on the real filesystem.
func NewDiagnosticWriter(dir string) *DiagnosticWriter {
	return &DiagnosticWriter{FS: fsutil.OSFileSystem{}, Clock: timeutil.RealClock{}, Dir: dir}
}

// FileName returns <stamp>_features_<src>_<dst>.log for the writer's clock.
func (w *DiagnosticWriter) FileName(src, dst string) string {
	return fmt.Sprintf("%s_features_%s_%s.log",
		timeutil.FileStamp(w.Clock.Now()),
		security.SanitizeFilename(src),
		security.SanitizeFilename(dst))
}

// Write stores rows in a new dated file and returns its path. Nothing is
// written, and the path is empty, when rows is empty.
func (w *DiagnosticWriter) Write(src, dst string, rows []Row) (string, error) {
	if len(rows) == 0 {
		return "", nil
	}
	if err := w.FS.MkdirAll(w.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create log dir: %w", err)
	}
	path, err := security.JoinWithin(w.Dir, w.FileName(src, dst))
	if err != nil {
		return "", err
	}

	f, err := w.FS.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create feature log: %w", err)
	}
	bw := bufio.NewWriter(f)
	for _, r := range rows {
		if _, err := bw.WriteString(FormatRow(r) + "\n"); err != nil {
			f.Close()
			return "", fmt.Errorf("failed to write feature log: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write feature log: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close feature log: %w", err)
	}
	return path, nil
}

// FormatGroup renders a group's features as "[f1, f2, ...]".
func FormatGroup(g GroupRow) string {
	return stats.FormatVector(g.Features)
}

// FormatRow tab-joins the rendering of the row's three groups.
func FormatRow(r Row) string {
	parts := make([]string, 0, NumGroups)
	for _, g := range r.Groups {
		parts = append(parts, FormatGroup(g))
	}
	return strings.Join(parts, "\t")
}
