// Package filestate moves successfully extracted source files from the
// unprocessed area into the per-site processed archive.
package filestate

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Manager moves source files between the unprocessed and processed areas.
// A file moves only after its extracts are safely written; on any fatal
// per-document error it stays in unprocessed for retry or inspection.
type Manager struct {
	ProcessedDir string
}

// Archive moves a source file to processed/html/<site-code>/<name>.
// If the destination already exists the source is left in place with a
// warning, so a re-issued file is never clobbered silently.
func (m *Manager) Archive(srcPath, siteCode string) (string, error) {
	destDir := filepath.Join(m.ProcessedDir, "html", siteCode)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", eris.Wrapf(err, "filestate: create %s", destDir)
	}

	dest := filepath.Join(destDir, filepath.Base(srcPath))
	if _, err := os.Stat(dest); err == nil {
		zap.L().Warn("archive destination already exists, leaving source in place",
			zap.String("src", srcPath),
			zap.String("dest", dest),
		)
		return "", nil
	}

	if err := os.Rename(srcPath, dest); err != nil {
		return "", eris.Wrapf(err, "filestate: move %s", srcPath)
	}
	return dest, nil
}

// ListUnprocessed returns the source files awaiting extraction, sorted.
func ListUnprocessed(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "filestate: read %s", dir)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ext != "" && filepath.Ext(e.Name()) != ext {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	return out, nil
}
