// Package discovery lists the images a run will process.
package discovery

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/daryltucker/ocr-runner/internal/model"
)

// Supported image extensions (lowercase, with leading dot).
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// IsImage reports whether name carries a supported extension, ignoring case.
func IsImage(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// Discover lists dir without recursing and returns one task per supported
// image, sorted by filename for a deterministic dispatch order.
func Discover(dir string) ([]model.ImageTask, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &model.DiscoveryError{Dir: dir, Err: err}
	}

	var tasks []model.ImageTask
	for _, e := range entries {
		if e.IsDir() || !IsImage(e.Name()) {
			continue
		}
		tasks = append(tasks, model.ImageTask{
			Filename: e.Name(),
			Path:     filepath.Join(dir, e.Name()),
		})
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Filename < tasks[j].Filename })
	return tasks, nil
}
