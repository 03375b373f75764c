package loader

import (
	"path/filepath"
	"strings"

	"labsolver/domain/lab"
	"labsolver/internal"
	"labsolver/ports"
)

// ForPath picks a loader by file extension: .yaml and .yml are read as YAML,
// everything else as JSON
func ForPath(path string, defaults lab.Settings, logger *internal.Logger) ports.TaskLoader {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return NewYAMLLoader(defaults, logger)
	default:
		return NewJSONLoader(defaults, logger)
	}
}
