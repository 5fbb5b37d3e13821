package tenant

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotSpecified is returned when a professor username is missing;
// every artifact in the store is scoped to one professor.
var ErrNotSpecified = errors.New("professor username not provided")

// ErrNoProjectRoot is returned when the workspace root is missing.
var ErrNoProjectRoot = errors.New("project root not provided")

const indexFileName = "knowledge_index.bin"

// Dirs is one professor's workspace layout under the project root.
type Dirs struct {
	Base      string
	Materials string
	Indices   string
	Rubrics   string
}

// NewDirs resolves a professor's directories, creating any that are
// missing so callers can write without further checks.
func NewDirs(projectRoot, professor string) (Dirs, error) {
	if professor == "" {
		return Dirs{}, ErrNotSpecified
	}
	if projectRoot == "" {
		return Dirs{}, ErrNoProjectRoot
	}
	base := filepath.Join(projectRoot, "uploads", professor)
	d := Dirs{
		Base:      base,
		Materials: filepath.Join(base, "materials"),
		Indices:   filepath.Join(base, "indices"),
		Rubrics:   filepath.Join(base, "rubrics"),
	}
	for _, dir := range []string{d.Base, d.Materials, d.Indices, d.Rubrics} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Dirs{}, fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
	}
	return d, nil
}

// IndexPath is the persisted knowledge index artifact for this professor.
func (d Dirs) IndexPath() string {
	return filepath.Join(d.Indices, indexFileName)
}
