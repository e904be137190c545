package executor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator checks that a script path exists and lives under one of
// the allowed root directories. Scripts come from the generation stage
// or directly from an operator; either way nothing outside the allowed
// roots is ever launched.
type PathValidator struct {
	roots []string
}

// NewPathValidator resolves the given roots to absolute paths. With no
// roots, any existing path passes.
func NewPathValidator(roots []string) (*PathValidator, error) {
	v := &PathValidator{}
	for _, r := range roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			return nil, fmt.Errorf("resolve root %s: %w", r, err)
		}
		v.roots = append(v.roots, abs)
	}
	return v, nil
}

// Validate returns nil if path is an existing file inside an allowed
// root.
func (v *PathValidator) Validate(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("script %s does not exist", path)
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("script %s is a directory", path)
	}

	if len(v.roots) == 0 {
		return nil
	}
	for _, root := range v.roots {
		rel, err := filepath.Rel(root, abs)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil
		}
	}
	return fmt.Errorf("script %s is outside the allowed directories", path)
}
