package collab

import (
	"fmt"
	"os"

	"github.com/lucasnoah/testfactory/internal/pipeline"
)

// AtomicFileWriter writes script files atomically (temp file + rename)
// and keeps a .bak copy of any file it overwrites, so a regenerated
// script never clobbers a hand-edited one without a way back.
type AtomicFileWriter struct{}

// Write persists text to path. An existing file is first renamed to
// path.bak.
func (AtomicFileWriter) Write(path, text string) error {
	if _, err := os.Stat(path); err == nil {
		if err := os.Rename(path, path+".bak"); err != nil {
			return fmt.Errorf("back up %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := pipeline.WriteAtomic(path, []byte(text)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
