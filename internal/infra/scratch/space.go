package scratch

import (
	"fmt"
	"os"

	"github.com/joakimgrr/framecatcher/internal/domain/entity"
	"go.uber.org/zap"
)

// Space allocates ephemeral frame directories under a common base and
// guarantees their recursive removal on release.
type Space struct {
	base   string
	logger *zap.Logger
}

func NewSpace(base string, logger *zap.Logger) *Space {
	return &Space{base: base, logger: logger}
}

// Allocate creates a uniquely named, empty, writable directory. The
// base directory is created on demand.
func (s *Space) Allocate() (string, error) {
	if s.base != "" {
		if err := os.MkdirAll(s.base, 0755); err != nil {
			return "", fmt.Errorf("%w: create base dir: %v", entity.ErrScratchAllocation, err)
		}
	}
	dir, err := os.MkdirTemp(s.base, "frames-")
	if err != nil {
		return "", fmt.Errorf("%w: %v", entity.ErrScratchAllocation, err)
	}
	return dir, nil
}

// Release removes the directory and all contents. Removal failures are
// logged, not returned: by the time a run releases its scratch space
// there is nothing useful a caller can do about leftovers.
func (s *Space) Release(dir string) {
	if dir == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		s.logger.Warn("failed to remove scratch directory",
			zap.String("dir", dir),
			zap.Error(err),
		)
	}
}
