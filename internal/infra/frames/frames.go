// Package frames owns the on-disk frame file conventions shared by the
// extractor and the diff loop: one image per frame, named with a fixed
// prefix and a 4-digit zero-padded 1-based index.
package frames

import (
	"fmt"
	"os"

	"github.com/joakimgrr/framecatcher/internal/domain/entity"
)

const prefix = "frame"

// Pattern returns the printf-style output pattern handed to ffmpeg,
// e.g. "frame%04d.png".
func Pattern(format string) string {
	return fmt.Sprintf("%s%%04d.%s", prefix, format)
}

// FileName returns the file name of the frame at the given 1-based
// index, e.g. FileName(7, "png") == "frame0007.png". Indices above
// 9999 overflow the fixed width and are not supported.
func FileName(index int, format string) string {
	return fmt.Sprintf("%s%04d.%s", prefix, index, format)
}

// Counter counts extracted frame files in a directory.
type Counter struct{}

func NewCounter() *Counter {
	return &Counter{}
}

// Count returns the number of entries in dir, non-recursively.
func (c *Counter) Count(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", entity.ErrFrameListing, err)
	}
	return len(entries), nil
}
