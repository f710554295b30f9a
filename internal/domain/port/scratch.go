package port

// ScratchSpace hands out exclusively-owned temporary directories.
// Every allocated directory must be released exactly once, on every
// exit path of the owning operation.
type ScratchSpace interface {
	Allocate() (string, error)
	Release(dir string)
}
