package port

// FrameCounter counts entries in an extraction directory,
// non-recursively.
type FrameCounter interface {
	Count(dir string) (int, error)
}
